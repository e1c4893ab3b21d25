package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coderefs/internal/docs"
	"coderefs/internal/github"
)

var (
	historyFormat     string
	historySince      string
	historySinceLocal string
	historyNoCache    bool
)

var historyCmd = &cobra.Command{
	Use:   "history <fileUrl>",
	Short: "Look up the commit history of a referenced file",
	Long: `Count the upstream commits of a GitHub file after a date, the same
lookup 'scan --history' does for every reference.

Dates use the ms.date format MM/DD/YYYY. Without --since all commits are
counted.

Examples:
  coderefs history https://github.com/Azure-Samples/functions-quickstarts-java/blob/master/pom.xml
  coderefs history <url> --since 03/15/2024 --format json`,
	Args: cobra.ExactArgs(1),
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyFormat, "format", "human", "Output format (human, json, yaml)")
	historyCmd.Flags().StringVar(&historySince, "since", "", "Article date, MM/DD/YYYY")
	historyCmd.Flags().StringVar(&historySinceLocal, "since-local", "", "Last local commit of the article, MM/DD/YYYY (default today)")
	historyCmd.Flags().BoolVar(&historyNoCache, "no-cache", false, "Do not use the persistent commit cache")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	fileURL := args[0]
	cfg := loadConfigOrDefault()
	logger := newLogger(cfg)

	ref, err := github.ParseFileURL(fileURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	since, err := parseDateFlag(historySince, docs.DefaultStartDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --since: %v\n", err)
		os.Exit(1)
	}
	now := time.Now().UTC()
	sinceLocal, err := parseDateFlag(historySinceLocal, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --since-local: %v\n", err)
		os.Exit(1)
	}

	var client *github.Client
	if historyNoCache {
		client, err = newHistoryClient(cfg, nil, logger)
	} else {
		db := mustOpenDB(mustGetResultsDir(cfg), logger)
		defer db.Close()
		client, err = newHistoryClient(cfg, db, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating GitHub client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := newTimeoutContext(time.Minute)
	defer cancel()

	h, err := client.CommitHistory(ctx, fileURL, since, sinceLocal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	response := &HistoryResponseCLI{
		FileURL:    fileURL,
		HistoryURL: ref.HistoryURL(cfg.GitHub.APIBaseURL),
		Since:      since.Format(docs.DateLayout),
		SinceLocal: sinceLocal.Format(docs.DateLayout),
		History:    *h,
	}

	output, err := FormatResponse(response, OutputFormat(historyFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func parseDateFlag(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return time.Parse(docs.DateLayout, value)
}

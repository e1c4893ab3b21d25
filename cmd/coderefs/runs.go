package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coderefs/internal/docs"
	"coderefs/internal/export"
	"coderefs/internal/publish"
	"coderefs/internal/storage"
)

var (
	runsFormat string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded inventory runs",
	Long: `List the scans recorded in the results folder database, newest first.

Examples:
  coderefs runs
  coderefs runs --limit 5 --format json
  coderefs runs show <run-id>
  coderefs runs delete <run-id>
  coderefs runs remote azure-docs`,
	Run: runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the rows of a run",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsDelete,
}

var runsRemoteCmd = &cobra.Command{
	Use:   "remote <docset>",
	Short: "List inventories uploaded for a docset",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsRemote,
}

var runsPurgeCacheCmd = &cobra.Command{
	Use:   "purge-cache",
	Short: "Remove expired commit history cache entries",
	Run:   runRunsPurgeCache,
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsFormat, "format", "human", "Output format (human, json, yaml)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")

	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	runsCmd.AddCommand(runsRemoteCmd)
	runsCmd.AddCommand(runsPurgeCacheCmd)
	rootCmd.AddCommand(runsCmd)
}

func openRunStore() (*storage.DB, *docs.Store) {
	cfg := loadConfigOrDefault()
	db := mustOpenDB(mustGetResultsDir(cfg), newLogger(cfg))
	return db, docs.NewStore(db)
}

func runRuns(cmd *cobra.Command, args []string) {
	db, store := openRunStore()
	defer db.Close()

	runs, err := store.ListRuns(runsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
		os.Exit(1)
	}

	printResponse(&RunsResponseCLI{Runs: runs, Count: len(runs)}, runsFormat)
}

func runRunsShow(cmd *cobra.Command, args []string) {
	db, store := openRunStore()
	defer db.Close()

	rows, err := store.GetRows(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading run: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "No rows recorded for run %s\n", args[0])
		os.Exit(1)
	}

	printResponse(&RowsResponseCLI{RunID: args[0], Rows: rows, Count: len(rows)}, runsFormat)
}

func runRunsDelete(cmd *cobra.Command, args []string) {
	db, store := openRunStore()
	defer db.Close()

	if err := store.DeleteRun(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting run: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted run %s\n", args[0])
}

func runRunsRemote(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	uploader, err := publish.NewUploader(cfg.Artifact, newLogger(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring artifact storage: %v\n", err)
		os.Exit(1)
	}

	name := args[0]
	if ds, ok := cfg.Find(name); ok {
		name = export.Prefix(ds.Repo)
	}

	ctx, cancel := newTimeoutContext(time.Minute)
	defer cancel()

	keys, err := uploader.List(ctx, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing uploads: %v\n", err)
		os.Exit(1)
	}

	printResponse(&RemoteResponseCLI{Bucket: uploader.Bucket(), Docset: name, Keys: keys}, runsFormat)
}

func runRunsPurgeCache(cmd *cobra.Command, args []string) {
	db, _ := openRunStore()
	defer db.Close()

	n, err := storage.NewCache(db).PurgeExpired()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error purging cache: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d expired cache entries\n", n)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"coderefs/internal/docs"
	"coderefs/internal/docset"
)

var (
	fileFormat  string
	fileDocset  string
	fileLenient bool
	fileStored  bool
)

var fileCmd = &cobra.Command{
	Use:   "file <path.md>",
	Short: "Show metadata and code references of one article",
	Long: `Parse a single article of a configured docset and print its metadata
and :::code references, resolved against the docset's dependent repositories.

With --stored the rows recorded for the article by the latest scan are shown
instead.

Examples:
  coderefs file articles/functions/create-first-function.md --docset azure-docs
  coderefs file ./articles/a.md --docset azure-docs --format json
  coderefs file /repos/azure-docs/articles/a.md --stored`,
	Args: cobra.ExactArgs(1),
	Run:  runFile,
}

func init() {
	fileCmd.Flags().StringVar(&fileFormat, "format", "human", "Output format (human, json, yaml)")
	fileCmd.Flags().StringVar(&fileDocset, "docset", "", "Docset the article belongs to (repo or short name)")
	fileCmd.Flags().BoolVar(&fileLenient, "lenient", false, "Skip malformed :::code lines instead of abandoning the document")
	fileCmd.Flags().BoolVar(&fileStored, "stored", false, "Show rows recorded by the latest scan")
	rootCmd.AddCommand(fileCmd)
}

func runFile(cmd *cobra.Command, args []string) {
	path, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if fileStored {
		runFileStored(path)
		return
	}

	if fileDocset == "" {
		fmt.Fprintln(os.Stderr, "Error: --docset is required")
		os.Exit(1)
	}

	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	entry, ok := cfg.Find(fileDocset)
	if !ok {
		fmt.Fprintf(os.Stderr, "Docset not found in config: %s\n", fileDocset)
		os.Exit(1)
	}
	ds, err := docset.Load(entry, cfg.Metadata.Fields, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading docset: %v\n", err)
		os.Exit(1)
	}

	indexer := docs.NewIndexer(ds.Target(), logger, docs.IndexerConfig{
		Mode:   abortMode(cfg, fileLenient),
		Fields: cfg.Metadata.Fields,
	})
	res, err := indexer.IndexFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	response := &FileResponseCLI{
		Path:            res.Doc.RelPath,
		Docset:          ds.Name(),
		URL:             docs.ArticleURL(ds.Config.URL, res.Doc.RelPath),
		Hash:            res.Doc.Hash,
		Metadata:        res.Meta.Fields,
		HasFrontMatter:  res.Meta.HasFrontMatter,
		SuspectEncoding: res.Meta.SuspectEncoding || res.Doc.InvalidUTF8,
		Aborted:         res.Scan.Aborted,
		AbortLine:       res.Scan.AbortLine,
		AbortReason:     res.Scan.AbortReason,
		Skipped:         res.Scan.Skipped,
	}
	for _, ref := range res.Scan.References {
		response.References = append(response.References, RefCLI{
			Line:    ref.Line,
			Kind:    string(ref.Kind),
			Detail:  ref.Detail,
			Source:  ref.Source,
			FileURL: ref.FileURL(),
		})
	}

	output, err := FormatResponse(response, OutputFormat(fileFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runFileStored(path string) {
	cfg := loadConfigOrDefault()
	logger := newLogger(cfg)
	db := mustOpenDB(mustGetResultsDir(cfg), logger)
	defer db.Close()

	rows, err := docs.NewStore(db).RowsForFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stored rows: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "No recorded references for %s\n", path)
		fmt.Fprintln(os.Stderr, "Run 'coderefs scan' first.")
		os.Exit(1)
	}

	output, err := FormatResponse(&RowsResponseCLI{Rows: rows, Count: len(rows)}, OutputFormat(fileFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

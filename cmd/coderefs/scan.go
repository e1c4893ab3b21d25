package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"coderefs/internal/config"
	"coderefs/internal/docs"
	"coderefs/internal/docset"
	"coderefs/internal/errors"
	"coderefs/internal/export"
	"coderefs/internal/git"
	"coderefs/internal/github"
	"coderefs/internal/logging"
	"coderefs/internal/publish"
	"coderefs/internal/storage"
)

var (
	scanFormat  string
	scanDocset  string
	scanHistory bool
	scanLenient bool
	scanUpload  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Take the code reference inventory",
	Long: `Scan every enabled docset in the config for :::code references and
write one CSV inventory per docset to the results folder.

The results folder defaults to ./data and can be changed with
CODEREFS_RESULTS_FOLDER. CODEREFS_REPO_ROOT must point at the folder that
holds the docset clones; docset paths may reference it as ${CODEREFS_REPO_ROOT}.

Examples:
  coderefs scan --config config.json
  coderefs scan --docset azure-docs --history
  coderefs scan --lenient --format json`,
	Run: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format (human, json, yaml)")
	scanCmd.Flags().StringVar(&scanDocset, "docset", "", "Only scan the docset with this repo or short name")
	scanCmd.Flags().BoolVar(&scanHistory, "history", false, "Add upstream commit history columns (GitHub API)")
	scanCmd.Flags().BoolVar(&scanLenient, "lenient", false, "Skip malformed :::code lines instead of abandoning the document")
	scanCmd.Flags().BoolVar(&scanUpload, "upload", false, "Upload the inventory even if artifact.enabled is false")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	mustGetRepoRoot()

	resultsDir := mustGetResultsDir(cfg)
	db := mustOpenDB(resultsDir, logger)
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()

	logger.WriteHeader()

	docsets := cfg.Content
	if scanDocset != "" {
		ds, ok := cfg.Find(scanDocset)
		if !ok {
			fmt.Fprintf(os.Stderr, "Docset not found in config: %s\n", scanDocset)
			os.Exit(1)
		}
		docsets = []config.Docset{ds}
	}

	var history docs.HistorySource
	if scanHistory || cfg.GitHub.Enabled {
		client, err := newHistoryClient(cfg, db, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating GitHub client: %v\n", err)
			os.Exit(1)
		}
		history = client
	}

	var uploader *publish.Uploader
	if scanUpload || cfg.Artifact.Enabled {
		u, err := publish.NewUploader(cfg.Artifact, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error configuring upload: %v\n", err)
			os.Exit(1)
		}
		uploader = u
	}

	s := &scanner{
		cfg:        cfg,
		logger:     logger,
		store:      docs.NewStore(db),
		history:    history,
		uploader:   uploader,
		resultsDir: resultsDir,
		mode:       abortMode(cfg, scanLenient),
	}

	response := &ScanResponseCLI{ResultsFolder: resultsDir}
	for _, entry := range docsets {
		if ctx.Err() != nil {
			break
		}
		result, err := s.scanDocset(ctx, entry)
		if err != nil {
			response.Skipped = append(response.Skipped, SkippedDocsetCLI{
				Docset: entry.Repo,
				Code:   string(errors.CodeOf(err)),
				Reason: err.Error(),
			})
			continue
		}
		response.Docsets = append(response.Docsets, *result)
	}
	response.DurationMs = time.Since(start).Milliseconds()

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "Scan interrupted")
		os.Exit(1)
	}

	output, err := FormatResponse(response, OutputFormat(scanFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func abortMode(cfg *config.Config, lenient bool) docs.AbortMode {
	if lenient || !cfg.StrictAbort {
		return docs.SkipLine
	}
	return docs.AbortDocument
}

// newHistoryClient builds a GitHub client whose commit cache persists in db.
func newHistoryClient(cfg *config.Config, db *storage.DB, logger *logging.Logger) (*github.Client, error) {
	var store *storage.Cache
	if db != nil {
		store = storage.NewCache(db)
		if n, err := store.PurgeExpired(); err == nil && n > 0 {
			logger.Debug("Purged expired commit cache entries", map[string]interface{}{
				logging.FieldDetail: n,
			})
		}
	}

	cache, err := github.NewCommitCache(cfg.GitHub.CacheSize, store,
		time.Duration(cfg.GitHub.CacheTtlSeconds)*time.Second, logger)
	if err != nil {
		return nil, err
	}

	return github.NewClient(github.Config{
		APIBaseURL: cfg.GitHub.APIBaseURL,
		User:       cfg.GitHub.User,
		Token:      cfg.GitHub.Token,
		Timeout:    time.Duration(cfg.GitHub.TimeoutMs) * time.Millisecond,
	}, cache, logger), nil
}

// scanner runs the inventory for one docset at a time.
type scanner struct {
	cfg        *config.Config
	logger     *logging.Logger
	store      *docs.Store
	history    docs.HistorySource
	uploader   *publish.Uploader
	resultsDir string
	mode       docs.AbortMode
}

func (s *scanner) scanDocset(ctx context.Context, entry config.Docset) (*DocsetResultCLI, error) {
	start := time.Now()

	ds, err := docset.Load(entry, s.cfg.Metadata.Fields, s.logger)
	if err != nil {
		level := s.logger.Warn
		if errors.Is(err, errors.DocsetSkipped) {
			level = s.logger.Info
		}
		level("Skipping docset", map[string]interface{}{
			logging.FieldDetail: err.Error(),
			logging.FieldItem:   entry.Repo,
		})
		return nil, err
	}

	s.logger.Info("Processing docset", map[string]interface{}{
		logging.FieldDetail: ds.Folder,
		logging.FieldItem:   ds.Name(),
	})

	indexer := docs.NewIndexer(ds.Target(), s.logger, docs.IndexerConfig{
		Mode:    s.mode,
		Workers: s.cfg.Workers,
		Fields:  s.cfg.Metadata.Fields,
	})
	inv, err := indexer.IndexAll(ctx)
	if err != nil {
		return nil, errors.New(errors.InternalError, "Docset scan failed", err)
	}

	result := &DocsetResultCLI{
		Docset:          ds.Name(),
		FilesScanned:    inv.Stats.FilesScanned,
		FilesFailed:     inv.Stats.FilesFailed,
		References:      inv.Stats.ReferencesFound,
		Unresolved:      inv.Stats.Unresolved,
		AbortedDocs:     inv.Stats.AbortedDocs,
		MissingMetadata: inv.Stats.MissingMetadata,
		EncodingSuspect: inv.Stats.EncodingSuspect,
	}

	if s.history != nil {
		checker := docs.NewStalenessChecker(s.history, s.localCommits(ctx, ds.Folder), s.logger)
		report, err := checker.CheckRows(ctx, inv.Rows)
		if err != nil {
			return nil, errors.New(errors.Timeout, "Commit history lookup interrupted", err)
		}
		inv.Enriched = true
		result.History = &report
	}

	outPath, err := export.NextPath(s.resultsDir, ds.Config.Repo, time.Now())
	if err != nil {
		return nil, errors.New(errors.InternalError, "Failed to choose output file", err)
	}
	s.logger.Info("Writing results", map[string]interface{}{
		logging.FieldItem: outPath,
	})
	if err := export.WriteFile(outPath, inv.Rows, export.Options{WithHistory: inv.Enriched}); err != nil {
		return nil, errors.New(errors.InternalError, "Failed to write inventory", err).
			WithDetails(map[string]interface{}{"path": outPath})
	}
	result.OutputFile = outPath
	if info, err := os.Stat(outPath); err == nil {
		result.OutputBytes = info.Size()
	}

	inv.FinishedAt = time.Now()
	if runID, err := s.store.SaveRun(inv, outPath); err != nil {
		s.logger.Warn("Failed to record run", map[string]interface{}{
			logging.FieldDetail: err.Error(),
			logging.FieldItem:   ds.Name(),
		})
	} else {
		result.RunID = runID
	}

	if s.uploader != nil {
		key, err := s.uploader.Upload(ctx, export.Prefix(ds.Config.Repo), outPath)
		if err != nil {
			s.logger.Error("Failed to upload inventory", map[string]interface{}{
				logging.FieldDetail: err.Error(),
				logging.FieldItem:   filepath.Base(outPath),
			})
		} else {
			result.UploadedKey = key
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// localCommits returns the git adapter for the docset clone, or nil when
// the folder is not a git working tree.
func (s *scanner) localCommits(ctx context.Context, folder string) docs.LocalCommitSource {
	adapter := git.NewAdapter(folder, 0, s.logger)
	if !adapter.IsAvailable(ctx) {
		s.logger.Warn("Docset folder is not a git repository, using today as last local commit", map[string]interface{}{
			logging.FieldItem: folder,
		})
		return nil
	}
	return adapter
}

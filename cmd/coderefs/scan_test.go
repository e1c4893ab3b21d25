package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coderefs/internal/config"
	"coderefs/internal/docs"
	"coderefs/internal/errors"
	"coderefs/internal/logging"
	"coderefs/internal/storage"
)

type stubHistory struct {
	calls []string
}

func (s *stubHistory) CommitHistory(ctx context.Context, fileURL string, since, sinceLocal time.Time) (*docs.CommitHistory, error) {
	s.calls = append(s.calls, fileURL)
	return &docs.CommitHistory{CommitsSinceStart: 1, MostRecent: "10/01/2026", MostRecentURL: "https://github.com/o/r/commit/abc"}, nil
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupScan(t *testing.T, history docs.HistorySource) (*scanner, config.Docset, *storage.DB) {
	t.Helper()

	root := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(root))

	writeFixture(t, filepath.Join(root, ".openpublishing.publish.config.json"), `{
  "dependent_repositories": [
    {"path_to_root": "samples", "url": "https://github.com/o/r", "branch": "main"}
  ]
}`)
	writeFixture(t, filepath.Join(root, "articles", "b.md"), strings.Join([]string{
		"---",
		"ms.author: bauthor",
		"ms.date: 01/15/2024",
		"---",
		`:::code language="csharp" source="~/samples/src/B.cs" id="main":::`,
	}, "\n"))
	writeFixture(t, filepath.Join(root, "articles", "a.md"), strings.Join([]string{
		"---",
		"ms.author: aauthor",
		"---",
		`:::code source="~/samples/src/A.cs" range="1-5":::`,
		`:::code source="~/missing/src/X.cs":::`,
	}, "\n"))
	writeFixture(t, filepath.Join(root, "articles", "includes", "skip.md"), `:::code source="~/samples/skip.cs":::`)

	results := t.TempDir()
	db, err := storage.Open(results, logging.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.DefaultConfig()
	entry := config.Docset{
		Repo:           "MicrosoftDocs/test-docs",
		Path:           root,
		URL:            "https://learn.example.com/test",
		ExcludeFolders: []string{"includes"},
	}
	cfg.Content = []config.Docset{entry}

	s := &scanner{
		cfg:        cfg,
		logger:     logging.NewDiscardLogger(),
		store:      docs.NewStore(db),
		history:    history,
		resultsDir: results,
		mode:       docs.AbortDocument,
	}
	return s, entry, db
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestScanDocset(t *testing.T) {
	s, entry, _ := setupScan(t, nil)

	result, err := s.scanDocset(context.Background(), entry)
	if err != nil {
		t.Fatalf("scanDocset: %v", err)
	}

	if result.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2 (includes excluded)", result.FilesScanned)
	}
	if result.References != 3 || result.Unresolved != 1 {
		t.Errorf("References = %d, Unresolved = %d, want 3 and 1", result.References, result.Unresolved)
	}
	if result.History != nil {
		t.Error("History should be nil without a history source")
	}
	if result.RunID == "" {
		t.Error("expected a recorded run")
	}

	today := time.Now().Format("2006-01-02")
	if want := "test-docs_" + today + "-0001.csv"; filepath.Base(result.OutputFile) != want {
		t.Errorf("OutputFile = %s, want %s", filepath.Base(result.OutputFile), want)
	}

	records := readCSV(t, result.OutputFile)
	if len(records) != 4 {
		t.Fatalf("expected header and 3 rows, got %d records", len(records))
	}
	if len(records[0]) != 10 {
		t.Errorf("header has %d columns, want 10", len(records[0]))
	}
	if !strings.HasSuffix(records[1][1], filepath.Join("articles", "a.md")) {
		t.Errorf("rows should be sorted by file, first is %s", records[1][1])
	}
	if records[1][9] != "https://github.com/o/r/blob/main/src/A.cs" {
		t.Errorf("refUrl = %q", records[1][9])
	}
	if records[2][9] != "" {
		t.Errorf("unresolved refUrl = %q, want empty", records[2][9])
	}
	if records[3][2] != "https://learn.example.com/test/b" {
		t.Errorf("url = %q", records[3][2])
	}

	rows, err := s.store.GetRows(result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("stored %d rows, want 3", len(rows))
	}

	second, err := s.scanDocset(context.Background(), entry)
	if err != nil {
		t.Fatal(err)
	}
	if want := "test-docs_" + today + "-0002.csv"; filepath.Base(second.OutputFile) != want {
		t.Errorf("second OutputFile = %s, want %s", filepath.Base(second.OutputFile), want)
	}
}

func TestScanDocset_History(t *testing.T) {
	history := &stubHistory{}
	s, entry, _ := setupScan(t, history)

	result, err := s.scanDocset(context.Background(), entry)
	if err != nil {
		t.Fatalf("scanDocset: %v", err)
	}

	if result.History == nil {
		t.Fatal("expected a history report")
	}
	if result.History.Checked != 2 || result.History.Unresolved != 1 || result.History.Stale != 2 {
		t.Errorf("report = %+v", *result.History)
	}
	if len(history.calls) != 2 {
		t.Errorf("history lookups = %d, want 2", len(history.calls))
	}

	records := readCSV(t, result.OutputFile)
	if len(records[0]) != 14 {
		t.Fatalf("header has %d columns, want 14", len(records[0]))
	}
	if records[1][10] != "1" || records[1][12] != "10/01/2026" {
		t.Errorf("history columns = %v", records[1][10:])
	}
}

func TestScanDocset_Skipped(t *testing.T) {
	s, entry, _ := setupScan(t, nil)

	disabled := entry
	disabled.Disabled = true
	if _, err := s.scanDocset(context.Background(), disabled); !errors.Is(err, errors.DocsetSkipped) {
		t.Errorf("disabled docset: got %v, want DOCSET_SKIPPED", err)
	}

	malformed := entry
	malformed.URL = ""
	if _, err := s.scanDocset(context.Background(), malformed); !errors.Is(err, errors.ConfigInvalid) {
		t.Errorf("malformed docset: got %v, want CONFIG_INVALID", err)
	}
}

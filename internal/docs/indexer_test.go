package docs

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"coderefs/internal/logging"
)

func setupDocset(t *testing.T) (Target, string) {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "articles", "functions", "quickstart.md"), strings.Join([]string{
		"---",
		"title: Quickstart",
		"ms.author: alice",
		"ms.date: 03/15/2024",
		"---",
		"# Quickstart",
		`:::code language="java" source="~/samples/src/Function.java" range="3-9":::`,
		`:::code language="java" source="~/missing-repo/src/Other.java":::`,
	}, "\n"))

	writeFile(t, filepath.Join(root, "articles", "aborted.md"), strings.Join([]string{
		"---",
		"ms.author: bob",
		"---",
		`:::code source="~/samples/a.java" id="one":::`,
		`:::code source="../local/b.java":::`,
		`:::code source="~/samples/c.java" id="three":::`,
	}, "\n"))

	writeFile(t, filepath.Join(root, "articles", "nometa.md"), "Plain text\n"+
		`:::code source="~/../samples/src/Function.java" id="main":::`+"\n")

	writeFile(t, filepath.Join(root, "articles", "includes", "inc.md"),
		`:::code source="~/samples/include.java":::`+"\n")

	repos, err := NewRepoTable([]RepositoryEntry{
		{PathToRoot: "samples", URL: "https://github.com/Azure-Samples/java", Branch: "main"},
	})
	if err != nil {
		t.Fatal(err)
	}

	defaults := NewFolderDefaults()
	defaults.Add("ms.reviewer", "**/*.md", "carol", []string{
		filepath.Join(root, "articles", "functions", "quickstart.md"),
		filepath.Join(root, "articles", "nometa.md"),
	})

	return Target{
		Name:     "MicrosoftDocs/azure-docs",
		Root:     root,
		BaseURL:  "https://learn.microsoft.com/azure",
		Excludes: []string{"includes"},
		Repos:    repos,
		Defaults: defaults,
	}, root
}

func TestIndexer_IndexAll(t *testing.T) {
	target, root := setupDocset(t)

	var logs bytes.Buffer
	logger := logging.NewLogger(logging.Config{Format: logging.CSVFormat, Level: logging.DebugLevel, Output: &logs})

	idx := NewIndexer(target, logger, DefaultIndexerConfig())
	inv, err := idx.IndexAll(context.Background())
	if err != nil {
		t.Fatalf("IndexAll: %v", err)
	}

	if inv.Stats.FilesScanned != 3 {
		t.Errorf("FilesScanned = %d, want 3", inv.Stats.FilesScanned)
	}
	if inv.Stats.AbortedDocs != 1 {
		t.Errorf("AbortedDocs = %d, want 1", inv.Stats.AbortedDocs)
	}
	if inv.Stats.MissingMetadata != 1 {
		t.Errorf("MissingMetadata = %d, want 1", inv.Stats.MissingMetadata)
	}
	if inv.Stats.ReferencesFound != 3 || inv.Stats.Unresolved != 1 {
		t.Errorf("ReferencesFound = %d, Unresolved = %d", inv.Stats.ReferencesFound, inv.Stats.Unresolved)
	}

	if len(inv.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(inv.Rows))
	}

	quick := filepath.Join(root, "articles", "functions", "quickstart.md")
	nometa := filepath.Join(root, "articles", "nometa.md")

	// Sorted by file path; quickstart rows keep line order.
	wantFiles := []string{quick, quick, nometa}
	if quick > nometa {
		wantFiles = []string{nometa, quick, quick}
	}
	for i, f := range wantFiles {
		if inv.Rows[i].File != f {
			t.Errorf("row %d file = %s, want %s", i, inv.Rows[i].File, f)
		}
	}

	var rangeRow, unresolved, escaped *Row
	for i := range inv.Rows {
		r := &inv.Rows[i]
		switch {
		case r.RefType == KindByRange:
			rangeRow = r
		case r.File == quick && r.RefType == KindWholeFile:
			unresolved = r
		case r.File == nometa:
			escaped = r
		}
	}
	if rangeRow == nil || unresolved == nil || escaped == nil {
		t.Fatalf("missing expected rows: %+v", inv.Rows)
	}

	if rangeRow.URL != "https://learn.microsoft.com/azure/functions/quickstart" {
		t.Errorf("URL = %q", rangeRow.URL)
	}
	if rangeRow.Author != "alice" || rangeRow.Reviewer != "carol" || rangeRow.Date != "03/15/2024" {
		t.Errorf("metadata = %s/%s/%s", rangeRow.Author, rangeRow.Reviewer, rangeRow.Date)
	}
	if rangeRow.RefLine != 7 || rangeRow.RefDetail != "'3-9'" {
		t.Errorf("RefLine = %d, RefDetail = %q", rangeRow.RefLine, rangeRow.RefDetail)
	}
	if rangeRow.RefURL != "https://github.com/Azure-Samples/java/blob/main/src/Function.java" {
		t.Errorf("RefURL = %q", rangeRow.RefURL)
	}
	if unresolved.RefURL != "" || unresolved.RefLine != 8 {
		t.Errorf("unresolved row = %+v", unresolved)
	}
	if escaped.Author != UnknownValue || escaped.Reviewer != "carol" || escaped.RefDetail != "main" {
		t.Errorf("escaped row = %+v", escaped)
	}
	if escaped.RefURL != rangeRow.RefURL {
		t.Errorf("escaped RefURL = %q, want %q", escaped.RefURL, rangeRow.RefURL)
	}

	out := logs.String()
	for _, want := range []string{
		"coderefs,WARNING,File contains no metadata,," + nometa,
		"coderefs,WARNING,Code reference uses invalid repo path_to_root,8," + quick,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q\n%s", want, out)
		}
	}
}

func TestIndexer_Lenient(t *testing.T) {
	target, _ := setupDocset(t)

	cfg := DefaultIndexerConfig()
	cfg.Mode = SkipLine
	cfg.Workers = 1

	inv, err := NewIndexer(target, nil, cfg).IndexAll(context.Background())
	if err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	if inv.Stats.AbortedDocs != 0 {
		t.Errorf("AbortedDocs = %d, want 0", inv.Stats.AbortedDocs)
	}
	if len(inv.Rows) != 5 {
		t.Errorf("expected 5 rows with lenient parsing, got %d", len(inv.Rows))
	}
}

func TestIndexer_Canceled(t *testing.T) {
	target, _ := setupDocset(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewIndexer(target, nil, DefaultIndexerConfig()).IndexAll(ctx); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestIndexer_IndexFile(t *testing.T) {
	target, root := setupDocset(t)
	idx := NewIndexer(target, nil, DefaultIndexerConfig())

	res, err := idx.IndexFile(filepath.Join(root, "articles", "aborted.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Scan.Aborted || res.Scan.AbortLine != 5 {
		t.Errorf("scan = %+v", res.Scan)
	}
	if len(res.Rows) != 0 {
		t.Errorf("aborted document produced %d rows", len(res.Rows))
	}
	if res.Meta.Get(FieldAuthor) != "bob" {
		t.Errorf("author = %q", res.Meta.Get(FieldAuthor))
	}
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{File: "b.md", RefLine: 1},
		{File: "a.md", RefLine: 9},
		{File: "b.md", RefLine: 2},
		{File: "a.md", RefLine: 3},
	}
	SortRows(rows)

	want := []struct {
		file string
		line int
	}{{"a.md", 9}, {"a.md", 3}, {"b.md", 1}, {"b.md", 2}}
	for i, w := range want {
		if rows[i].File != w.file || rows[i].RefLine != w.line {
			t.Errorf("row %d = %s:%d, want %s:%d", i, rows[i].File, rows[i].RefLine, w.file, w.line)
		}
	}
}

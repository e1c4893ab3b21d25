package docs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanner_CollectFiles(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"articles/b.md",
		"articles/a.md",
		"articles/sub/c.md",
		"articles/includes/inc.md",
		"articles/media/readme.md",
		"articles/notes.txt",
		"articles/d.markdown",
		".github/template.md",
		"top.md",
	} {
		writeFile(t, filepath.Join(root, rel), "# x\n")
	}

	s := NewScanner(root, []string{"includes", "media"})
	files, err := s.CollectFiles()
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}

	var rel []string
	for _, f := range files {
		rel = append(rel, s.relativePath(f))
	}
	want := []string{"articles/a.md", "articles/b.md", "articles/sub/c.md", "top.md"}
	if !reflect.DeepEqual(rel, want) {
		t.Errorf("CollectFiles = %v, want %v", rel, want)
	}
}

func TestScanner_CollectFilesNoExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "articles", "includes", "inc.md"), "x")

	files, err := NewScanner(root, nil).CollectFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("expected includes to be scanned without excludes, got %v", files)
	}
}

func TestScanner_ReadDocument(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "articles", "good.md")
	bad := filepath.Join(root, "articles", "bad.md")
	writeFile(t, good, "---\nms.author: alice\n---\n")
	writeFile(t, bad, "---\nms.author: caf\xe9\n---\n")

	s := NewScanner(root, nil)

	doc, err := s.ReadDocument(good)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if doc.InvalidUTF8 {
		t.Error("valid file flagged as invalid UTF-8")
	}
	if doc.RelPath != "articles/good.md" {
		t.Errorf("RelPath = %q", doc.RelPath)
	}
	if len(doc.Hash) != 64 {
		t.Errorf("Hash = %q, want sha256 hex", doc.Hash)
	}

	doc, err = s.ReadDocument(bad)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if !doc.InvalidUTF8 {
		t.Error("expected InvalidUTF8")
	}
	fm := ExtractMetadata(doc.Content, bad, nil, DefaultMetadataFields)
	if fm.Fields["ms.author"] != "caf�" {
		t.Errorf("ms.author = %q, want replacement character", fm.Fields["ms.author"])
	}

	if _, err := s.ReadDocument(filepath.Join(root, "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestArticleURL(t *testing.T) {
	tests := []struct {
		base string
		rel  string
		want string
	}{
		{"https://learn.microsoft.com/azure", "articles/functions/quickstart.md", "https://learn.microsoft.com/azure/functions/quickstart"},
		{"https://learn.microsoft.com/azure", "articles/index.md", "https://learn.microsoft.com/azure/index"},
		{"https://learn.microsoft.com/azure", "readme.md", "https://learn.microsoft.com/azure/readme"},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := ArticleURL(tt.base, tt.rel); got != tt.want {
				t.Errorf("ArticleURL(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
			}
		})
	}
}

func TestFolderDefaults(t *testing.T) {
	d := NewFolderDefaults()
	d.Add("ms.author", "articles/**/*.md", "a", []string{"/r/articles/x.md", "/r/articles/sub/y.md"})
	d.Add("ms.author", "articles/sub/*.md", "b", []string{"/r/articles/sub/y.md"})

	if v, ok := d.Lookup("ms.author", "/r/articles/x.md"); !ok || v != "a" {
		t.Errorf("Lookup(x) = %q, %v", v, ok)
	}
	if v, ok := d.Lookup("ms.author", "/r/articles/sub/../sub/y.md"); !ok || v != "b" {
		t.Errorf("Lookup(y) = %q, %v", v, ok)
	}
	if _, ok := d.Lookup("ms.reviewer", "/r/articles/x.md"); ok {
		t.Error("no pattern declared for ms.reviewer")
	}
	if len(d.Patterns("ms.author")) != 2 || d.Fields() != 1 {
		t.Errorf("Patterns = %v, Fields = %d", d.Patterns("ms.author"), d.Fields())
	}
	if !d.Patterns("ms.author")[1].Matches("/r/articles/sub/y.md") {
		t.Error("Matches should report set membership")
	}

	var nilDefaults *FolderDefaults
	if _, ok := nilDefaults.Lookup("ms.author", "/r/articles/x.md"); ok {
		t.Error("nil defaults match nothing")
	}
}

package docs

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	ignore "github.com/sabhiram/go-gitignore"
)

// Scanner reads markdown files from a docset folder.
type Scanner struct {
	root     string
	excludes *ignore.GitIgnore
}

// NewScanner creates a Scanner rooted at the docset folder. Excludes are
// gitignore-style patterns relative to root; a bare folder name such as
// "includes" prunes that folder at any depth.
func NewScanner(root string, excludes []string) *Scanner {
	s := &Scanner{root: root}
	if len(excludes) > 0 {
		s.excludes = ignore.CompileIgnoreLines(excludes...)
	}
	return s
}

// Root returns the docset folder.
func (s *Scanner) Root() string {
	return s.root
}

// ReadDocument reads a file. Undecodable bytes are replaced with U+FFFD and
// the document is flagged instead of failing.
func (s *Scanner) ReadDocument(path string) (Document, error) {
	doc := Document{
		Path:    path,
		RelPath: s.relativePath(path),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}

	doc.Hash = fmt.Sprintf("%x", sha256.Sum256(data))

	if utf8.Valid(data) {
		doc.Content = string(data)
	} else {
		doc.Content = strings.ToValidUTF8(string(data), string(utf8.RuneError))
		doc.InvalidUTF8 = true
	}

	return doc, nil
}

// CollectFiles walks the docset folder and returns every .md file, sorted.
// Hidden directories and excluded folders are pruned.
func (s *Scanner) CollectFiles() ([]string, error) {
	var files []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == s.root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || s.excluded(path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isMarkdown(path) || s.excluded(path, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (s *Scanner) excluded(path string, dir bool) bool {
	if s.excludes == nil {
		return false
	}
	rel := s.relativePath(path)
	if dir {
		rel += "/"
	}
	return s.excludes.MatchesPath(rel)
}

// relativePath converts an absolute path to a docset-relative path with
// forward slashes.
func (s *Scanner) relativePath(path string) string {
	if rel, err := filepath.Rel(s.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// isMarkdown checks if a file is a markdown file.
func isMarkdown(path string) bool {
	return filepath.Ext(path) == ".md"
}

// ArticleURL builds the published URL of an article. The first folder under
// the docset root is the docfx content folder and is not part of the URL,
// nor is the .md extension.
func ArticleURL(baseURL, relPath string) string {
	relPath = strings.TrimSuffix(filepath.ToSlash(relPath), ".md")
	if i := strings.Index(relPath, "/"); i >= 0 {
		return baseURL + relPath[i:]
	}
	return baseURL + "/" + relPath
}

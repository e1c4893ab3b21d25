package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NextFilename returns "{prefix}_{YYYY-MM-DD}-{NNNN}", numbered one above the
// highest existing inventory file in dir for that date. The extension is not
// included.
func NextFilename(dir, prefix string, today time.Time) (string, error) {
	datePrefix := prefix + "_" + today.Format("2006-01-02")
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(datePrefix) + `-([0-9]+)` + regexp.QuoteMeta(Extension) + "$")

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	next := 1
	for _, e := range entries {
		m := pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= next {
			next = n + 1
		}
	}

	return fmt.Sprintf("%s-%04d", datePrefix, next), nil
}

// Prefix returns the file prefix for a docset repo: its last path segment.
func Prefix(repo string) string {
	if i := strings.LastIndex(repo, "/"); i >= 0 {
		return repo[i+1:]
	}
	return repo
}

// NextPath is NextFilename joined with dir, with the extension.
func NextPath(dir, repo string, today time.Time) (string, error) {
	name, err := NextFilename(dir, Prefix(repo), today)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+Extension), nil
}

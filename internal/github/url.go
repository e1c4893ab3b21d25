package github

import (
	"net/url"
	"regexp"
	"strings"

	"coderefs/internal/errors"
)

// DefaultAPIBaseURL is the public GitHub REST endpoint.
const DefaultAPIBaseURL = "https://api.github.com"

// fileURLPattern matches https://github.com/{owner}/{repo}/blob/{branch}/{path}.
// Some docsets write "//blob", hence the optional slash.
var fileURLPattern = regexp.MustCompile(`^https://github\.com/([^/.]+)/([^/.]+)/?/blob/([^/.]+)/(.+)$`)

// FileRef identifies a file on a branch of a GitHub repository.
type FileRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Path   string `json:"path"`
}

// ParseFileURL splits a GitHub blob URL.
func ParseFileURL(fileURL string) (FileRef, error) {
	m := fileURLPattern.FindStringSubmatch(fileURL)
	if m == nil {
		return FileRef{}, errors.New(errors.URLUnrecognized,
			"GitHub file URL does not match expected pattern", nil).
			WithDetails(map[string]interface{}{"url": fileURL})
	}
	return FileRef{Owner: m[1], Repo: m[2], Branch: m[3], Path: m[4]}, nil
}

// HistoryURL returns the commits endpoint listing the history of the file.
func (f FileRef) HistoryURL(apiBase string) string {
	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}
	return strings.TrimSuffix(apiBase, "/") +
		"/repos/" + f.Owner + "/" + f.Repo +
		"/commits?sha=" + queryEscape(f.Branch) +
		"&path=" + queryEscape(f.Path)
}

// queryEscape escapes a query value but keeps path separators readable.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2F", "/")
}

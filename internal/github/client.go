// Package github looks up the commit history of files referenced from docs.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coderefs/internal/docs"
	"coderefs/internal/errors"
	"coderefs/internal/logging"
	"coderefs/internal/version"
)

// Config configures the API client.
type Config struct {
	APIBaseURL string
	User       string
	Token      string
	Timeout    time.Duration
}

// Client calls the GitHub commits API.
type Client struct {
	http   *http.Client
	config Config
	cache  *CommitCache
	logger *logging.Logger
}

// NewClient creates a client. cache may be nil to disable caching.
func NewClient(cfg Config, cache *CommitCache, logger *logging.Logger) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		cache:  cache,
		logger: logger,
	}
}

// Commit is the subset of a commits API entry that is used.
type Commit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// Commits returns the commit listing of a history URL, newest first.
func (c *Client) Commits(ctx context.Context, historyURL string) ([]Commit, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, historyURL)
	}

	var (
		data []byte
		err  error
	)
	if c.cache != nil {
		data, err = c.cache.GetOrFetch(ctx, historyURL, fetch)
	} else {
		data, err = fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	var commits []Commit
	if err := json.Unmarshal(data, &commits); err != nil {
		return nil, errors.New(errors.HistoryUnavailable, "Unexpected commit history response", err).
			WithDetails(map[string]interface{}{"url": historyURL})
	}
	return commits, nil
}

func (c *Client) fetch(ctx context.Context, historyURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, historyURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.config.User != "" || c.config.Token != "" {
		req.SetBasicAuth(c.config.User, c.config.Token)
	}

	c.logger.Debug("Fetching commit history", map[string]interface{}{
		logging.FieldItem: historyURL,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.New(errors.Timeout, "Commit history request canceled", err)
		}
		return nil, errors.New(errors.HistoryUnavailable, "Failed to get commit history", err).
			WithDetails(map[string]interface{}{"url": historyURL})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.HistoryUnavailable, "Failed to read commit history", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.HistoryUnavailable,
			fmt.Sprintf("Failed to get commit history: HTTP %d", resp.StatusCode), nil).
			WithDetails(map[string]interface{}{"url": historyURL, "status": resp.StatusCode})
	}
	return body, nil
}

// CommitHistory implements docs.HistorySource.
func (c *Client) CommitHistory(ctx context.Context, fileURL string, since, sinceLocal time.Time) (*docs.CommitHistory, error) {
	ref, err := ParseFileURL(fileURL)
	if err != nil {
		return nil, err
	}

	commits, err := c.Commits(ctx, ref.HistoryURL(c.config.APIBaseURL))
	if err != nil {
		return nil, err
	}

	h := Summarize(commits, since, sinceLocal)
	return &h, nil
}

// Summarize counts the commits dated strictly after since and sinceLocal.
// Only calendar dates are compared: a sample and its article are often
// updated on the same day. The first commit of the listing is the most
// recent one.
func Summarize(commits []Commit, since, sinceLocal time.Time) docs.CommitHistory {
	var h docs.CommitHistory
	start, local := dateOf(since), dateOf(sinceLocal)

	for i, commit := range commits {
		d := dateOf(commit.Commit.Author.Date)
		if i == 0 {
			h.MostRecent = d.Format(docs.DateLayout)
			h.MostRecentURL = commit.HTMLURL
		}
		if d.After(start) {
			h.CommitsSinceStart++
		}
		if d.After(local) {
			h.CommitsSinceLocal++
		}
	}
	return h
}

func dateOf(t time.Time) time.Time {
	if t.IsZero() {
		return dateOf(docs.DefaultStartDate)
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

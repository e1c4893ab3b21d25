package docs

import (
	"context"
	"time"

	"coderefs/internal/logging"
)

// DateLayout is the ms.date format and the format of history dates.
const DateLayout = "01/02/2006"

// DefaultStartDate is used when an article has no usable date.
var DefaultStartDate = time.Date(1975, 4, 4, 0, 0, 0, 0, time.UTC)

// HistorySource looks up the upstream commit history of a referenced file.
// Commits are counted when their date is strictly after since (and
// sinceLocal for CommitsSinceLocal).
type HistorySource interface {
	CommitHistory(ctx context.Context, fileURL string, since, sinceLocal time.Time) (*CommitHistory, error)
}

// LocalCommitSource returns the last local commit date of an article.
type LocalCommitSource interface {
	LastCommitDate(ctx context.Context, path string) (time.Time, error)
}

// StalenessChecker enriches inventory rows with the commit history of the
// code they reference, so snippets changed upstream since the article was
// last touched stand out.
type StalenessChecker struct {
	history HistorySource
	local   LocalCommitSource
	logger  *logging.Logger
	now     func() time.Time
}

// NewStalenessChecker creates a new staleness checker. local may be nil, in
// which case today's date stands in for every article.
func NewStalenessChecker(history HistorySource, local LocalCommitSource, logger *logging.Logger) *StalenessChecker {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &StalenessChecker{
		history: history,
		local:   local,
		logger:  logger,
		now:     time.Now,
	}
}

// StalenessReport summarizes an enrichment pass.
type StalenessReport struct {
	Checked    int       `json:"checked"`
	Stale      int       `json:"stale"`      // Upstream commits after the article date
	Unresolved int       `json:"unresolved"` // No file URL to look up
	Failed     int       `json:"failed"`
	CheckedAt  time.Time `json:"checked_at"`
}

// CheckRows sets History on every resolved row. Lookups are best effort:
// a failed lookup leaves the row without history.
func (c *StalenessChecker) CheckRows(ctx context.Context, rows []Row) (StalenessReport, error) {
	report := StalenessReport{CheckedAt: c.now()}
	localDates := make(map[string]time.Time)

	for idx := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		row := &rows[idx]

		if row.RefURL == "" {
			report.Unresolved++
			continue
		}

		local, ok := localDates[row.File]
		if !ok {
			local = c.lastLocalCommit(ctx, row.File)
			localDates[row.File] = local
		}
		row.LocalDate = local.Format(DateLayout)

		history, err := c.history.CommitHistory(ctx, row.RefURL, c.startDate(row), local)
		if err != nil {
			report.Failed++
			c.logger.Warn("Failed to get commit history", map[string]interface{}{
				logging.FieldDetail: err.Error(),
				logging.FieldItem:   row.RefURL,
			})
			continue
		}

		row.History = history
		report.Checked++
		if history.CommitsSinceStart > 0 {
			report.Stale++
		}
	}

	return report, nil
}

// startDate parses the article's ms.date.
func (c *StalenessChecker) startDate(row *Row) time.Time {
	if row.Date == "" || row.Date == UnknownValue {
		return DefaultStartDate
	}
	t, err := time.Parse(DateLayout, row.Date)
	if err != nil {
		c.logger.Debug("Unparseable ms.date, counting all commits", map[string]interface{}{
			logging.FieldDetail: row.Date,
			logging.FieldItem:   row.File,
		})
		return DefaultStartDate
	}
	return t
}

func (c *StalenessChecker) lastLocalCommit(ctx context.Context, path string) time.Time {
	today := c.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if c.local == nil {
		return today
	}

	t, err := c.local.LastCommitDate(ctx, path)
	if err != nil {
		c.logger.Warn("Could not obtain last local commit on article", map[string]interface{}{
			logging.FieldDetail: err.Error(),
			logging.FieldItem:   path,
		})
		return today
	}
	return t
}

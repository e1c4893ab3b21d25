package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"coderefs/internal/docs"
)

// Write writes the header and one record per row.
func Write(w io.Writer, rows []docs.Row, opts Options) error {
	cw := csv.NewWriter(w)

	header := Header
	if opts.WithHistory {
		header = append(append([]string{}, Header...), HistoryHeader...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		if err := cw.Write(Record(row, opts)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Record converts a row to CSV fields.
func Record(row docs.Row, opts Options) []string {
	rec := []string{
		row.Docset,
		row.File,
		row.URL,
		row.Author,
		row.Reviewer,
		row.Date,
		strconv.Itoa(row.RefLine),
		string(row.RefType),
		row.RefDetail,
		row.RefURL,
	}
	if !opts.WithHistory {
		return rec
	}

	if h := row.History; h != nil {
		return append(rec,
			strconv.Itoa(h.CommitsSinceStart),
			strconv.Itoa(h.CommitsSinceLocal),
			h.MostRecent,
			h.MostRecentURL,
		)
	}
	return append(rec, "", "", "", "")
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows []docs.Row, opts Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Write(f, rows, opts)
}

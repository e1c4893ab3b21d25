package docs

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"coderefs/internal/logging"
)

// Metadata fields with dedicated inventory columns.
const (
	FieldAuthor   = "ms.author"
	FieldReviewer = "ms.reviewer"
	FieldDate     = "ms.date"
)

// Indexer scans a docset and assembles its inventory rows.
type Indexer struct {
	target  Target
	scanner *Scanner
	logger  *logging.Logger
	config  IndexerConfig
}

// IndexerConfig contains configuration for the indexer.
type IndexerConfig struct {
	Mode    AbortMode
	Workers int      // Files processed concurrently; 0 means GOMAXPROCS
	Fields  []string // Metadata fields to default
}

// DefaultIndexerConfig returns the default indexer configuration.
func DefaultIndexerConfig() IndexerConfig {
	return IndexerConfig{
		Mode:    AbortDocument,
		Workers: 4,
		Fields:  DefaultMetadataFields,
	}
}

// NewIndexer creates a new indexer.
func NewIndexer(target Target, logger *logging.Logger, config IndexerConfig) *Indexer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if len(config.Fields) == 0 {
		config.Fields = DefaultMetadataFields
	}
	return &Indexer{
		target:  target,
		scanner: NewScanner(target.Root, target.Excludes),
		logger:  logger,
		config:  config,
	}
}

// FileResult is everything extracted from one article.
type FileResult struct {
	Doc  Document      `json:"doc"`
	Meta FrontMatter   `json:"metadata"`
	Scan ReferenceScan `json:"scan"`
	Rows []Row         `json:"rows"`
}

// IndexAll scans every markdown file of the docset. Files that cannot be
// read are logged and counted; they never fail the run.
func (i *Indexer) IndexAll(ctx context.Context) (*Inventory, error) {
	inv := &Inventory{
		Docset:    i.target.Name,
		StartedAt: time.Now(),
	}

	files, err := i.scanner.CollectFiles()
	if err != nil {
		return nil, err
	}

	workers := i.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for idx, path := range files {
		idx, path := idx, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := i.IndexFile(path)
			if err != nil {
				i.logger.Warn("Could not read file", map[string]interface{}{
					logging.FieldDetail: err.Error(),
					logging.FieldItem:   path,
				})
				return nil
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		if res == nil {
			inv.Stats.FilesFailed++
			continue
		}
		inv.Stats.FilesScanned++
		if res.Scan.Aborted {
			inv.Stats.AbortedDocs++
		}
		if !res.Meta.HasFrontMatter {
			inv.Stats.MissingMetadata++
		}
		if res.Meta.SuspectEncoding || res.Doc.InvalidUTF8 {
			inv.Stats.EncodingSuspect++
		}
		for _, row := range res.Rows {
			inv.Stats.ReferencesFound++
			if row.RefURL == "" {
				inv.Stats.Unresolved++
			}
		}
		inv.Rows = append(inv.Rows, res.Rows...)
	}

	i.logger.Info("Sorting results by filename", nil)
	SortRows(inv.Rows)

	inv.FinishedAt = time.Now()
	inv.Duration = inv.FinishedAt.Sub(inv.StartedAt)
	return inv, nil
}

// IndexFile extracts metadata and references from a single article and
// logs its diagnostics.
func (i *Indexer) IndexFile(path string) (*FileResult, error) {
	doc, err := i.scanner.ReadDocument(path)
	if err != nil {
		return nil, err
	}

	res := &FileResult{Doc: doc}
	res.Meta = ExtractMetadata(doc.Content, path, i.target.Defaults, i.config.Fields)
	res.Scan = FindReferences(doc.Content, i.target.Repos, i.config.Mode)

	if doc.InvalidUTF8 || res.Meta.SuspectEncoding {
		i.logger.Warn("File is not utf-8 encoded", map[string]interface{}{
			logging.FieldItem: path,
		})
	}
	if !res.Meta.HasFrontMatter {
		i.logger.Warn("File contains no metadata", map[string]interface{}{
			logging.FieldItem: path,
		})
	}
	if res.Scan.Aborted {
		i.logger.Debug("Stopped scanning at non-external code directive", map[string]interface{}{
			logging.FieldDetail: res.Scan.AbortLine,
			logging.FieldItem:   path,
			"reason":            res.Scan.AbortReason,
		})
	}
	for _, sk := range res.Scan.Skipped {
		i.logger.Debug("Skipped non-external code directive", map[string]interface{}{
			logging.FieldDetail: sk.Line,
			logging.FieldItem:   path,
			"reason":            sk.Reason,
		})
	}

	url := ArticleURL(i.target.BaseURL, doc.RelPath)
	for _, ref := range res.Scan.References {
		if ref.Resolved == nil {
			i.logger.Warn("Code reference uses invalid repo path_to_root", map[string]interface{}{
				logging.FieldDetail: ref.Line,
				logging.FieldItem:   path,
			})
		}
		res.Rows = append(res.Rows, Row{
			Docset:     i.target.Name,
			File:       path,
			URL:        url,
			Author:     res.Meta.Get(FieldAuthor),
			Reviewer:   res.Meta.Get(FieldReviewer),
			Date:       res.Meta.Get(FieldDate),
			RefLine:    ref.Line,
			RefType:    ref.Kind,
			RefDetail:  ref.Detail,
			RefURL:     ref.FileURL(),
			SourcePath: path,
		})
	}

	return res, nil
}

// SortRows orders rows by file path. Rows of the same file keep their
// relative order, which is line order.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].File < rows[b].File
	})
}

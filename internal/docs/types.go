// Package docs finds external code references in documentation and builds
// the inventory rows for them. It answers "which external repositories does
// this docset pull snippets from, and from which articles?"
package docs

import "time"

// RefKind is how a :::code directive selects code from the source file.
type RefKind string

const (
	KindByID      RefKind = "id"         // id="snippet1"
	KindByRange   RefKind = "range"      // range="10-20"
	KindWholeFile RefKind = "whole_file" // neither
)

// AbortMode controls what happens when a :::code directive is not an
// external reference.
type AbortMode int

const (
	// AbortDocument stops scanning the document and discards every reference
	// found in it.
	AbortDocument AbortMode = iota
	// SkipLine ignores the offending directive and keeps scanning.
	SkipLine
)

// String returns the config-facing name of the mode.
func (m AbortMode) String() string {
	if m == SkipLine {
		return "skip_line"
	}
	return "abort_document"
}

// Reasons a directive is not an external reference.
const (
	ReasonNoSource        = "directive has no source property"
	ReasonNotExternal     = "source is not rooted at ~/"
	ReasonMalformedSource = "source has no repository path"
)

// UnknownValue is substituted for metadata fields with no value.
const UnknownValue = "~"

// RepositoryEntry is one external repository reachable under a virtual root.
type RepositoryEntry struct {
	PathToRoot string `json:"path_to_root"`
	URL        string `json:"url"`
	Branch     string `json:"branch"`
}

// ResolvedTarget is the concrete file a reference points at.
type ResolvedTarget struct {
	FileURL      string `json:"file_url"`
	RepoURL      string `json:"repo_url"`
	Branch       string `json:"branch"`
	RelativePath string `json:"relative_path"`
}

// CodeReference is one :::code directive occurrence.
type CodeReference struct {
	Line       int               `json:"line"` // 1-indexed
	Kind       RefKind           `json:"kind"`
	Detail     string            `json:"detail"`
	Source     string            `json:"source"`
	RepoID     string            `json:"repo_id"`
	Path       string            `json:"path"`
	Properties map[string]string `json:"properties,omitempty"`
	Resolved   *ResolvedTarget   `json:"resolved,omitempty"` // nil if no repository matched
}

// FileURL returns the resolved file URL or "".
func (r CodeReference) FileURL() string {
	if r.Resolved == nil {
		return ""
	}
	return r.Resolved.FileURL
}

// SkippedLine records a directive dropped under SkipLine.
type SkippedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ReferenceScan is the result of scanning one document for references.
type ReferenceScan struct {
	References  []CodeReference `json:"references"`
	Aborted     bool            `json:"aborted"`
	AbortLine   int             `json:"abort_line,omitempty"`
	AbortReason string          `json:"abort_reason,omitempty"`
	Skipped     []SkippedLine   `json:"skipped,omitempty"`
}

// Metadata maps front matter keys to values.
type Metadata map[string]string

// FrontMatter is the metadata extracted for one document.
type FrontMatter struct {
	Fields          Metadata `json:"fields"`
	HasFrontMatter  bool     `json:"has_front_matter"`
	SuspectEncoding bool     `json:"suspect_encoding"` // BOM-prefixed delimiter
}

// Get returns a field value, or UnknownValue when absent.
func (f FrontMatter) Get(field string) string {
	if v, ok := f.Fields[field]; ok {
		return v
	}
	return UnknownValue
}

// Document is a markdown file read from disk.
type Document struct {
	Path        string `json:"path"`     // Absolute path
	RelPath     string `json:"rel_path"` // Relative to the docset folder, forward slashes
	Content     string `json:"-"`
	Hash        string `json:"hash"`         // SHA256 of the raw bytes
	InvalidUTF8 bool   `json:"invalid_utf8"` // Undecodable bytes were replaced
}

// CommitHistory summarizes the upstream commits of a referenced file.
type CommitHistory struct {
	CommitsSinceStart int    `json:"commits_since_start"`
	CommitsSinceLocal int    `json:"commits_since_local"`
	MostRecent        string `json:"most_recent"` // MM/DD/YYYY
	MostRecentURL     string `json:"most_recent_url"`
}

// Row is one line of the inventory: a single reference in a single article.
type Row struct {
	Docset     string         `json:"docset" yaml:"docset"`
	File       string         `json:"file" yaml:"file"`
	URL        string         `json:"url" yaml:"url"`
	Author     string         `json:"author" yaml:"author"`
	Reviewer   string         `json:"reviewer" yaml:"reviewer"`
	Date       string         `json:"date" yaml:"date"`
	RefLine    int            `json:"ref_line" yaml:"ref_line"`
	RefType    RefKind        `json:"ref_type" yaml:"ref_type"`
	RefDetail  string         `json:"ref_detail" yaml:"ref_detail"`
	RefURL     string         `json:"ref_url" yaml:"ref_url"`
	History    *CommitHistory `json:"history,omitempty" yaml:"history,omitempty"`
	LocalDate  string         `json:"-" yaml:"-"` // last local commit of the article, MM/DD/YYYY
	SourcePath string         `json:"-" yaml:"-"` // absolute article path
}

// IndexStats contains statistics from a docset scan.
type IndexStats struct {
	FilesScanned    int `json:"files_scanned"`
	FilesFailed     int `json:"files_failed"`
	ReferencesFound int `json:"references_found"`
	Unresolved      int `json:"unresolved"`
	AbortedDocs     int `json:"aborted_docs"`
	MissingMetadata int `json:"missing_metadata"`
	EncodingSuspect int `json:"encoding_suspect"`
}

// Inventory is the complete result of scanning one docset.
type Inventory struct {
	RunID      string        `json:"run_id,omitempty"`
	Docset     string        `json:"docset"`
	Rows       []Row         `json:"rows"`
	Stats      IndexStats    `json:"stats"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Enriched   bool          `json:"enriched"`
	Duration   time.Duration `json:"-"`
}

// Target is everything the indexer needs to know about one docset.
type Target struct {
	Name     string          // Repo name as configured, e.g. MicrosoftDocs/azure-docs
	Root     string          // Docset folder on disk
	BaseURL  string          // Published site URL
	Excludes []string        // gitignore-style folder exclusions
	Repos    *RepoTable      // dependent repositories
	Defaults *FolderDefaults // docfx fileMetadata, may be nil
}

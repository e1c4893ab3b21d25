package main

import "coderefs/internal/docs"

// ScanResponseCLI is the output of scan.
type ScanResponseCLI struct {
	ResultsFolder string             `json:"resultsFolder" yaml:"resultsFolder"`
	Docsets       []DocsetResultCLI  `json:"docsets" yaml:"docsets"`
	Skipped       []SkippedDocsetCLI `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	DurationMs    int64              `json:"durationMs" yaml:"durationMs"`
}

// DocsetResultCLI summarizes one scanned docset.
type DocsetResultCLI struct {
	Docset          string                `json:"docset" yaml:"docset"`
	RunID           string                `json:"runId,omitempty" yaml:"runId,omitempty"`
	OutputFile      string                `json:"outputFile" yaml:"outputFile"`
	OutputBytes     int64                 `json:"outputBytes" yaml:"outputBytes"`
	UploadedKey     string                `json:"uploadedKey,omitempty" yaml:"uploadedKey,omitempty"`
	FilesScanned    int                   `json:"filesScanned" yaml:"filesScanned"`
	FilesFailed     int                   `json:"filesFailed" yaml:"filesFailed"`
	References      int                   `json:"references" yaml:"references"`
	Unresolved      int                   `json:"unresolved" yaml:"unresolved"`
	AbortedDocs     int                   `json:"abortedDocs" yaml:"abortedDocs"`
	MissingMetadata int                   `json:"missingMetadata" yaml:"missingMetadata"`
	EncodingSuspect int                   `json:"encodingSuspect" yaml:"encodingSuspect"`
	History         *docs.StalenessReport `json:"history,omitempty" yaml:"history,omitempty"`
	DurationMs      int64                 `json:"durationMs" yaml:"durationMs"`
}

// SkippedDocsetCLI is a docset that could not be scanned.
type SkippedDocsetCLI struct {
	Docset string `json:"docset" yaml:"docset"`
	Code   string `json:"code" yaml:"code"`
	Reason string `json:"reason" yaml:"reason"`
}

// FileResponseCLI is the output of file.
type FileResponseCLI struct {
	Path            string             `json:"path" yaml:"path"`
	Docset          string             `json:"docset" yaml:"docset"`
	URL             string             `json:"url" yaml:"url"`
	Hash            string             `json:"hash" yaml:"hash"`
	Metadata        docs.Metadata      `json:"metadata" yaml:"metadata"`
	HasFrontMatter  bool               `json:"hasFrontMatter" yaml:"hasFrontMatter"`
	SuspectEncoding bool               `json:"suspectEncoding" yaml:"suspectEncoding"`
	References      []RefCLI           `json:"references" yaml:"references"`
	Aborted         bool               `json:"aborted" yaml:"aborted"`
	AbortLine       int                `json:"abortLine,omitempty" yaml:"abortLine,omitempty"`
	AbortReason     string             `json:"abortReason,omitempty" yaml:"abortReason,omitempty"`
	Skipped         []docs.SkippedLine `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// RefCLI is one :::code reference.
type RefCLI struct {
	Line    int    `json:"line" yaml:"line"`
	Kind    string `json:"kind" yaml:"kind"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Source  string `json:"source" yaml:"source"`
	FileURL string `json:"fileUrl,omitempty" yaml:"fileUrl,omitempty"`
}

// HistoryResponseCLI is the output of history.
type HistoryResponseCLI struct {
	FileURL    string             `json:"fileUrl" yaml:"fileUrl"`
	HistoryURL string             `json:"historyUrl" yaml:"historyUrl"`
	Since      string             `json:"since" yaml:"since"`
	SinceLocal string             `json:"sinceLocal" yaml:"sinceLocal"`
	History    docs.CommitHistory `json:"history" yaml:"history"`
}

// RunsResponseCLI is the output of runs.
type RunsResponseCLI struct {
	Runs  []docs.RunRecord `json:"runs" yaml:"runs"`
	Count int              `json:"count" yaml:"count"`
}

// RowsResponseCLI holds stored inventory rows.
type RowsResponseCLI struct {
	RunID string     `json:"runId,omitempty" yaml:"runId,omitempty"`
	Rows  []docs.Row `json:"rows" yaml:"rows"`
	Count int        `json:"count" yaml:"count"`
}

// RemoteResponseCLI lists uploaded inventories.
type RemoteResponseCLI struct {
	Bucket string   `json:"bucket" yaml:"bucket"`
	Docset string   `json:"docset" yaml:"docset"`
	Keys   []string `json:"keys" yaml:"keys"`
}

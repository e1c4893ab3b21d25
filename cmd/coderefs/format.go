package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// printResponse formats and prints resp, exiting on error.
func printResponse(resp interface{}, format string) {
	output, err := FormatResponse(resp, OutputFormat(format))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ScanResponseCLI:
		return formatScanHuman(v), nil
	case *FileResponseCLI:
		return formatFileHuman(v), nil
	case *HistoryResponseCLI:
		return formatHistoryHuman(v), nil
	case *RunsResponseCLI:
		return formatRunsHuman(v, time.Now()), nil
	case *RowsResponseCLI:
		return formatRowsHuman(v), nil
	case *RemoteResponseCLI:
		return formatRemoteHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatScanHuman(resp *ScanResponseCLI) string {
	var b strings.Builder

	b.WriteString("Code Reference Inventory\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, d := range resp.Docsets {
		b.WriteString(fmt.Sprintf("%s\n", d.Docset))
		b.WriteString(fmt.Sprintf("  Files: %s scanned", humanize.Comma(int64(d.FilesScanned))))
		if d.FilesFailed > 0 {
			b.WriteString(fmt.Sprintf(", %d unreadable", d.FilesFailed))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  References: %s (%d unresolved)\n", humanize.Comma(int64(d.References)), d.Unresolved))
		if d.AbortedDocs > 0 || d.MissingMetadata > 0 || d.EncodingSuspect > 0 {
			b.WriteString(fmt.Sprintf("  Warnings: %d aborted, %d without metadata, %d not utf-8\n",
				d.AbortedDocs, d.MissingMetadata, d.EncodingSuspect))
		}
		if h := d.History; h != nil {
			b.WriteString(fmt.Sprintf("  History: %d checked, %d changed since article date, %d failed\n",
				h.Checked, h.Stale, h.Failed))
		}
		b.WriteString(fmt.Sprintf("  Output: %s (%s)\n", d.OutputFile, humanize.Bytes(uint64(d.OutputBytes))))
		if d.UploadedKey != "" {
			b.WriteString(fmt.Sprintf("  Uploaded: %s\n", d.UploadedKey))
		}
		if d.RunID != "" {
			b.WriteString(fmt.Sprintf("  Run: %s\n", d.RunID))
		}
		b.WriteString("\n")
	}

	if len(resp.Skipped) > 0 {
		b.WriteString("Skipped:\n")
		for _, s := range resp.Skipped {
			b.WriteString(fmt.Sprintf("  ✗ %s: %s\n", s.Docset, s.Reason))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Completed in %s\n", time.Duration(resp.DurationMs)*time.Millisecond))
	return b.String()
}

func formatFileHuman(resp *FileResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s\n", resp.Path))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Docset: %s\n", resp.Docset))
	b.WriteString(fmt.Sprintf("URL: %s\n", resp.URL))
	if !resp.HasFrontMatter {
		b.WriteString("⚠ File contains no metadata\n")
	}
	if resp.SuspectEncoding {
		b.WriteString("⚠ File is not utf-8 encoded\n")
	}

	if len(resp.Metadata) > 0 {
		b.WriteString("\nMetadata:\n")
		keys := make([]string, 0, len(resp.Metadata))
		for k := range resp.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  %s: %s\n", k, resp.Metadata[k]))
		}
	}

	b.WriteString(fmt.Sprintf("\nReferences: %d\n", len(resp.References)))
	for _, ref := range resp.References {
		label := string(ref.Kind)
		if ref.Detail != "" {
			label += " " + ref.Detail
		}
		b.WriteString(fmt.Sprintf("  %4d  %-24s %s\n", ref.Line, label, ref.Source))
		if ref.FileURL != "" {
			b.WriteString(fmt.Sprintf("        → %s\n", ref.FileURL))
		} else {
			b.WriteString("        ✗ unresolved repository\n")
		}
	}

	if resp.Aborted {
		b.WriteString(fmt.Sprintf("\nScan stopped at line %d: %s\n", resp.AbortLine, resp.AbortReason))
	}
	for _, s := range resp.Skipped {
		b.WriteString(fmt.Sprintf("  skipped line %d: %s\n", s.Line, s.Reason))
	}

	return b.String()
}

func formatHistoryHuman(resp *HistoryResponseCLI) string {
	var b strings.Builder
	h := resp.History

	b.WriteString(fmt.Sprintf("History of %s\n", resp.FileURL))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Commits after %s: %d\n", resp.Since, h.CommitsSinceStart))
	b.WriteString(fmt.Sprintf("Commits after %s: %d\n", resp.SinceLocal, h.CommitsSinceLocal))
	if h.MostRecent != "" {
		b.WriteString(fmt.Sprintf("Most recent: %s\n", h.MostRecent))
		b.WriteString(fmt.Sprintf("  %s\n", h.MostRecentURL))
	} else {
		b.WriteString("No commits found\n")
	}

	return b.String()
}

func formatRunsHuman(resp *RunsResponseCLI, now time.Time) string {
	var b strings.Builder

	b.WriteString("Inventory Runs\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.Runs) == 0 {
		b.WriteString("No runs recorded. Run 'coderefs scan' first.\n")
		return b.String()
	}

	for _, r := range resp.Runs {
		b.WriteString(fmt.Sprintf("%s  %s\n", r.ID, r.Docset))
		b.WriteString(fmt.Sprintf("  Started: %s (%s)\n",
			r.StartedAt.Format("2006-01-02 15:04"), humanize.RelTime(r.StartedAt, now, "ago", "from now")))
		b.WriteString(fmt.Sprintf("  Files: %d, References: %d, Unresolved: %d, Aborted: %d\n",
			r.FilesScanned, r.ReferencesFound, r.Unresolved, r.AbortedDocs))
		if r.OutputFile != "" {
			b.WriteString(fmt.Sprintf("  Output: %s\n", filepath.Base(r.OutputFile)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatRowsHuman(resp *RowsResponseCLI) string {
	var b strings.Builder

	if resp.RunID != "" {
		b.WriteString(fmt.Sprintf("Run %s\n", resp.RunID))
	} else {
		b.WriteString("Recorded references\n")
	}
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	file := ""
	for _, row := range resp.Rows {
		if row.File != file {
			file = row.File
			b.WriteString(fmt.Sprintf("%s (%s, %s)\n", file, row.Author, row.Date))
		}
		target := row.RefURL
		if target == "" {
			target = "unresolved"
		}
		b.WriteString(fmt.Sprintf("  %4d  %-10s %s\n", row.RefLine, row.RefType, target))
		if h := row.History; h != nil && h.CommitsSinceStart > 0 {
			b.WriteString(fmt.Sprintf("        %d commits since article date, latest %s\n",
				h.CommitsSinceStart, h.MostRecent))
		}
	}
	b.WriteString(fmt.Sprintf("\n%d references\n", resp.Count))

	return b.String()
}

func formatRemoteHuman(resp *RemoteResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("s3://%s/%s/\n", resp.Bucket, resp.Docset))
	if len(resp.Keys) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, k := range resp.Keys {
		b.WriteString(fmt.Sprintf("  %s\n", k))
	}

	return b.String()
}

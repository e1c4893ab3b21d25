package docset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"

	"coderefs/internal/docs"
)

// GlobValue is one glob → value entry of a fileMetadata field.
type GlobValue struct {
	Pattern string
	Value   string
}

// FileMetadata maps a metadata field to its glob entries in declared order.
type FileMetadata map[string][]GlobValue

type docfxConfig struct {
	Build *struct {
		FileMetadata map[string]json.RawMessage `json:"fileMetadata"`
	} `json:"build"`
}

// LoadFileMetadata reads build.fileMetadata from docfx.json for the given
// fields. Glob order matters (later globs override earlier ones), so each
// field is decoded token by token rather than into a map.
func LoadFileMetadata(path string, fields []string) (FileMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg docfxConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if cfg.Build == nil || cfg.Build.FileMetadata == nil {
		return nil, fmt.Errorf("%s has no build.fileMetadata section", filepath.Base(path))
	}

	meta := make(FileMetadata)
	for _, field := range fields {
		raw, ok := cfg.Build.FileMetadata[field]
		if !ok {
			continue
		}
		entries, err := decodeOrdered(raw)
		if err != nil {
			return nil, fmt.Errorf("fileMetadata.%s: %w", field, err)
		}
		meta[field] = entries
	}
	return meta, nil
}

func decodeOrdered(raw json.RawMessage) ([]GlobValue, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object of glob patterns")
	}

	var out []GlobValue
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, GlobValue{Pattern: key, Value: renderValue(value)})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// renderValue returns strings as-is and anything else as compact JSON.
func renderValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}

// ExpandFolderDefaults expands every glob once, relative to the docfx
// folder, into the set of files it matches.
func ExpandFolderDefaults(docfxFolder string, meta FileMetadata) (*docs.FolderDefaults, error) {
	defaults := docs.NewFolderDefaults()

	fields := make([]string, 0, len(meta))
	for f := range meta {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		for _, gv := range meta[field] {
			matches, err := doublestar.Glob(filepath.Join(docfxFolder, gv.Pattern))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", gv.Pattern, err)
			}
			defaults.Add(field, gv.Pattern, gv.Value, matches)
		}
	}
	return defaults, nil
}

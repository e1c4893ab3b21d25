package docs

import (
	"regexp"
	"strings"
)

// directivePattern matches ":::code <props>:::" at the start of a line. The
// span is greedy, so it runs to the last ":::" on the line.
var directivePattern = regexp.MustCompile(`^:::code(.*):::`)

const (
	virtualRoot = "~"
	parentDir   = ".."
)

// ParseProperties splits a directive's property span into key/value pairs.
// Tokens without "=" are bare flags and are dropped.
func ParseProperties(span string) map[string]string {
	props := make(map[string]string)
	for _, tok := range strings.Fields(span) {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		props[strings.Trim(key, `"`)] = strings.Trim(value, `"`)
	}
	return props
}

// SplitSource splits a source property of the form ~/{repoID}/{path} or
// ~/../{repoID}/{path}. reason is non-empty when source is not an external
// reference.
func SplitSource(source string) (repoID, path, reason string) {
	parts := strings.SplitN(source, "/", 3)
	if parts[0] != virtualRoot {
		return "", "", ReasonNotExternal
	}
	if len(parts) < 3 {
		return "", "", ReasonMalformedSource
	}

	repoID, path = parts[1], parts[2]
	if repoID == parentDir {
		var ok bool
		repoID, path, ok = strings.Cut(path, "/")
		if !ok {
			return "", "", ReasonMalformedSource
		}
	}
	return repoID, path, ""
}

// classify picks the reference kind: id, then range, then the whole file.
func classify(props map[string]string) (RefKind, string) {
	if id, ok := props["id"]; ok {
		return KindByID, id
	}
	if rng, ok := props["range"]; ok {
		// Quoted so spreadsheets don't read "10-20" as a date.
		return KindByRange, "'" + rng + "'"
	}
	return KindWholeFile, ""
}

// FindReferences scans a document for external :::code references and
// resolves each one against repos.
//
// Under AbortDocument the first directive that is not an external reference
// ends the scan and the result carries no references at all. Under SkipLine
// that directive is recorded in Skipped and scanning continues.
func FindReferences(content string, repos *RepoTable, mode AbortMode) ReferenceScan {
	var scan ReferenceScan

	for i, line := range splitLines(content) {
		lineNum := i + 1

		match := directivePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		props := ParseProperties(strings.TrimSpace(match[1]))

		source, ok := props["source"]
		reason := ReasonNoSource
		var repoID, path string
		if ok {
			repoID, path, reason = SplitSource(source)
		}

		if reason != "" {
			if mode == AbortDocument {
				return ReferenceScan{
					Aborted:     true,
					AbortLine:   lineNum,
					AbortReason: reason,
				}
			}
			scan.Skipped = append(scan.Skipped, SkippedLine{Line: lineNum, Reason: reason})
			continue
		}

		kind, detail := classify(props)
		scan.References = append(scan.References, CodeReference{
			Line:       lineNum,
			Kind:       kind,
			Detail:     detail,
			Source:     source,
			RepoID:     repoID,
			Path:       path,
			Properties: props,
			Resolved:   repos.Resolve(repoID, path),
		})
	}

	return scan
}

// splitLines splits on \n, \r\n and lone \r.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

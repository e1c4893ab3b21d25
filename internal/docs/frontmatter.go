package docs

import "strings"

const frontMatterDelimiter = "---"

// bomDelimiters are delimiter lines carrying a byte order mark, either intact
// or mangled by a lossy decode.
var bomDelimiters = []string{
	"\uFEFF" + frontMatterDelimiter,
	"??????" + frontMatterDelimiter,
	"ï»¿" + frontMatterDelimiter,
}

// DefaultMetadataFields are the metadata fields carried into the inventory.
var DefaultMetadataFields = []string{"ms.author", "ms.reviewer", "ms.date"}

// isDelimiter reports whether line opens or closes a front matter block,
// and whether it carried a BOM.
func isDelimiter(line string) (ok, bom bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == frontMatterDelimiter {
		return true, false
	}
	for _, d := range bomDelimiters {
		if line == d {
			return true, true
		}
	}
	return false, false
}

// ExtractMetadata reads the front matter block of a document and fills each
// desired field that is absent from a folder default, or UnknownValue.
//
// Blank lines and # comments are skipped. The first other line must be the
// --- delimiter, otherwise the document has no front matter. Each key: value
// line is split on its first colon; lines without a colon are ignored.
func ExtractMetadata(content, path string, defaults *FolderDefaults, desired []string) FrontMatter {
	fm := FrontMatter{Fields: make(Metadata)}
	open := false

	for _, line := range splitLines(content) {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if ok, bom := isDelimiter(line); ok {
			if bom {
				fm.SuspectEncoding = true
			}
			if open {
				break
			}
			open = true
			fm.HasFrontMatter = true
			continue
		}
		if !open {
			break
		}

		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		fm.Fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	for _, field := range desired {
		if _, ok := fm.Fields[field]; ok {
			continue
		}
		if v, ok := defaults.Lookup(field, path); ok {
			fm.Fields[field] = v
			continue
		}
		fm.Fields[field] = UnknownValue
	}

	return fm
}

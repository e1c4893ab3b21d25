package docs

import "path/filepath"

// FolderDefault is one docfx fileMetadata entry for a field: a glob, its
// value and the files the glob matched when the docset was loaded.
type FolderDefault struct {
	Pattern string
	Value   string
	matches map[string]struct{}
}

// Matches reports whether path was matched by the glob.
func (d FolderDefault) Matches(path string) bool {
	_, ok := d.matches[filepath.Clean(path)]
	return ok
}

// FolderDefaults holds the pre-expanded folder-level metadata of a docset.
type FolderDefaults struct {
	fields map[string][]FolderDefault
}

// NewFolderDefaults creates an empty table.
func NewFolderDefaults() *FolderDefaults {
	return &FolderDefaults{fields: make(map[string][]FolderDefault)}
}

// Add appends a pattern for field. Patterns must be added in declared order;
// later patterns take precedence.
func (d *FolderDefaults) Add(field, pattern, value string, matched []string) {
	set := make(map[string]struct{}, len(matched))
	for _, p := range matched {
		set[filepath.Clean(p)] = struct{}{}
	}
	d.fields[field] = append(d.fields[field], FolderDefault{
		Pattern: pattern,
		Value:   value,
		matches: set,
	})
}

// Lookup returns the default for field at path: the value of the last
// declared pattern whose matched set contains path.
func (d *FolderDefaults) Lookup(field, path string) (string, bool) {
	if d == nil {
		return "", false
	}
	path = filepath.Clean(path)

	value, found := "", false
	for _, def := range d.fields[field] {
		if _, ok := def.matches[path]; ok {
			value, found = def.Value, true
		}
	}
	return value, found
}

// Patterns returns the declared patterns for field.
func (d *FolderDefaults) Patterns(field string) []FolderDefault {
	if d == nil {
		return nil
	}
	return d.fields[field]
}

// Fields returns the number of fields with at least one pattern.
func (d *FolderDefaults) Fields() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

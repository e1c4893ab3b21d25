package docs

import (
	"fmt"

	"coderefs/internal/errors"
)

// RepoTable maps a virtual root name (path_to_root) to its repository.
type RepoTable struct {
	entries []RepositoryEntry
	byRoot  map[string]RepositoryEntry
}

// NewRepoTable builds a lookup table from the docset's dependent
// repositories. Empty or duplicate path_to_root values are rejected.
func NewRepoTable(entries []RepositoryEntry) (*RepoTable, error) {
	t := &RepoTable{
		entries: make([]RepositoryEntry, 0, len(entries)),
		byRoot:  make(map[string]RepositoryEntry, len(entries)),
	}

	for i, e := range entries {
		if e.PathToRoot == "" {
			return nil, errors.New(errors.DuplicateRepoRoot,
				fmt.Sprintf("dependent repository %d has an empty path_to_root", i), nil).
				WithDetails(map[string]interface{}{"url": e.URL})
		}
		if prev, ok := t.byRoot[e.PathToRoot]; ok {
			return nil, errors.New(errors.DuplicateRepoRoot,
				fmt.Sprintf("path_to_root %q is declared more than once", e.PathToRoot), nil).
				WithDetails(map[string]interface{}{
					"first":  prev.URL,
					"second": e.URL,
				})
		}
		t.byRoot[e.PathToRoot] = e
		t.entries = append(t.entries, e)
	}

	return t, nil
}

// Lookup finds the repository for a virtual root name.
func (t *RepoTable) Lookup(pathToRoot string) (RepositoryEntry, bool) {
	if t == nil {
		return RepositoryEntry{}, false
	}
	e, ok := t.byRoot[pathToRoot]
	return e, ok
}

// Resolve maps a repository id and a path within it to a file URL.
// Returns nil when no repository is registered under repoID.
func (t *RepoTable) Resolve(repoID, path string) *ResolvedTarget {
	repo, ok := t.Lookup(repoID)
	if !ok {
		return nil
	}
	return &ResolvedTarget{
		FileURL:      repo.URL + "/blob/" + repo.Branch + "/" + path,
		RepoURL:      repo.URL,
		Branch:       repo.Branch,
		RelativePath: path,
	}
}

// Entries returns the repositories in declared order.
func (t *RepoTable) Entries() []RepositoryEntry {
	if t == nil {
		return nil
	}
	out := make([]RepositoryEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of repositories.
func (t *RepoTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

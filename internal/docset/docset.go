// Package docset loads a configured docset from disk: its dependent
// repositories from the publish config and its folder-level metadata from
// docfx.json.
package docset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"coderefs/internal/config"
	"coderefs/internal/docs"
	"coderefs/internal/errors"
	"coderefs/internal/logging"
)

const (
	// PublishConfigFile lists the dependent repositories of a docset.
	PublishConfigFile = ".openpublishing.publish.config.json"
	// DocfxFile holds the build configuration, including fileMetadata.
	DocfxFile = "docfx.json"
)

// Docset is a loaded, ready-to-scan docset.
type Docset struct {
	Config      config.Docset
	Folder      string // absolute docset folder
	DocfxFolder string // absolute docfx folder
	Repos       *docs.RepoTable
	Defaults    *docs.FolderDefaults // nil when docfx.json has no fileMetadata
}

// Name returns the configured repo name.
func (d *Docset) Name() string {
	return d.Config.Repo
}

// Target returns what the indexer needs to scan this docset.
func (d *Docset) Target() docs.Target {
	return docs.Target{
		Name:     d.Config.Repo,
		Root:     d.Folder,
		BaseURL:  d.Config.URL,
		Excludes: d.Config.ExcludeFolders,
		Repos:    d.Repos,
		Defaults: d.Defaults,
	}
}

// Load validates a docset entry and reads its publish config and docfx.json.
// Entries that cannot be processed return a DOCSET_SKIPPED or CONFIG_INVALID
// error; the caller moves on to the next docset.
func Load(ds config.Docset, fields []string, logger *logging.Logger) (*Docset, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	if ds.Repo == "" || ds.URL == "" {
		return nil, errors.New(errors.ConfigInvalid, "Malformed config entry for docset", nil).
			WithDetails(map[string]interface{}{"repo": ds.Repo, "url": ds.URL})
	}
	if ds.Disabled {
		return nil, errors.New(errors.DocsetSkipped, "Docset disabled", nil)
	}
	if ds.Path == "" {
		return nil, errors.New(errors.DocsetSkipped, "No path for docset", nil)
	}

	folder, err := filepath.Abs(ExpandPath(ds.Path))
	if err != nil {
		return nil, errors.New(errors.DocsetSkipped, "Invalid docset path", err)
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return nil, errors.New(errors.DocsetSkipped, "Docset folder not found", err).
			WithDetails(map[string]interface{}{"folder": folder})
	}

	d := &Docset{
		Config:      ds,
		Folder:      folder,
		DocfxFolder: filepath.Join(folder, ds.DocfxFolder),
	}

	opcPath := filepath.Join(folder, ds.OpcFolder, PublishConfigFile)
	entries, err := LoadRepositories(opcPath)
	if err != nil {
		return nil, errors.New(errors.DocsetSkipped,
			"Docset lacks "+PublishConfigFile+" file", err).
			WithDetails(map[string]interface{}{"path": opcPath})
	}

	d.Repos, err = docs.NewRepoTable(entries)
	if err != nil {
		return nil, err
	}

	docfxPath := filepath.Join(d.DocfxFolder, DocfxFile)
	meta, err := LoadFileMetadata(docfxPath, fields)
	if err != nil {
		logger.Info("Docset lacks docfx.json metadata info", map[string]interface{}{
			logging.FieldDetail: err.Error(),
			logging.FieldItem:   ds.Repo,
		})
	} else {
		d.Defaults, err = ExpandFolderDefaults(d.DocfxFolder, meta)
		if err != nil {
			return nil, errors.New(errors.ConfigInvalid, "Invalid fileMetadata glob in docfx.json", err).
				WithDetails(map[string]interface{}{"path": docfxPath})
		}
	}

	return d, nil
}

// ExpandPath expands ${VAR} and $VAR references in a configured path.
func ExpandPath(p string) string {
	return os.ExpandEnv(p)
}

type publishConfig struct {
	DependentRepositories *[]docs.RepositoryEntry `json:"dependent_repositories"`
}

// LoadRepositories reads dependent_repositories from a publish config file.
func LoadRepositories(path string) ([]docs.RepositoryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pc publishConfig
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if pc.DependentRepositories == nil {
		return nil, fmt.Errorf("%s has no dependent_repositories section", filepath.Base(path))
	}
	return *pc.DependentRepositories, nil
}

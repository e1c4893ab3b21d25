package docset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coderefs/internal/config"
	"coderefs/internal/docs"
	"coderefs/internal/errors"
)

const publishConfigJSON = `{
  "docsets_to_publish": [{"docset_name": "azure-documents"}],
  "dependent_repositories": [
    {"path_to_root": "azure-docs-sdk", "url": "https://github.com/org/repo", "branch": "main", "branch_mapping": {}},
    {"path_to_root": "functions-java", "url": "https://github.com/Azure-Samples/functions-java", "branch": "master"}
  ]
}`

const docfxJSON = `{
  "build": {
    "fileMetadata": {
      "ms.author": {
        "articles/**/*.md": "general",
        "articles/functions/**/*.md": "functions-owner"
      },
      "ms.reviewer": {
        "articles/**/*.md": "rev"
      },
      "ms.topic": {
        "articles/**/*.md": "article"
      },
      "ms.custom": {
        "articles/**/*.md": ["a", "b"]
      }
    }
  }
}`

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func setupDocsetDir(t *testing.T, withDocfx bool) string {
	t.Helper()
	root := t.TempDir()
	write(t, filepath.Join(root, PublishConfigFile), publishConfigJSON)
	write(t, filepath.Join(root, "articles", "index.md"), "# index")
	write(t, filepath.Join(root, "articles", "functions", "quickstart.md"), "# quickstart")
	if withDocfx {
		write(t, filepath.Join(root, DocfxFile), docfxJSON)
	}
	return root
}

func TestLoad(t *testing.T) {
	root := setupDocsetDir(t, true)
	t.Setenv("TEST_DOCS_ROOT", filepath.Dir(root))

	ds := config.Docset{
		Repo: "MicrosoftDocs/azure-docs",
		Path: "${TEST_DOCS_ROOT}/" + filepath.Base(root),
		URL:  "https://learn.microsoft.com/azure",
	}

	d, err := Load(ds, docs.DefaultMetadataFields, nil)
	require.NoError(t, err)

	assert.Equal(t, root, d.Folder)
	assert.Equal(t, "MicrosoftDocs/azure-docs", d.Name())
	assert.Equal(t, 2, d.Repos.Len())

	target := d.Target()
	resolved := target.Repos.Resolve("functions-java", "src/F.java")
	require.NotNil(t, resolved)
	assert.Equal(t, "https://github.com/Azure-Samples/functions-java/blob/master/src/F.java", resolved.FileURL)

	require.NotNil(t, d.Defaults)
	quick := filepath.Join(root, "articles", "functions", "quickstart.md")
	index := filepath.Join(root, "articles", "index.md")

	v, ok := d.Defaults.Lookup("ms.author", quick)
	assert.True(t, ok)
	assert.Equal(t, "functions-owner", v, "later glob overrides earlier one")

	v, ok = d.Defaults.Lookup("ms.author", index)
	assert.True(t, ok)
	assert.Equal(t, "general", v)

	v, _ = d.Defaults.Lookup("ms.reviewer", index)
	assert.Equal(t, "rev", v)

	_, ok = d.Defaults.Lookup("ms.topic", index)
	assert.False(t, ok, "only desired fields are loaded")
}

func TestLoad_NoDocfx(t *testing.T) {
	root := setupDocsetDir(t, false)
	d, err := Load(config.Docset{Repo: "org/docs", Path: root, URL: "https://example.com"}, docs.DefaultMetadataFields, nil)
	require.NoError(t, err)
	assert.Nil(t, d.Defaults)
}

func TestLoad_Skipped(t *testing.T) {
	root := setupDocsetDir(t, true)
	empty := t.TempDir()

	tests := []struct {
		name string
		ds   config.Docset
		code errors.ErrorCode
	}{
		{"no repo", config.Docset{Path: root, URL: "https://example.com"}, errors.ConfigInvalid},
		{"no url", config.Docset{Repo: "org/docs", Path: root}, errors.ConfigInvalid},
		{"disabled", config.Docset{Repo: "org/docs", Path: root, URL: "u", Disabled: true}, errors.DocsetSkipped},
		{"no path", config.Docset{Repo: "org/docs", URL: "u"}, errors.DocsetSkipped},
		{"missing folder", config.Docset{Repo: "org/docs", Path: filepath.Join(root, "nope"), URL: "u"}, errors.DocsetSkipped},
		{"no publish config", config.Docset{Repo: "org/docs", Path: empty, URL: "u"}, errors.DocsetSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.ds, docs.DefaultMetadataFields, nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestLoad_DuplicateRepoRoot(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, PublishConfigFile), `{"dependent_repositories": [
		{"path_to_root": "dup", "url": "https://github.com/o/a", "branch": "main"},
		{"path_to_root": "dup", "url": "https://github.com/o/b", "branch": "main"}
	]}`)

	_, err := Load(config.Docset{Repo: "org/docs", Path: root, URL: "u"}, docs.DefaultMetadataFields, nil)
	assert.True(t, errors.Is(err, errors.DuplicateRepoRoot))
}

func TestLoadRepositories_MissingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), PublishConfigFile)
	write(t, path, `{"docsets_to_publish": []}`)

	_, err := LoadRepositories(path)
	assert.Error(t, err)

	write(t, path, `{"dependent_repositories": []}`)
	entries, err := LoadRepositories(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadFileMetadata_Order(t *testing.T) {
	path := filepath.Join(t.TempDir(), DocfxFile)
	write(t, path, `{"build": {"fileMetadata": {"ms.author": {"z/**": "1", "a/**": "2", "m/**": "3"}, "ms.custom": {"**": ["a", "b"]}}}}`)

	meta, err := LoadFileMetadata(path, []string{"ms.author", "ms.custom", "ms.date"})
	require.NoError(t, err)

	assert.Equal(t, []GlobValue{{"z/**", "1"}, {"a/**", "2"}, {"m/**", "3"}}, meta["ms.author"])
	assert.Equal(t, []GlobValue{{"**", `["a","b"]`}}, meta["ms.custom"])
	_, ok := meta["ms.date"]
	assert.False(t, ok)
}

func TestLoadFileMetadata_NoSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), DocfxFile)
	write(t, path, `{"build": {"content": []}}`)

	_, err := LoadFileMetadata(path, docs.DefaultMetadataFields)
	assert.Error(t, err)
}

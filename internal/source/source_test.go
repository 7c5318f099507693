package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juparave/researchnote/internal/config"
	"github.com/juparave/researchnote/internal/git"
	"github.com/juparave/researchnote/internal/github"
	"github.com/juparave/researchnote/internal/logger"
)

func TestNew(t *testing.T) {
	src, err := New(config.SourceConfig{Provider: "github"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &github.Client{}, src)

	src, err = New(config.SourceConfig{Provider: "local"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &git.Client{}, src)

	_, err = New(config.SourceConfig{Provider: "svn"}, logger.Nop())
	assert.ErrorContains(t, err, "unknown source provider")
}

func TestReposGitHubKeepsNames(t *testing.T) {
	repos, err := Repos(config.SourceConfig{
		Provider: "github",
		Repos:    []string{"acme/api", "acme/web"},
	}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, []Repo{
		{Name: "acme/api", Ref: "acme/api"},
		{Name: "acme/web", Ref: "acme/web"},
	}, repos)
}

func TestReposLocalScansRoot(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"api/.git", "web/.git", "notes"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}

	repos, err := Repos(config.SourceConfig{Provider: "local", RootPath: root}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, []Repo{
		{Name: "api", Ref: filepath.Join(root, "api")},
		{Name: "web", Ref: filepath.Join(root, "web")},
	}, repos)
}

func TestReposLocalSkipsNonRepos(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "api", ".git"), 0o755))

	repos, err := Repos(config.SourceConfig{
		Provider: "local",
		Repos:    []string{filepath.Join(root, "api"), filepath.Join(root, "missing")},
	}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, []Repo{{Name: "api", Ref: filepath.Join(root, "api")}}, repos)
}

func TestCommitURL(t *testing.T) {
	assert.Equal(t, "https://github.com/acme/api/commit/abc",
		CommitURL(config.SourceConfig{Provider: "github"}, "acme/api", "abc"))
	assert.Empty(t, CommitURL(config.SourceConfig{Provider: "local"}, "api", "abc"))
}

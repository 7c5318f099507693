package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juparave/researchnote/internal/logger"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func TestFindRepositories(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root,
		"beta/.git",
		"alpha/.git",
		"alpha/sub/.git", // nested inside a repo, not reported
		"group/gamma/.git",
		"node_modules/dep/.git",
		".hidden/repo/.git",
		"plain/dir",
	)

	repos, err := New(logger.Nop()).FindRepositories(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "alpha"),
		filepath.Join(root, "beta"),
		filepath.Join(root, "group", "gamma"),
	}, repos)
}

func TestGetRepoName(t *testing.T) {
	assert.Equal(t, "api", GetRepoName("/home/me/projects/api/"))
	assert.Equal(t, "api", GetRepoName("api"))
}

package scanner

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/juparave/researchnote/internal/logger"
)

// ExcludedDirs are directories to skip during scanning
var ExcludedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// Scanner finds Git repositories in a directory tree
type Scanner struct {
	logger *logger.Logger
}

// New creates a new Scanner
func New(log *logger.Logger) *Scanner {
	return &Scanner{logger: log}
}

// FindRepositories recursively finds all Git repositories under rootPath,
// sorted by path. Nested repositories are not descended into.
func (s *Scanner) FindRepositories(rootPath string) ([]string, error) {
	var repos []string

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			s.logger.Debugf("skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		name := d.Name()
		if path != rootPath && (strings.HasPrefix(name, ".") || ExcludedDirs[name]) {
			return filepath.SkipDir
		}

		if info, err := os.Stat(filepath.Join(path, ".git")); err == nil && info.IsDir() {
			repos = append(repos, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(repos)
	s.logger.Debugf("found %d repositories under %s", len(repos), rootPath)
	return repos, nil
}

// GetRepoName extracts the repository name from its path
func GetRepoName(repoPath string) string {
	return filepath.Base(filepath.Clean(repoPath))
}

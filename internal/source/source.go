// Package source selects where commits come from: the GitHub API or local
// clones read through the git CLI.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/juparave/researchnote/internal/config"
	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/git"
	"github.com/juparave/researchnote/internal/github"
	"github.com/juparave/researchnote/internal/logger"
	"github.com/juparave/researchnote/internal/scanner"
)

// Source lists a repository's commits and loads their changed files
type Source interface {
	// ListCommits returns commits on branch in [since, until), oldest first
	ListCommits(ctx context.Context, repo, branch string, since, until time.Time) ([]domain.Commit, error)
	// LoadFiles fills commit.Files
	LoadFiles(ctx context.Context, repo string, commit *domain.Commit) error
}

// Repo is a repository to scan. Name is what reports show, Ref is what the
// Source is called with.
type Repo struct {
	Name string
	Ref  string
}

// New builds the Source configured in cfg
func New(cfg config.SourceConfig, log *logger.Logger) (Source, error) {
	switch cfg.Provider {
	case "github":
		return github.NewClient(cfg.GitHub.BaseURL, cfg.GitHub.Token, log.With("source", "github")), nil
	case "local":
		return git.NewClient(log.With("source", "local")), nil
	default:
		return nil, fmt.Errorf("unknown source provider: %s", cfg.Provider)
	}
}

// Repos resolves the configured repositories. The local provider scans
// RootPath when no repos are listed.
func Repos(cfg config.SourceConfig, log *logger.Logger) ([]Repo, error) {
	refs := cfg.Repos
	if cfg.Provider == "local" && len(refs) == 0 {
		found, err := scanner.New(log).FindRepositories(cfg.RootPath)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", cfg.RootPath, err)
		}
		refs = found
	}

	repos := make([]Repo, 0, len(refs))
	for _, ref := range refs {
		name := ref
		if cfg.Provider == "local" {
			if !git.IsValidRepo(ref) {
				log.Warnf("skipping %s: not a git repository", ref)
				continue
			}
			name = scanner.GetRepoName(ref)
		}
		repos = append(repos, Repo{Name: name, Ref: ref})
	}
	return repos, nil
}

// CommitURL returns the web link for a commit, or "" when the provider has
// no web view.
func CommitURL(cfg config.SourceConfig, repo, sha string) string {
	if cfg.Provider != "github" {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/commit/%s", repo, sha)
}

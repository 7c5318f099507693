package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/juparave/researchnote/internal/diff"
	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/logger"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Client reads commits from local Git repositories through the git CLI
type Client struct {
	logger *logger.Logger
}

// NewClient creates a new Git client
func NewClient(log *logger.Logger) *Client {
	return &Client{logger: log}
}

// ListCommits returns the non-merge commits on branch committed in
// [since, until), oldest first. repo is a filesystem path.
func (c *Client) ListCommits(ctx context.Context, repo, branch string, since, until time.Time) ([]domain.Commit, error) {
	// hash, author name, author email, author date, raw body
	format := strings.Join([]string{"%H", "%an", "%ae", "%aI", "%B"}, fieldSep) + recordSep

	args := []string{"log",
		"--since=" + since.Format(time.RFC3339),
		"--until=" + until.Add(-time.Second).Format(time.RFC3339),
		"--no-merges",
		"--reverse",
		"--format=" + format,
	}
	if branch != "" {
		args = append(args, branch)
	}

	output, err := c.run(ctx, repo, args...)
	if err != nil {
		if strings.Contains(err.Error(), "does not have any commits") {
			return nil, nil
		}
		return nil, fmt.Errorf("git log failed: %w", err)
	}

	return c.parseCommits(output), nil
}

func (c *Client) parseCommits(output []byte) []domain.Commit {
	var commits []domain.Commit

	for _, record := range strings.Split(string(output), recordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}

		parts := strings.SplitN(record, fieldSep, 5)
		if len(parts) < 5 {
			continue
		}

		timestamp, err := time.Parse(time.RFC3339, parts[3])
		if err != nil {
			c.logger.Warnf("failed to parse timestamp %s: %v", parts[3], err)
			continue
		}

		commits = append(commits, domain.Commit{
			SHA:         parts[0],
			AuthorName:  parts[1],
			AuthorEmail: parts[2],
			Timestamp:   timestamp,
			Message:     strings.TrimSpace(parts[4]),
		})
	}

	return commits
}

// LoadFiles fills commit.Files with the changed files and their per-file
// hunks. Binary changes get an empty patch.
func (c *Client) LoadFiles(ctx context.Context, repo string, commit *domain.Commit) error {
	output, err := c.run(ctx, repo, "show", "--format=", "--name-status", "-M", commit.SHA)
	if err != nil {
		return fmt.Errorf("git show --name-status failed: %w", err)
	}

	files, err := diff.ParseNameStatus(output)
	if err != nil {
		return fmt.Errorf("parsing name-status: %w", err)
	}

	for i := range files {
		patch, err := c.fileDiff(ctx, repo, commit.SHA, files[i])
		if err != nil {
			return err
		}
		files[i].Patch = diff.Hunks(patch)
	}

	commit.Files = files
	return nil
}

func (c *Client) fileDiff(ctx context.Context, repo, sha string, file domain.ChangedFile) (string, error) {
	args := []string{"show", "--format=", "--patch", "--no-color", "-M", sha, "--"}
	if file.PreviousFilename != "" {
		args = append(args, file.PreviousFilename)
	}
	args = append(args, file.Filename)

	output, err := c.run(ctx, repo, args...)
	if err != nil {
		return "", fmt.Errorf("git show for %s failed: %w", file.Filename, err)
	}

	if diff.IsBinary(string(output)) {
		c.logger.Debugf("binary change in %s", file.Filename)
		return "", nil
	}
	return string(output), nil
}

func (c *Client) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if stderr := bytes.TrimSpace(exitErr.Stderr); len(stderr) > 0 {
				return nil, fmt.Errorf("%w: %s", err, stderr)
			}
		}
		return nil, err
	}
	return output, nil
}

// IsValidRepo checks if a path is a valid Git repository
func IsValidRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}

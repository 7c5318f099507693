package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"

	"github.com/juparave/researchnote/internal/diff"
	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/logger"
	"github.com/juparave/researchnote/internal/review"
)

// Options bounds what the pipeline analyzes
type Options struct {
	Exclude      []string       // doublestar globs, matched against the file path
	MaxDiffLines int            // 0 disables truncation
	Location     *time.Location // zone the commit date is reported in
}

// Pipeline turns one commit into a CommitFinding: every eligible file is
// analyzed in order, then the findings are summarized.
type Pipeline struct {
	analyzer   *review.FileAnalyzer
	summarizer *review.Summarizer
	opts       Options
	logger     *logger.Logger
}

// New creates a Pipeline. Exclude patterns must be valid doublestar globs.
func New(analyzer *review.FileAnalyzer, summarizer *review.Summarizer, opts Options, log *logger.Logger) (*Pipeline, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Pipeline{
		analyzer:   analyzer,
		summarizer: summarizer,
		opts:       opts,
		logger:     log,
	}, nil
}

// Excluded reports whether path is never analyzed: README files and
// anything matching an exclude pattern.
func (p *Pipeline) Excluded(path string) bool {
	if strings.Contains(strings.ToLower(path), "readme") {
		return true
	}
	return lo.ContainsBy(p.opts.Exclude, func(pattern string) bool {
		ok, _ := doublestar.Match(pattern, path)
		return ok
	})
}

// Process analyzes commit, whose Files must be loaded. It returns nil
// without error when no file survives exclusion. An error means a file
// analysis failed after retries; the commit should be skipped.
func (p *Pipeline) Process(ctx context.Context, repo string, commit domain.Commit) (*domain.CommitFinding, error) {
	files := lo.Reject(commit.Files, func(f domain.ChangedFile, _ int) bool {
		return p.Excluded(f.Filename)
	})

	short := commit.SHA[:min(7, len(commit.SHA))]
	if len(files) == 0 {
		p.logger.Infof("Skipping %s: no files to analyze (%d excluded)", short, len(commit.Files))
		return nil, nil
	}
	p.logger.Infof("Analyzing %d of %d files in %s", len(files), len(commit.Files), short)

	findings := make([]domain.FileFinding, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.logger.Debugf("File %d/%d: %s (%s)", i+1, len(files), f.Filename, f.Status)
		if !f.HasPatch() {
			p.logger.Debugf("No patch for %s (binary or no diff)", f.Filename)
		}

		patch := diff.Truncate(f.Patch, p.opts.MaxDiffLines)
		finding, err := p.analyzer.Analyze(ctx, f.Filename, f.Status, patch)
		if err != nil {
			return nil, err
		}
		findings = append(findings, finding)
	}

	meta := domain.NewMeta(repo, commit, p.opts.Location)

	summary, err := p.summarizer.Summarize(ctx, findings, meta)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warnf("Summary for %s degraded to local fallback: %v", short, err)
		summary = review.Fallback(findings, meta)
	}

	return &domain.CommitFinding{
		Repo:           meta.Repo,
		SHA:            meta.SHA,
		Author:         meta.Author,
		AuthorLogin:    meta.AuthorLogin,
		AuthorEmail:    meta.AuthorEmail,
		DateKST:        meta.DateKST,
		Title:          meta.Title,
		Files:          findings,
		OverallSummary: summary.OverallSummary,
		OverallRisk:    summary.OverallRisk,
	}, nil
}

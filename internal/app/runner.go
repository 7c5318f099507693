package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/juparave/researchnote/internal/config"
	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/llm"
	"github.com/juparave/researchnote/internal/logger"
	"github.com/juparave/researchnote/internal/notify"
	"github.com/juparave/researchnote/internal/pipeline"
	"github.com/juparave/researchnote/internal/report"
	"github.com/juparave/researchnote/internal/retry"
	"github.com/juparave/researchnote/internal/review"
	"github.com/juparave/researchnote/internal/source"
	"github.com/juparave/researchnote/internal/store"
	"github.com/juparave/researchnote/internal/util"
)

// Result is what a run produced
type Result struct {
	Report *domain.Report
	Paths  report.Paths
}

// Runner orchestrates one research note run
type Runner struct {
	config    *config.Config
	logger    *logger.Logger
	source    source.Source
	generator llm.Generator
	model     string
	report    *report.Formatter
	now       func() time.Time
}

// Option customizes a Runner
type Option func(*Runner)

// WithSource replaces the configured commit source
func WithSource(src source.Source) Option {
	return func(r *Runner) { r.source = src }
}

// WithGenerator replaces the configured model client. model is the
// identifier recorded in the report.
func WithGenerator(gen llm.Generator, model string) Option {
	return func(r *Runner) {
		r.generator = gen
		r.model = model
	}
}

// WithClock sets the time source used for the day window and timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a new Runner instance
func NewRunner(cfg *config.Config, log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		config: cfg,
		logger: log,
		report: report.NewFormatter(cfg.Reports.OutputDir, func(repo, sha string) string {
			return source.CommitURL(cfg.Source, repo, sha)
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds the note for date (YYYY-MM-DD, empty for today). The report is
// written even when every repository fails; only configuration and report
// write errors are returned.
func (r *Runner) Run(ctx context.Context, date string) (*Result, error) {
	startTime := r.now()

	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := r.config.Location()
	if err != nil {
		return nil, err
	}
	window := util.DayWindow(startTime, loc)
	if date != "" {
		if window, err = util.ParseDay(date, loc); err != nil {
			return nil, err
		}
	}

	if err := r.initCollaborators(ctx); err != nil {
		return nil, err
	}

	pipe, err := r.newPipeline(loc)
	if err != nil {
		return nil, err
	}

	repos, err := source.Repos(r.config.Source, r.logger)
	if err != nil {
		return nil, fmt.Errorf("resolving repositories: %w", err)
	}

	r.logger.Infof("Analyzing commits for %s (%s ~ %s UTC)", window.Date,
		window.Since.UTC().Format(time.RFC3339), window.Until.UTC().Format(time.RFC3339))
	r.logger.Infof("Repositories: %d, branch: %s, author: %s / %s", len(repos),
		r.config.Source.Branch, r.config.Author.Login, r.config.Author.Email)

	// one slot per repository keeps repo order and isolates failures
	slots := make([][]domain.CommitFinding, len(repos))
	var g errgroup.Group
	g.SetLimit(max(1, r.config.Pipeline.ParallelRepos))
	for i, repo := range repos {
		g.Go(func() error {
			slots[i] = r.processRepo(ctx, pipe, repo, window)
			return nil
		})
	}
	_ = g.Wait()

	rpt := &domain.Report{
		GeneratedAt:  r.now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Model:        r.model,
		NoteDateKST:  window.Date,
		Repos:        make([]string, 0, len(repos)),
		Branch:       r.config.Source.Branch,
		AuthorFilter: domain.AuthorFilter{Login: r.config.Author.Login, Email: r.config.Author.Email},
		Commits:      []domain.CommitFinding{},
	}
	for i, repo := range repos {
		rpt.Repos = append(rpt.Repos, repo.Name)
		rpt.Commits = append(rpt.Commits, slots[i]...)
	}

	paths, err := r.report.Write(rpt)
	if err != nil {
		r.logger.Error("Writing report failed", err)
		return nil, fmt.Errorf("writing report: %w", err)
	}
	r.logger.Infof("Report saved to %s and %s", paths.Markdown, paths.JSON)

	r.recordHistory(ctx, rpt)
	r.sendEmail(ctx, rpt)

	r.logger.Infof("Done: %d commits, %d files (high: %d) in %s", len(rpt.Commits), rpt.FileCount(),
		rpt.HighCount(), r.now().Sub(startTime).Round(time.Millisecond))

	return &Result{Report: rpt, Paths: paths}, nil
}

func (r *Runner) initCollaborators(ctx context.Context) error {
	if r.source == nil {
		src, err := source.New(r.config.Source, r.logger)
		if err != nil {
			return err
		}
		r.source = src
	}

	if r.generator == nil {
		r.logger.Debugf("Initializing %s model client", r.config.Review.Provider)
		client, err := llm.NewGenkitClient(ctx, r.config.Review)
		if err != nil {
			return fmt.Errorf("initializing model client: %w", err)
		}
		r.generator = client
		r.model = client.ModelID()
	}
	return nil
}

func (r *Runner) newPipeline(loc *time.Location) (*pipeline.Pipeline, error) {
	prompts, err := review.LoadPrompts(r.config.Review.Language)
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	policy := retry.FromConfig(r.config.Retry)
	analyzer := review.NewFileAnalyzer(r.generator, policy, prompts, r.logger.With("step", "file"))
	summarizer := review.NewSummarizer(r.generator, policy, prompts, r.config.Pipeline.ChunkSize, r.logger.With("step", "summary"))

	return pipeline.New(analyzer, summarizer, pipeline.Options{
		Exclude:      r.config.Pipeline.Exclude,
		MaxDiffLines: r.config.Pipeline.MaxDiffLines,
		Location:     loc,
	}, r.logger)
}

// processRepo returns the findings for the author's commits in repo. A
// repository that cannot be listed contributes nothing; a commit that fails
// is skipped.
func (r *Runner) processRepo(ctx context.Context, pipe *pipeline.Pipeline, repo source.Repo, window util.Window) []domain.CommitFinding {
	log := r.logger.With("repo", repo.Name)

	commits, err := r.source.ListCommits(ctx, repo.Ref, r.config.Source.Branch, window.Since, window.Until)
	if err != nil {
		log.Warnf("Skipping repository: %v", err)
		return nil
	}
	log.Infof("Found %d commits in range", len(commits))

	filter := domain.AuthorFilter{Login: r.config.Author.Login, Email: r.config.Author.Email}
	var findings []domain.CommitFinding
	for i := range commits {
		commit := commits[i]
		if !filter.Matches(&commit) {
			continue
		}
		if ctx.Err() != nil {
			log.Warnf("Stopping: %v", ctx.Err())
			break
		}

		log.Infof("Processing %s: %s", commit.SHA[:min(7, len(commit.SHA))], commit.Title())
		if err := r.source.LoadFiles(ctx, repo.Ref, &commit); err != nil {
			log.Warnf("Skipping commit %s: loading files: %v", commit.SHA, err)
			continue
		}

		finding, err := pipe.Process(ctx, repo.Name, commit)
		if err != nil {
			log.Warnf("Skipping commit %s: %v", commit.SHA, err)
			continue
		}
		if finding != nil {
			findings = append(findings, *finding)
		}
	}

	log.Infof("Analyzed %d of your commits", len(findings))
	return findings
}

func (r *Runner) recordHistory(ctx context.Context, rpt *domain.Report) {
	if r.config.Reports.HistoryDB == "" {
		return
	}

	document, err := r.report.ToJSON(rpt)
	if err != nil {
		r.logger.Warnf("Skipping history: %v", err)
		return
	}

	history, err := store.Open(r.config.Reports.HistoryDB)
	if err != nil {
		r.logger.Warnf("Skipping history: %v", err)
		return
	}
	defer history.Close()

	if err := history.Record(ctx, rpt, document); err != nil {
		r.logger.Warnf("Recording history failed: %v", err)
	}
}

func (r *Runner) sendEmail(ctx context.Context, rpt *domain.Report) {
	if !r.config.Email.Enabled {
		return
	}

	r.logger.Infof("Sending email notification...")
	svc := notify.NewService(r.config.Email, r.report, retry.FromConfig(r.config.Retry), r.logger)
	if err := svc.SendReport(ctx, rpt); err != nil {
		r.logger.Warnf("Email not sent: %v", err)
	}
}

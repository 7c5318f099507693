package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/llm"
	"github.com/juparave/researchnote/internal/logger"
	"github.com/juparave/researchnote/internal/retry"
)

// Marker summaries substituted when a tier's response cannot be parsed
const (
	PartialParseFailed = "(partial summary parse failed)"
	MergeParseFailed   = "(final merge parse failed)"
	SummaryParseFailed = "(final summary parse failed)"
)

// Summary is the commit-level narrative and risk
type Summary struct {
	OverallSummary string
	OverallRisk    domain.RiskLevel
}

// slimFinding is the part of a FileFinding sent for aggregation
type slimFinding struct {
	FilePath   string            `json:"file_path"`
	ChangeType domain.ChangeType `json:"change_type"`
	Summary    string            `json:"summary"`
	RiskLevel  domain.RiskLevel  `json:"risk_level"`
}

type chunkMeta struct {
	Repo  string `json:"repo"`
	SHA   string `json:"sha"`
	Title string `json:"title"`
}

type commitSummary struct {
	OverallSummary string `json:"overall_summary"`
	OverallRisk    string `json:"overall_risk"`
}

type partialSummary struct {
	PartialSummary *string `json:"partial_summary"`
}

// Summarizer aggregates file findings into one commit summary, splitting the
// findings into batches of at most chunkSize when there are too many for one call.
type Summarizer struct {
	caller
	prompts   Prompts
	chunkSize int
}

// NewSummarizer creates a Summarizer
func NewSummarizer(gen llm.Generator, policy retry.Policy, prompts Prompts, chunkSize int, log *logger.Logger) *Summarizer {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &Summarizer{
		caller:    newCaller(gen, policy, log),
		prompts:   prompts,
		chunkSize: chunkSize,
	}
}

// Summarize returns the commit summary. Unparseable responses degrade to
// marker text; an error means a generation call itself failed.
func (s *Summarizer) Summarize(ctx context.Context, findings []domain.FileFinding, meta domain.Meta) (Summary, error) {
	slim := lo.Map(findings, func(f domain.FileFinding, _ int) slimFinding {
		return slimFinding{
			FilePath:   f.FilePath,
			ChangeType: f.ChangeType,
			Summary:    f.Summary,
			RiskLevel:  f.RiskLevel,
		}
	})

	if len(slim) <= s.chunkSize {
		return s.single(ctx, slim, meta)
	}

	chunks := lo.Chunk(slim, s.chunkSize)
	s.logger.Debugf("Summarizing %s in %d chunks of up to %d files", meta.SHA, len(chunks), s.chunkSize)

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		partial, err := s.partial(ctx, chunk, i, len(chunks), meta)
		if err != nil {
			return Summary{}, err
		}
		partials = append(partials, partial)
	}

	return s.merge(ctx, partials, meta)
}

func (s *Summarizer) single(ctx context.Context, files []slimFinding, meta domain.Meta) (Summary, error) {
	user, err := encode(map[string]any{
		"meta":  meta,
		"files": files,
	})
	if err != nil {
		return Summary{}, err
	}

	raw, err := s.generate(ctx, llm.Request{
		Name:   "summary",
		System: s.prompts.Summary,
		User:   user,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing commit: %w", err)
	}
	return s.decodeCommitSummary(raw, SummaryParseFailed), nil
}

func (s *Summarizer) partial(ctx context.Context, files []slimFinding, index, total int, meta domain.Meta) (string, error) {
	user, err := encode(map[string]any{
		"meta":   chunkMeta{Repo: meta.Repo, SHA: meta.SHA, Title: meta.Title},
		"chunk":  index + 1,
		"chunks": total,
		"files":  files,
	})
	if err != nil {
		return "", err
	}

	raw, err := s.generate(ctx, llm.Request{
		Name:   "partial",
		System: s.prompts.Partial,
		User:   user,
	})
	if err != nil {
		return "", fmt.Errorf("summarizing chunk %d/%d: %w", index+1, total, err)
	}

	out, err := llm.DecodeJSON[partialSummary](raw)
	if err != nil {
		s.logger.Warnf("Unparseable partial summary %d/%d for %s: %v", index+1, total, meta.SHA, err)
		return PartialParseFailed, nil
	}
	if out.PartialSummary == nil || strings.TrimSpace(*out.PartialSummary) == "" {
		s.logger.Warnf("Partial summary %d/%d for %s has no partial_summary", index+1, total, meta.SHA)
		return PartialParseFailed, nil
	}
	return *out.PartialSummary, nil
}

func (s *Summarizer) merge(ctx context.Context, partials []string, meta domain.Meta) (Summary, error) {
	user, err := encode(map[string]any{
		"meta":              meta,
		"partial_summaries": partials,
	})
	if err != nil {
		return Summary{}, err
	}

	raw, err := s.generate(ctx, llm.Request{
		Name:   "merge",
		System: s.prompts.Merge,
		User:   user,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("merging %d partial summaries: %w", len(partials), err)
	}
	return s.decodeCommitSummary(raw, MergeParseFailed), nil
}

func (s *Summarizer) decodeCommitSummary(raw, marker string) Summary {
	out, err := llm.DecodeJSON[commitSummary](raw)
	if err != nil {
		s.logger.Warnf("Unparseable commit summary: %v", err)
		return Summary{OverallSummary: marker, OverallRisk: domain.RiskMedium}
	}
	return Summary{
		OverallSummary: out.OverallSummary,
		OverallRisk:    domain.ParseRiskLevel(out.OverallRisk),
	}
}

package review

import (
	"context"
	"fmt"

	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/llm"
	"github.com/juparave/researchnote/internal/logger"
	"github.com/juparave/researchnote/internal/retry"
)

// fileAnalysis is the structured output requested for a single file
type fileAnalysis struct {
	Summary         *string        `json:"summary"`
	RiskLevel       string         `json:"risk_level"`
	BreakingChanges llm.StringList `json:"breaking_changes"`
	TestImpact      llm.StringList `json:"test_impact"`
	MigrationNotes  llm.StringList `json:"migration_notes"`
	OwnerGuess      *string        `json:"owner_guess"`
}

// FileAnalyzer produces a FileFinding for one changed file
type FileAnalyzer struct {
	caller
	prompt string
}

// NewFileAnalyzer creates a FileAnalyzer
func NewFileAnalyzer(gen llm.Generator, policy retry.Policy, prompts Prompts, log *logger.Logger) *FileAnalyzer {
	return &FileAnalyzer{
		caller: newCaller(gen, policy, log),
		prompt: prompts.File,
	}
}

// Analyze returns the finding for one file. A response that cannot be parsed
// yields a placeholder finding, never an error; only generation failures that
// outlast the retry policy are returned.
func (a *FileAnalyzer) Analyze(ctx context.Context, path string, change domain.ChangeType, diff string) (domain.FileFinding, error) {
	if diff == "" {
		return domain.NewPlaceholderFinding(path, change, domain.SummaryNoDiff), nil
	}

	raw, err := a.generate(ctx, llm.Request{
		Name:   "file",
		System: a.prompt,
		User:   fmt.Sprintf("file_path: %s\nchange_type: %s\n\nDIFF:\n%s", path, change, diff),
	})
	if err != nil {
		return domain.FileFinding{}, fmt.Errorf("analyzing %s: %w", path, err)
	}

	out, err := llm.DecodeJSON[fileAnalysis](raw)
	if err != nil {
		a.logger.Warnf("Unparseable analysis for %s: %v", path, err)
		return domain.NewPlaceholderFinding(path, change, domain.SummaryParseFailed), nil
	}

	finding := domain.NewPlaceholderFinding(path, change, domain.SummaryParseFailed)
	if out.Summary != nil {
		finding.Summary = *out.Summary
	}
	finding.RiskLevel = domain.ParseRiskLevel(out.RiskLevel)
	finding.BreakingChanges = append(finding.BreakingChanges, out.BreakingChanges...)
	finding.TestImpact = append(finding.TestImpact, out.TestImpact...)
	finding.MigrationNotes = append(finding.MigrationNotes, out.MigrationNotes...)
	if out.OwnerGuess != nil && *out.OwnerGuess != "" {
		finding.OwnerGuess = out.OwnerGuess
	}
	return finding, nil
}

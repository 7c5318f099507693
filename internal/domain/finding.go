package domain

import "strings"

// RiskLevel represents how risky a change is judged to be
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRiskLevel normalizes free-form model output to a RiskLevel.
// Anything unrecognized becomes RiskMedium.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow
	case RiskHigh:
		return RiskHigh
	default:
		return RiskMedium
	}
}

// Severity orders risk levels, highest risk first (high=0, medium=1, low=2)
func (r RiskLevel) Severity() int {
	switch r {
	case RiskHigh:
		return 0
	case RiskLow:
		return 2
	default:
		return 1
	}
}

// FileFinding is the analysis of one changed file within a commit
type FileFinding struct {
	FilePath        string     `json:"file_path"`
	ChangeType      ChangeType `json:"change_type"`
	Summary         string     `json:"summary"`
	RiskLevel       RiskLevel  `json:"risk_level"`
	BreakingChanges []string   `json:"breaking_changes"`
	TestImpact      []string   `json:"test_impact"`
	MigrationNotes  []string   `json:"migration_notes"`
	OwnerGuess      *string    `json:"owner_guess"`
}

// Placeholder summaries used when no model judgment is available
const (
	SummaryNoDiff      = "Binary or no diff"
	SummaryParseFailed = "LLM parsing failed"
)

// NewPlaceholderFinding returns a medium-risk finding carrying only a marker summary
func NewPlaceholderFinding(path string, change ChangeType, summary string) FileFinding {
	return FileFinding{
		FilePath:        path,
		ChangeType:      change,
		Summary:         summary,
		RiskLevel:       RiskMedium,
		BreakingChanges: []string{},
		TestImpact:      []string{},
		MigrationNotes:  []string{},
	}
}

// IsHighRisk returns true if the finding is high risk
func (f *FileFinding) IsHighRisk() bool {
	return f.RiskLevel == RiskHigh
}

// CommitFinding is the aggregated analysis of one commit
type CommitFinding struct {
	Repo           string        `json:"repo"`
	SHA            string        `json:"sha"`
	Author         *string       `json:"author"`
	AuthorLogin    *string       `json:"author_login"`
	AuthorEmail    *string       `json:"author_email"`
	DateKST        string        `json:"date_kst"`
	Title          string        `json:"title"`
	Files          []FileFinding `json:"files"`
	OverallSummary string        `json:"overall_summary"`
	OverallRisk    RiskLevel     `json:"overall_risk"`
}

// ShortSHA returns the abbreviated commit hash
func (c *CommitFinding) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

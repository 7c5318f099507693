package domain

import "strings"

// AuthorFilter identifies whose commits a report covers
type AuthorFilter struct {
	Login string `json:"login"`
	Email string `json:"email"`
}

// Matches reports whether c was authored by the filtered identity: the
// login or the email matches, case-insensitively.
func (f AuthorFilter) Matches(c *Commit) bool {
	if f.Login != "" && c.AuthorLogin != "" && strings.EqualFold(f.Login, c.AuthorLogin) {
		return true
	}
	return f.Email != "" && c.AuthorEmail != "" && strings.EqualFold(f.Email, c.AuthorEmail)
}

// Report is the output of one run
type Report struct {
	GeneratedAt  string          `json:"generated_at"`
	Model        string          `json:"model"`
	NoteDateKST  string          `json:"note_date_kst"`
	Repos        []string        `json:"repos"`
	Branch       string          `json:"branch"`
	AuthorFilter AuthorFilter    `json:"author_filter"`
	Commits      []CommitFinding `json:"commits"`
}

// HighCount returns the number of high risk commits
func (r *Report) HighCount() int {
	return r.countRisk(RiskHigh)
}

// MediumCount returns the number of medium risk commits
func (r *Report) MediumCount() int {
	return r.countRisk(RiskMedium)
}

// LowCount returns the number of low risk commits
func (r *Report) LowCount() int {
	return r.countRisk(RiskLow)
}

func (r *Report) countRisk(level RiskLevel) int {
	count := 0
	for _, c := range r.Commits {
		if c.OverallRisk == level {
			count++
		}
	}
	return count
}

// FileCount returns the number of analyzed files across all commits
func (r *Report) FileCount() int {
	count := 0
	for _, c := range r.Commits {
		count += len(c.Files)
	}
	return count
}

// HasCommits returns true if any commit was analyzed
func (r *Report) HasCommits() bool {
	return len(r.Commits) > 0
}

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juparave/researchnote/internal/domain"
)

func ptr(s string) *string { return &s }

func sampleReport() *domain.Report {
	return &domain.Report{
		GeneratedAt:  "2025-03-04 12:00:00 UTC",
		Model:        "openai/gpt-4o-mini",
		NoteDateKST:  "2025-03-04",
		Repos:        []string{"acme/api", "acme/web"},
		Branch:       "main",
		AuthorFilter: domain.AuthorFilter{Login: "octocat", Email: "octo@example.com"},
		Commits: []domain.CommitFinding{
			{
				Repo:        "acme/api",
				SHA:         "0123456789abcdef",
				Author:      ptr("Octo Cat"),
				AuthorLogin: ptr("octocat"),
				DateKST:     "2025-03-04 10:00:00 KST",
				Title:       "Add <billing> export",
				Files: []domain.FileFinding{
					{
						FilePath:        "billing/export.go",
						ChangeType:      domain.ChangeAdded,
						Summary:         "Adds CSV export & scheduling",
						RiskLevel:       domain.RiskHigh,
						BreakingChanges: []string{"Export API now requires a tenant id"},
						TestImpact:      []string{},
						MigrationNotes:  []string{"Backfill tenant ids"},
						OwnerGuess:      ptr("billing-team"),
					},
				},
				OverallSummary: "Billing export added.\nSecond line.",
				OverallRisk:    domain.RiskHigh,
			},
			{
				Repo:           "acme/web",
				SHA:            "fedcba9876543210",
				DateKST:        "2025-03-04 15:00:00 KST",
				Title:          "한글 제목",
				Files:          []domain.FileFinding{domain.NewPlaceholderFinding("logo.png", domain.ChangeAdded, domain.SummaryNoDiff)},
				OverallSummary: "Logo swap",
				OverallRisk:    domain.RiskMedium,
			},
		},
	}
}

func githubURL(repo, sha string) string {
	return "https://github.com/" + repo + "/commit/" + sha
}

func TestToMarkdown(t *testing.T) {
	md := NewFormatter("", githubURL).ToMarkdown(sampleReport())

	for _, want := range []string{
		"# Research Note: 2025-03-04\n",
		"- Model: `openai/gpt-4o-mini`\n",
		"- Repositories: acme/api, acme/web\n",
		"- Author: octocat / octo@example.com\n",
		"**2 commits, 2 files** (high: 1, medium: 1, low: 0)",
		"## acme/api\n",
		"### 0123456: Add <billing> export\n",
		"- Risk: **high**\n",
		"- Commit: https://github.com/acme/api/commit/0123456789abcdef\n",
		"> Billing export added.\n> Second line.\n",
		"##### `billing/export.go` (added)\n",
		"**Breaking changes**\n\n- Export API now requires a tenant id\n",
		"**Migration notes**\n\n- Backfill tenant ids\n",
		"_Owner guess: billing-team_",
		"## acme/web\n",
		"### fedcba9: 한글 제목\n",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "Test impact")
}

func TestToMarkdownWithoutLinks(t *testing.T) {
	md := NewFormatter("", nil).ToMarkdown(sampleReport())
	assert.NotContains(t, md, "- Commit:")
}

func TestToMarkdownEmptyReport(t *testing.T) {
	rpt := sampleReport()
	rpt.Commits = nil

	md := NewFormatter("", nil).ToMarkdown(rpt)
	assert.True(t, strings.HasSuffix(md, "> No commits by this author today.\n"))
}

func TestRenderingIsDeterministic(t *testing.T) {
	f := NewFormatter("", githubURL)
	rpt := sampleReport()

	assert.Equal(t, f.ToMarkdown(rpt), f.ToMarkdown(rpt))

	first, err := f.ToJSON(rpt)
	require.NoError(t, err)
	second, err := f.ToJSON(rpt)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestToJSONFieldNamesAndEscaping(t *testing.T) {
	data, err := NewFormatter("", nil).ToJSON(sampleReport())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "\n  \"generated_at\": ")
	assert.Contains(t, text, `"note_date_kst": "2025-03-04"`)
	assert.Contains(t, text, `"author_filter": {`)
	assert.Contains(t, text, `Add <billing> export`)
	assert.Contains(t, text, `CSV export & scheduling`)
	assert.Contains(t, text, `한글 제목`)
	assert.Contains(t, text, `"author_email": null`)
	assert.Contains(t, text, `"test_impact": []`)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.ElementsMatch(t,
		[]string{"generated_at", "model", "note_date_kst", "repos", "branch", "author_filter", "commits"},
		keysOf(generic))
}

func TestToJSONEmptyCommitsIsArray(t *testing.T) {
	rpt := sampleReport()
	rpt.Commits = nil

	data, err := NewFormatter("", nil).ToJSON(rpt)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"commits": []`)
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	f := NewFormatter(dir, githubURL)
	rpt := sampleReport()

	paths, err := f.Write(rpt)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "research_note_20250304.md"), paths.Markdown)
	assert.Equal(t, filepath.Join(dir, "research_note_20250304.json"), paths.JSON)

	loaded, err := Load(paths.JSON)
	require.NoError(t, err)
	if diff := cmp.Diff(rpt, loaded); diff != "" {
		t.Errorf("loaded report mismatch (-want +got):\n%s", diff)
	}

	md, err := os.ReadFile(paths.Markdown)
	require.NoError(t, err)
	assert.Equal(t, f.ToMarkdown(loaded), string(md))
}

func TestWriteOverwritesSameDate(t *testing.T) {
	dir := t.TempDir()
	f := NewFormatter(dir, nil)

	rpt := sampleReport()
	_, err := f.Write(rpt)
	require.NoError(t, err)

	rpt.Commits = rpt.Commits[:1]
	paths, err := f.Write(rpt)
	require.NoError(t, err)

	loaded, err := Load(paths.JSON)
	require.NoError(t, err)
	assert.Len(t, loaded.Commits, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing report")
}

func TestToHTML(t *testing.T) {
	html, err := NewFormatter("", githubURL).ToHTML(sampleReport())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Research Note 2025-03-04</title>")
	assert.Contains(t, html, "<h1>Research Note: 2025-03-04</h1>")
	assert.Contains(t, html, "<code>billing/export.go</code>")
	assert.Contains(t, html, "<blockquote>")
}

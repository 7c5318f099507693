package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/util"
)

const filePrefix = "research_note_"

// Paths are the documents written for one report
type Paths struct {
	Markdown string
	JSON     string
}

// Formatter renders reports and writes them under outputDir
type Formatter struct {
	outputDir string
	commitURL func(repo, sha string) string
	markdown  goldmark.Markdown
}

// NewFormatter creates a Formatter. commitURL may be nil when commits have
// no web view.
func NewFormatter(outputDir string, commitURL func(repo, sha string) string) *Formatter {
	return &Formatter{
		outputDir: outputDir,
		commitURL: commitURL,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// FileName returns the document name for a note date and extension
func FileName(noteDate, ext string) string {
	return filePrefix + util.CompactDate(noteDate) + "." + ext
}

// Write renders rpt as markdown and JSON, replacing any documents already
// written for the same note date.
func (f *Formatter) Write(rpt *domain.Report) (Paths, error) {
	if err := util.EnsureDir(f.outputDir); err != nil {
		return Paths{}, fmt.Errorf("creating output directory: %w", err)
	}

	paths := Paths{
		Markdown: filepath.Join(f.outputDir, FileName(rpt.NoteDateKST, "md")),
		JSON:     filepath.Join(f.outputDir, FileName(rpt.NoteDateKST, "json")),
	}

	if err := util.WriteFile(paths.Markdown, []byte(f.ToMarkdown(rpt))); err != nil {
		return Paths{}, fmt.Errorf("writing markdown report: %w", err)
	}

	data, err := f.ToJSON(rpt)
	if err != nil {
		return Paths{}, err
	}
	if err := util.WriteFile(paths.JSON, data); err != nil {
		return Paths{}, fmt.Errorf("writing json report: %w", err)
	}

	return paths, nil
}

// ToJSON serializes rpt with two-space indentation, leaving non-ASCII and
// HTML characters unescaped.
func (f *Formatter) ToJSON(rpt *domain.Report) ([]byte, error) {
	normalized := *rpt
	if normalized.Repos == nil {
		normalized.Repos = []string{}
	}
	if normalized.Commits == nil {
		normalized.Commits = []domain.CommitFinding{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads a JSON report written by Write
func Load(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	var rpt domain.Report
	if err := json.Unmarshal(data, &rpt); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &rpt, nil
}

// ToMarkdown renders rpt as the research note document
func (f *Formatter) ToMarkdown(rpt *domain.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Research Note: %s\n\n", rpt.NoteDateKST)
	fmt.Fprintf(&sb, "- Generated (UTC): %s\n", rpt.GeneratedAt)
	fmt.Fprintf(&sb, "- Model: `%s`\n", rpt.Model)
	fmt.Fprintf(&sb, "- Repositories: %s\n", strings.Join(rpt.Repos, ", "))
	fmt.Fprintf(&sb, "- Branch: %s\n", rpt.Branch)
	fmt.Fprintf(&sb, "- Author: %s\n", authorLine(rpt.AuthorFilter))
	sb.WriteString("\n")

	if !rpt.HasCommits() {
		sb.WriteString("> No commits by this author today.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "**%d commits, %d files** (high: %d, medium: %d, low: %d)\n\n",
		len(rpt.Commits), rpt.FileCount(), rpt.HighCount(), rpt.MediumCount(), rpt.LowCount())

	currentRepo := ""
	for i := range rpt.Commits {
		c := &rpt.Commits[i]
		if i == 0 || c.Repo != currentRepo {
			currentRepo = c.Repo
			fmt.Fprintf(&sb, "## %s\n\n", currentRepo)
		}
		f.writeCommit(&sb, c)
	}

	return sb.String()
}

func (f *Formatter) writeCommit(sb *strings.Builder, c *domain.CommitFinding) {
	fmt.Fprintf(sb, "### %s: %s\n\n", c.ShortSHA(), c.Title)
	fmt.Fprintf(sb, "- Date: %s\n", c.DateKST)
	fmt.Fprintf(sb, "- Risk: **%s**\n", c.OverallRisk)
	if c.Author != nil {
		fmt.Fprintf(sb, "- Author: %s\n", *c.Author)
	}
	if f.commitURL != nil {
		if url := f.commitURL(c.Repo, c.SHA); url != "" {
			fmt.Fprintf(sb, "- Commit: %s\n", url)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("#### Overview\n\n")
	summary := c.OverallSummary
	if strings.TrimSpace(summary) == "" {
		summary = "(no summary)"
	}
	sb.WriteString("> " + strings.ReplaceAll(summary, "\n", "\n> ") + "\n\n")

	sb.WriteString("#### Files\n\n")
	for _, file := range c.Files {
		fmt.Fprintf(sb, "##### `%s` (%s)\n\n", file.FilePath, file.ChangeType)
		fmt.Fprintf(sb, "**Risk:** %s\n\n", file.RiskLevel)
		sb.WriteString(file.Summary + "\n\n")

		writeList(sb, "Breaking changes", file.BreakingChanges)
		writeList(sb, "Test impact", file.TestImpact)
		writeList(sb, "Migration notes", file.MigrationNotes)

		if file.OwnerGuess != nil {
			fmt.Fprintf(sb, "_Owner guess: %s_\n\n", *file.OwnerGuess)
		}
	}
	sb.WriteString("---\n\n")
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s**\n\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
	sb.WriteString("\n")
}

func authorLine(a domain.AuthorFilter) string {
	switch {
	case a.Login != "" && a.Email != "":
		return a.Login + " / " + a.Email
	case a.Login != "":
		return a.Login
	default:
		return a.Email
	}
}

// ToHTML renders the markdown note as a standalone HTML document
func (f *Formatter) ToHTML(rpt *domain.Report) (string, error) {
	var body bytes.Buffer
	if err := f.markdown.Convert([]byte(f.ToMarkdown(rpt)), &body); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&sb, "<title>Research Note %s</title>\n", rpt.NoteDateKST)
	sb.WriteString(`<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 860px; margin: 0 auto; padding: 20px; color: #24292f; }
code { background: #f6f8fa; padding: 2px 4px; border-radius: 4px; }
blockquote { border-left: 4px solid #d0d7de; margin: 0; padding: 0 12px; color: #57606a; }
h2 { border-bottom: 1px solid #d0d7de; padding-bottom: 4px; }
</style>
</head>
<body>
`)
	sb.Write(body.Bytes())
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}

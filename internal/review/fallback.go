package review

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/juparave/researchnote/internal/domain"
)

// FallbackPrefix starts every locally composed summary
const FallbackPrefix = "(local summary)"

const fallbackTopFiles = 3

// Fallback composes a commit summary from the file findings alone, without
// any external call. The risk is never reported as low.
func Fallback(findings []domain.FileFinding, meta domain.Meta) Summary {
	ranked := slices.Clone(findings)
	slices.SortStableFunc(ranked, func(a, b domain.FileFinding) int {
		return a.RiskLevel.Severity() - b.RiskLevel.Severity()
	})
	top := ranked[:min(len(ranked), fallbackTopFiles)]

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", FallbackPrefix, meta.Title)
	for _, f := range top {
		fmt.Fprintf(&sb, "\n- %s (%s, risk: %s): %s", f.FilePath, f.ChangeType, f.RiskLevel, f.Summary)
	}

	risk := domain.RiskMedium
	if lo.ContainsBy(findings, func(f domain.FileFinding) bool { return f.IsHighRisk() }) {
		risk = domain.RiskHigh
	}

	return Summary{OverallSummary: sb.String(), OverallRisk: risk}
}

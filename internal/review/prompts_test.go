package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPromptsRendersLanguage(t *testing.T) {
	p, err := LoadPrompts("Korean")
	require.NoError(t, err)

	for name, prompt := range map[string]string{
		"file": p.File, "summary": p.Summary, "partial": p.Partial, "merge": p.Merge,
	} {
		assert.Contains(t, prompt, "Korean", name)
		assert.NotContains(t, prompt, "{{", name)
	}
	assert.Contains(t, p.File, `"risk_level"`)
	assert.Contains(t, p.Partial, `"partial_summary"`)
	assert.Contains(t, p.Merge, `"overall_risk"`)
}

func TestLoadPromptsDefaultsToEnglish(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Contains(t, p.Summary, "English")
}

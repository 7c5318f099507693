package review

import (
	"embed"
	"fmt"

	"github.com/flanksource/gomplate/v3"
)

//go:embed prompts/*.md
var promptFS embed.FS

// Prompts holds the rendered system prompts for each call kind
type Prompts struct {
	File    string
	Summary string
	Partial string
	Merge   string
}

// LoadPrompts renders the embedded prompt templates for the given output language
func LoadPrompts(language string) (Prompts, error) {
	if language == "" {
		language = "English"
	}
	data := map[string]any{"language": language}

	var p Prompts
	for name, dst := range map[string]*string{
		"file":    &p.File,
		"summary": &p.Summary,
		"partial": &p.Partial,
		"merge":   &p.Merge,
	} {
		raw, err := promptFS.ReadFile("prompts/" + name + ".md")
		if err != nil {
			return Prompts{}, fmt.Errorf("reading %s prompt: %w", name, err)
		}
		out, err := gomplate.RunTemplate(data, gomplate.Template{Template: string(raw)})
		if err != nil {
			return Prompts{}, fmt.Errorf("failed to render %s prompt template: %w", name, err)
		}
		*dst = out
	}
	return p, nil
}

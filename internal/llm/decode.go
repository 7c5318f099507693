package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON parses model text into T. Markdown code fences and prose around
// the outermost JSON object are tolerated. Callers decide what a failure means.
func DecodeJSON[T any](text string) (T, error) {
	var out T

	text = strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}

	text = stripFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return out, fmt.Errorf("no JSON object in response: %q", truncate(text, 120))
	}

	out = *new(T)
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return out, nil
}

// stripFences removes a code fence wrapping the whole response. Fences
// inside the text are left alone.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StringList decodes either a JSON array of strings or a single string.
// Models are not consistent about which one they return.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = compact(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*l = compact([]string{single})
	return nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

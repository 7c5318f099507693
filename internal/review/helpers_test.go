package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/llm"
	"github.com/juparave/researchnote/internal/retry"
)

var testPrompts = Prompts{
	File:    "file prompt",
	Summary: "summary prompt",
	Partial: "partial prompt",
	Merge:   "merge prompt",
}

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}
}

// fakeGenerator records every request and answers through respond
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []llm.Request
	respond func(n int, req llm.Request) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(n, req)
}

func (f *fakeGenerator) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.Name
	}
	return names
}

func (f *fakeGenerator) count(name string) int {
	n := 0
	for _, got := range f.names() {
		if got == name {
			n++
		}
	}
	return n
}

func (f *fakeGenerator) last(name string) llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Name == name {
			return f.calls[i]
		}
	}
	return llm.Request{}
}

func makeFindings(n int) []domain.FileFinding {
	findings := make([]domain.FileFinding, n)
	for i := range findings {
		findings[i] = domain.FileFinding{
			FilePath:        fmt.Sprintf("pkg/file%02d.go", i),
			ChangeType:      domain.ChangeModified,
			Summary:         fmt.Sprintf("changed file %02d", i),
			RiskLevel:       domain.RiskLow,
			BreakingChanges: []string{"secret-breaking-detail"},
		}
	}
	return findings
}

var testMeta = domain.Meta{Repo: "acme/api", SHA: "abc1234def", Title: "Add billing export"}

// Package review turns file diffs into findings and findings into a
// commit-level narrative using an external text generator.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/juparave/researchnote/internal/llm"
	"github.com/juparave/researchnote/internal/logger"
	"github.com/juparave/researchnote/internal/retry"
)

// caller issues generation requests under the retry policy. Rejected
// requests are never retried.
type caller struct {
	gen    llm.Generator
	policy retry.Policy
	logger *logger.Logger
}

func newCaller(gen llm.Generator, policy retry.Policy, log *logger.Logger) caller {
	if log == nil {
		log = logger.Nop()
	}
	return caller{gen: gen, policy: policy.WithPermanent(llm.IsRejected), logger: log}
}

func (c caller) generate(ctx context.Context, req llm.Request) (string, error) {
	policy := c.policy.WithOnRetry(func(err error, wait time.Duration) {
		c.logger.Warnf("%s call failed, retrying in %s: %v", req.Name, wait.Round(time.Millisecond), err)
	})
	return retry.Do(ctx, policy, func() (string, error) {
		return c.gen.Generate(ctx, req)
	})
}

// encode renders v as compact JSON without HTML escaping
func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding request payload: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	oai "github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/openai/openai-go/option"

	"github.com/juparave/researchnote/internal/config"
)

// GenkitClient generates text through Genkit
type GenkitClient struct {
	genkit  *genkit.Genkit
	modelID string
}

// NewGenkitClient creates a client for the configured provider
func NewGenkitClient(ctx context.Context, cfg config.ReviewConfig) (*GenkitClient, error) {
	var g *genkit.Genkit
	var modelID string

	switch cfg.Provider {
	case "openai", "":
		// OpenAI or an OpenAI-compatible API
		var opts []option.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}

		modelID = prefixModel("openai", cfg.Model, "gpt-4o-mini")
		g = genkit.Init(ctx,
			genkit.WithDefaultModel(modelID),
			genkit.WithPlugins(&oai.OpenAI{
				APIKey: cfg.APIKey,
				Opts:   opts,
			}),
		)

	case "googleai":
		modelID = prefixModel("googleai", cfg.Model, "gemini-2.0-flash")
		g = genkit.Init(ctx,
			genkit.WithDefaultModel(modelID),
			genkit.WithPlugins(&googlegenai.GoogleAI{
				APIKey: cfg.APIKey,
			}),
		)

	default:
		return nil, fmt.Errorf("unknown review provider: %s", cfg.Provider)
	}

	return &GenkitClient{genkit: g, modelID: modelID}, nil
}

// prefixModel qualifies a bare model name with the Genkit plugin prefix
func prefixModel(prefix, model, fallback string) string {
	if model == "" {
		model = fallback
	}
	if !strings.Contains(model, "/") {
		model = prefix + "/" + model
	}
	return model
}

// ModelID returns the fully qualified model identifier
func (c *GenkitClient) ModelID() string {
	return c.modelID
}

// Generate sends the system and user turns and asks for a JSON object back
func (c *GenkitClient) Generate(ctx context.Context, req Request) (string, error) {
	text, err := genkit.GenerateText(ctx, c.genkit,
		ai.WithModelName(c.modelID),
		ai.WithMessages(
			ai.NewSystemTextMessage(req.System),
			ai.NewUserTextMessage(req.User),
		),
		ai.WithOutputFormat(ai.OutputFormatJSON),
	)
	if err != nil {
		if IsRejected(err) {
			return "", fmt.Errorf("%s call: %w: %w", req.Name, ErrRejected, err)
		}
		return "", fmt.Errorf("%s call: %w", req.Name, err)
	}
	return text, nil
}

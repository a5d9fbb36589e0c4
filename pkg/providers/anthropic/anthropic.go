package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/providers"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 1024
)

// Analyzer judges content credibility through the Anthropic Messages API.
type Analyzer struct {
	client anthropic.Client
	model  string
}

// New builds an Anthropic-backed analyzer from the shared provider config.
func New(cfg providers.Config) (*Analyzer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic analysis requires an API key (set anthropic.api_key in config or ANTHROPIC_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}

	return &Analyzer{client: anthropic.NewClient(opts...), model: model}, nil
}

func (a *Analyzer) Name() string { return "anthropic" }

// Analyze sends the item to the model and maps the structured reply onto an
// Analysis for the requested aspect.
func (a *Analyzer) Analyze(ctx context.Context, req providers.Request) (providers.Analysis, error) {
	utils.Log.Debugf("[anthropic] analyzing %s item (aspect %s)", req.Item.Type, req.Aspect)

	payloadJSON, err := providers.BuildPayload(req.Item)
	if err != nil {
		return providers.Analysis{}, err
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(0.1),
		System:      []anthropic.TextBlockParam{{Text: providers.PromptFor(req.Aspect)}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(payloadJSON))),
		},
	})
	if err != nil {
		return providers.Analysis{}, fmt.Errorf("anthropic analysis: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text = strings.TrimSpace(tb.Text)
			break
		}
	}
	if text == "" {
		return providers.Analysis{}, errors.New("anthropic analysis returned an empty response")
	}

	return providers.ParseReply(req.Aspect, stripFences(text))
}

// stripFences removes a markdown code fence if the model wrapped its JSON in one.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

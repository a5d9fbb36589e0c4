package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/veriscope/veriscope/internal/utils"
	"github.com/veriscope/veriscope/pkg/providers"
)

const (
	defaultModel    = "gpt-4.1-mini"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Analyzer judges content credibility through the OpenAI chat completions API.
type Analyzer struct {
	apiKey   string
	model    string
	endpoint string
	client   httpClient
}

// New builds an OpenAI-backed analyzer from the shared provider config.
func New(cfg providers.Config) (*Analyzer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai analysis requires an API key (set openai.api_key in config or OPENAI_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	client := httpClient(cfg.HTTPClient)
	if cfg.HTTPClient == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	return &Analyzer{apiKey: apiKey, model: model, endpoint: endpoint, client: client}, nil
}

func (a *Analyzer) Name() string { return "openai" }

// Analyze sends the item to the model and maps the structured reply onto an
// Analysis for the requested aspect.
func (a *Analyzer) Analyze(ctx context.Context, req providers.Request) (providers.Analysis, error) {
	utils.Log.Debugf("[openai] analyzing %s item (aspect %s)", req.Item.Type, req.Aspect)

	content, err := a.queryLLM(ctx, req)
	if err != nil {
		return providers.Analysis{}, err
	}
	return providers.ParseReply(req.Aspect, content)
}

func (a *Analyzer) queryLLM(ctx context.Context, req providers.Request) (string, error) {
	payloadJSON, err := providers.BuildPayload(req.Item)
	if err != nil {
		return "", err
	}

	reqBody := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: providers.PromptFor(req.Aspect)},
			{Role: "user", Content: string(payloadJSON)},
		},
		Temperature:    0.1,
		ResponseFormat: chatResponseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErrResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErrResp)
		if apiErrResp.Error.Message != "" {
			return "", fmt.Errorf("openai analysis: %s", apiErrResp.Error.Message)
		}
		return "", fmt.Errorf("openai analysis failed with HTTP %d", resp.StatusCode)
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", err
	}

	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return "", errors.New("openai analysis returned an empty response")
	}

	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []chatMessage      `json:"messages"`
	Temperature    float64            `json:"temperature"`
	ResponseFormat chatResponseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

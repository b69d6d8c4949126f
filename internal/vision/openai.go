package vision

import (
	"context"
	"net/http"
	"strings"

	"go-glow-ai/internal/request"
)

// OpenAIConfig configures an OpenAI-compatible chat completions provider.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// OpenAI calls {BaseURL}/chat/completions with a JSON-object response
// format.
type OpenAI struct {
	cfg      OpenAIConfig
	scrubber *strings.Replacer
}

// NewOpenAI creates a provider. Zero MaxTokens and Temperature fall back to
// 800 and 0.6.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.6
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAI{
		cfg:      cfg,
		scrubber: request.Scrubber(cfg.APIKey),
	}
}

func (p *OpenAI) Name() string { return "openai:" + p.cfg.Model }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAI) buildRequest(req Request) chatRequest {
	return chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: withNote(userPrompt, req.Note)},
				{Type: "image_url", ImageURL: &imageURL{URL: req.DataURI, Detail: "low"}},
			}},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		MaxTokens:      p.cfg.MaxTokens,
		Temperature:    p.cfg.Temperature,
	}
}

// Analyze sends one chat completion request.
func (p *OpenAI) Analyze(ctx context.Context, req Request) (string, error) {
	if p.cfg.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	resp, err := request.MakeJSON[chatResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    p.cfg.BaseURL + "/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + p.cfg.APIKey,
		},
		Body:       p.buildRequest(req),
		HTTPClient: p.cfg.HTTPClient,
		Scrubber:   p.scrubber,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", ErrInvalidEnvelope
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

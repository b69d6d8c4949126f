package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// Gemini calls Google Gemini with a response schema that forces all six
// result fields.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGemini creates a Gemini client. Callers must Close it.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.6
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = ResultSchema()
	model.SetMaxOutputTokens(cfg.MaxTokens)
	model.SetTemperature(cfg.Temperature)

	return &Gemini{client: client, model: model, name: "gemini:" + cfg.Model}, nil
}

// ResultSchema describes AnalysisResult for structured output.
func ResultSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"season":      str,
			"description": str,
			"bestColors": {
				Type:  genai.TypeArray,
				Items: str,
			},
			"worstColor": str,
			"yogaTitle":  str,
			"yogaText":   str,
		},
		Required: []string{"season", "description", "bestColors", "worstColor", "yogaTitle", "yogaText"},
	}
}

func (g *Gemini) Name() string { return g.name }

// Analyze sends the image inline with the Russian prompt.
func (g *Gemini) Analyze(ctx context.Context, req Request) (string, error) {
	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("jpeg", req.JPEG),
		genai.Text(withNote(geminiPrompt, req.Note)),
	)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrInvalidEnvelope
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", ErrEmptyContent
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"google.golang.org/genai"
)

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrInvalidOutput = errors.New("model output does not match the extraction schema")
)

type Provider interface {
	SendPrompt(ctx context.Context, system, user string) (*Extraction, error)
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) SendPrompt(ctx context.Context, system, user string) (*Extraction, error) {
	log := config.WithContext(ctx)

	result, err := p.client.Models.GenerateContent(
		ctx,
		p.model,
		genai.Text(system+"\n\n"+user),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		log.WithError(err).Error("Failed to generate content with Gemini")
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := result.Text()
	log.Debugf("[EXTRACTION] Raw Gemini response:\n%s", raw)
	return Decode(raw)
}

// Decode strips fences, validates and decodes a raw model reply.
func Decode(raw string) (*Extraction, error) {
	if raw == "" {
		return nil, ErrEmptyResponse
	}
	clean := []byte(StripFences(raw))
	if err := Validate(clean); err != nil {
		return nil, err
	}
	var out Extraction
	if err := json.Unmarshal(clean, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return &out, nil
}

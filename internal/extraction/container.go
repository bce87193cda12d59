package extraction

import (
	"context"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
)

type ExtractionContainer struct {
	Service Service
}

func NewExtractionContainer(ctx context.Context, s *config.Settings) (*ExtractionContainer, error) {
	provider, err := NewGeminiProvider(ctx, s.GeminiAPIKey, s.LLMModel)
	if err != nil {
		return nil, err
	}
	return &ExtractionContainer{
		Service: NewService(provider),
	}, nil
}

package extraction

import (
	"context"
	"errors"
	"strings"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/sirupsen/logrus"
)

var ErrNothingToExtract = errors.New("meeting text is empty")

type Service interface {
	Extract(ctx context.Context, req Request) (*Extraction, error)
}

type service struct {
	provider Provider
}

func NewService(provider Provider) Service {
	return &service{provider: provider}
}

func (s *service) Extract(ctx context.Context, req Request) (*Extraction, error) {
	log := config.WithContext(ctx)
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrNothingToExtract
	}

	out, err := s.provider.SendPrompt(ctx, systemPrompt, BuildUserPrompt(req))
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"decisions":    len(out.Decisions),
		"action_items": len(out.ActionItems),
		"tickets":      len(out.Tickets),
	}).Info("[EXTRACTION] Meeting extracted")
	return out, nil
}

package meeting

import (
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/dedup"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
	"github.com/saulo-duarte/chronos-autopilot/internal/pipeline"
)

type MeetingContainer struct {
	Service MeetingService
	Handler *Handler
}

// NewMeetingContainer accepts a nil pipeline for read-only commands.
func NewMeetingContainer(
	s *config.Settings,
	provider notes.Provider,
	p pipeline.Pipeline,
	runs pipeline.RunRepository,
	guard *dedup.Guard,
) *MeetingContainer {
	service := NewService(provider, p, guard, runs, s.CandidateLimit)
	handler := NewHandler(service)

	return &MeetingContainer{
		Service: service,
		Handler: handler,
	}
}

package pipeline

import (
	"github.com/saulo-duarte/chronos-autopilot/internal/extraction"
	"github.com/saulo-duarte/chronos-autopilot/internal/notify"
	"github.com/saulo-duarte/chronos-autopilot/internal/ticket"
	"gorm.io/gorm"
)

type PipelineContainer struct {
	Repo     RunRepository
	Pipeline Pipeline
}

// NewRunRepositoryFor stores runs with gorm when db is non-nil and in memory
// otherwise.
func NewRunRepositoryFor(db *gorm.DB) (RunRepository, error) {
	if db == nil {
		return NewMemoryRepository(), nil
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, err
	}
	return NewRepository(db), nil
}

func NewPipelineContainer(repo RunRepository, extractor extraction.Service, tracker ticket.Tracker, notifier notify.Notifier) *PipelineContainer {
	return &PipelineContainer{
		Repo:     repo,
		Pipeline: New(extractor, tracker, notifier, repo),
	}
}

// Package meeting implements the operator's manual surface: listing recent
// notes documents and processing one on demand.
package meeting

import (
	"context"
	"errors"
	"fmt"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/dedup"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
	"github.com/saulo-duarte/chronos-autopilot/internal/pipeline"
	"github.com/sirupsen/logrus"
)

const DefaultListLimit = 20

var (
	ErrAlreadyProcessed = errors.New("document already processed")
	ErrPipelineDisabled = errors.New("processing pipeline is not configured")
	ErrNotReady         = pipeline.ErrNotReady
	ErrNotFound         = notes.ErrNotFound
	ErrNoTitle          = notes.ErrNoTitle
)

type DocumentStatus struct {
	notes.Document `yaml:",inline"`
	Processed      bool `json:"processed" yaml:"processed"`
}

type Outcome struct {
	Document notes.Document  `json:"document"`
	Result   pipeline.Result `json:"result"`
}

type MeetingService interface {
	ListRecent(ctx context.Context, limit int) ([]DocumentStatus, error)
	ProcessLatest(ctx context.Context, force bool) (*Outcome, error)
	ProcessByTitle(ctx context.Context, query string, force bool) (*Outcome, error)
	ProcessByID(ctx context.Context, id string, force bool) (*Outcome, error)
	Reset(ctx context.Context) error
	ListRuns(ctx context.Context, limit int) ([]*pipeline.Run, error)
}

type meetingService struct {
	notes    notes.Provider
	pipeline pipeline.Pipeline
	guard    *dedup.Guard
	runs     pipeline.RunRepository
	limit    int
}

func NewService(provider notes.Provider, p pipeline.Pipeline, guard *dedup.Guard, runs pipeline.RunRepository, limit int) MeetingService {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return &meetingService{
		notes:    provider,
		pipeline: p,
		guard:    guard,
		runs:     runs,
		limit:    limit,
	}
}

func (s *meetingService) ListRecent(ctx context.Context, limit int) ([]DocumentStatus, error) {
	log := config.WithContext(ctx)
	if limit <= 0 {
		limit = s.limit
	}

	docs, err := s.notes.ListDocuments(ctx, limit)
	if err != nil {
		log.WithError(err).Error("Failed to list notes documents")
		return nil, err
	}

	out := make([]DocumentStatus, 0, len(docs))
	for _, doc := range docs {
		out = append(out, DocumentStatus{Document: doc, Processed: s.guard.Has(ctx, doc.ID)})
	}
	return out, nil
}

func (s *meetingService) ProcessLatest(ctx context.Context, force bool) (*Outcome, error) {
	docs, err := s.notes.ListDocuments(ctx, s.limit)
	if err != nil {
		return nil, err
	}
	var skip func(string) bool
	if !force {
		skip = func(id string) bool { return s.guard.Has(ctx, id) }
	}
	doc, err := notes.Latest(docs, skip)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, doc, force)
}

func (s *meetingService) ProcessByTitle(ctx context.Context, query string, force bool) (*Outcome, error) {
	docs, err := s.notes.ListDocuments(ctx, s.limit)
	if err != nil {
		return nil, err
	}
	doc, err := notes.FindByTitle(docs, query)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, doc, force)
}

func (s *meetingService) ProcessByID(ctx context.Context, id string, force bool) (*Outcome, error) {
	doc, err := s.notes.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, doc, force)
}

func (s *meetingService) process(ctx context.Context, doc notes.Document, force bool) (*Outcome, error) {
	ctx = config.ContextWithFields(ctx, logrus.Fields{"document_id": doc.ID, "document_title": doc.Title})
	log := config.WithContext(ctx)

	if s.pipeline == nil {
		return nil, ErrPipelineDisabled
	}
	if !force && s.guard.Has(ctx, doc.ID) {
		log.Info("Document already processed, use force to run it again")
		return nil, ErrAlreadyProcessed
	}

	content, err := s.notes.FetchContent(ctx, doc)
	if err != nil {
		if !content.Ready() {
			return nil, fmt.Errorf("fetch content: %w", err)
		}
		log.WithError(err).Warn("Partial document content, processing what was returned")
	}
	if !content.Ready() {
		return nil, ErrNotReady
	}

	result, err := s.pipeline.Run(ctx, pipeline.Meeting{
		Document:  doc,
		Content:   content,
		Title:     doc.Title,
		StartedAt: doc.CreatedAt,
		Trigger:   pipeline.TriggerManual,
	})
	if err != nil {
		return nil, err
	}

	s.guard.MarkDone(ctx, doc.ID)
	return &Outcome{Document: doc, Result: result}, nil
}

func (s *meetingService) Reset(ctx context.Context) error {
	if err := s.guard.Reset(ctx); err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to reset dedup store")
		return err
	}
	config.WithContext(ctx).Warn("Dedup store cleared, every meeting is eligible again")
	return nil
}

func (s *meetingService) ListRuns(ctx context.Context, limit int) ([]*pipeline.Run, error) {
	if limit <= 0 {
		limit = s.limit
	}
	runs, err := s.runs.ListRecent(limit)
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to list runs")
		return nil, err
	}
	return runs, nil
}

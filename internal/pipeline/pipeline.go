package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/extraction"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
	"github.com/saulo-duarte/chronos-autopilot/internal/notify"
	"github.com/saulo-duarte/chronos-autopilot/internal/ticket"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var ErrNotReady = errors.New("meeting has no notes or transcript yet")

type Meeting struct {
	// EventID is empty for manually processed documents.
	EventID   string
	Document  notes.Document
	Content   notes.Content
	Title     string
	StartedAt time.Time
	Trigger   Trigger
}

type Result struct {
	RunID           uuid.UUID `json:"run_id"`
	TicketIDs       []string  `json:"ticket_ids"`
	NotificationRef string    `json:"notification_ref"`
}

// Pipeline extracts a meeting, files its tickets and posts a summary.
// Any failing step fails the whole run.
type Pipeline interface {
	Run(ctx context.Context, m Meeting) (Result, error)
}

type pipeline struct {
	extractor extraction.Service
	tracker   ticket.Tracker
	notifier  notify.Notifier
	runs      RunRepository
	now       func() time.Time
}

func New(extractor extraction.Service, tracker ticket.Tracker, notifier notify.Notifier, runs RunRepository) Pipeline {
	if runs == nil {
		runs = NewMemoryRepository()
	}
	return &pipeline{
		extractor: extractor,
		tracker:   tracker,
		notifier:  notifier,
		runs:      runs,
		now:       time.Now,
	}
}

func (p *pipeline) Run(ctx context.Context, m Meeting) (Result, error) {
	title := m.Title
	if title == "" {
		title = m.Document.Title
	}
	run := &Run{
		ID:         uuid.New(),
		EventID:    m.EventID,
		DocumentID: m.Document.ID,
		Title:      title,
		Trigger:    m.Trigger,
		Status:     RunStatusRunning,
		StartedAt:  p.now().UTC(),
	}
	if run.Trigger == "" {
		run.Trigger = TriggerScheduler
	}
	ctx = config.ContextWithFields(ctx, logrus.Fields{"run_id": run.ID.String()})
	log := config.WithContext(ctx)

	if err := p.runs.Create(run); err != nil {
		log.WithError(err).Warn("Failed to record run start")
	}

	result, err := p.execute(ctx, m, title)
	result.RunID = run.ID
	p.finish(ctx, run, result, err)
	if err != nil {
		return result, err
	}

	log.WithFields(logrus.Fields{
		"tickets":          len(result.TicketIDs),
		"notification_ref": result.NotificationRef,
	}).Info("Meeting processed")
	return result, nil
}

func (p *pipeline) execute(ctx context.Context, m Meeting, title string) (Result, error) {
	var result Result
	if !m.Content.Ready() {
		return result, ErrNotReady
	}

	started := m.StartedAt
	if started.IsZero() {
		started = m.Document.CreatedAt
	}
	extracted, err := p.extractor.Extract(ctx, extraction.Request{
		Title:     title,
		StartedAt: started,
		Text:      m.Content.Text(),
	})
	if err != nil {
		return result, fmt.Errorf("extract: %w", err)
	}

	links := make([]notify.TicketLink, 0, len(extracted.Tickets))
	for _, draft := range extracted.Tickets {
		created, err := p.tracker.CreateTicket(ctx, ticket.Draft{
			Title:       draft.Title,
			Description: draft.Description,
			Assignee:    draft.Assignee,
			Priority:    draft.Priority,
			Labels:      draft.Labels,
		})
		if err != nil {
			return result, fmt.Errorf("create ticket: %w", err)
		}
		result.TicketIDs = append(result.TicketIDs, created.ID)
		links = append(links, notify.TicketLink{ID: created.ID, Title: created.Title, URL: created.URL})
	}

	ref, err := p.notifier.Notify(ctx, notify.Message{
		Title:       title,
		StartedAt:   started,
		Summary:     extracted.Summary,
		Decisions:   extracted.Decisions,
		ActionItems: formatActionItems(extracted.ActionItems),
		Tickets:     links,
	})
	if err != nil {
		return result, fmt.Errorf("notify: %w", err)
	}
	result.NotificationRef = ref
	return result, nil
}

func (p *pipeline) finish(ctx context.Context, run *Run, result Result, runErr error) {
	finished := p.now().UTC()
	run.FinishedAt = &finished
	run.NotificationRef = result.NotificationRef
	if ids, err := json.Marshal(result.TicketIDs); err == nil {
		run.TicketIDs = datatypes.JSON(ids)
	}
	run.Status = RunStatusSucceeded
	if runErr != nil {
		run.Status = RunStatusFailed
		run.Error = runErr.Error()
	}
	if err := p.runs.Update(run); err != nil {
		config.WithContext(ctx).WithError(err).Warn("Failed to record run result")
	}
}

func formatActionItems(items []extraction.ActionItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		line := strings.TrimSpace(item.Description)
		if item.Owner != "" {
			line = item.Owner + ": " + line
		}
		if item.DueDate != "" {
			line += " (due " + item.DueDate + ")"
		}
		out = append(out, line)
	}
	return out
}

package container

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/chronos-autopilot/internal/auth"
	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/dedup"
	"github.com/saulo-duarte/chronos-autopilot/internal/extraction"
	"github.com/saulo-duarte/chronos-autopilot/internal/meeting"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
	"github.com/saulo-duarte/chronos-autopilot/internal/notify"
	"github.com/saulo-duarte/chronos-autopilot/internal/pipeline"
	"github.com/saulo-duarte/chronos-autopilot/internal/router"
	"github.com/saulo-duarte/chronos-autopilot/internal/scheduler"
	"github.com/saulo-duarte/chronos-autopilot/internal/status"
	"github.com/saulo-duarte/chronos-autopilot/internal/ticket"
	"gorm.io/gorm"
)

// Mode selects how much of the application is built. Each mode includes the
// previous one.
type Mode int

const (
	// ModeReadOnly lists documents and runs and resets the dedup store.
	ModeReadOnly Mode = iota
	// ModeProcess adds the extraction, ticket and notification pipeline.
	ModeProcess
	// ModeDaemon adds the calendar, scheduler and operator API.
	ModeDaemon
)

type Container struct {
	Settings           *config.Settings
	DedupContainer     *dedup.DedupContainer
	Notes              notes.Provider
	Runs               pipeline.RunRepository
	PipelineContainer  *pipeline.PipelineContainer
	MeetingContainer   *meeting.MeetingContainer
	CalendarContainer  *calendar.CalendarContainer
	SchedulerContainer *scheduler.SchedulerContainer
	StatusContainer    *status.StatusContainer
	Router             *chi.Mux

	db *gorm.DB
}

func New(ctx context.Context, s *config.Settings, mode Mode) (*Container, error) {
	if err := validate(s, mode); err != nil {
		return nil, err
	}

	c := &Container{Settings: s}
	if err := c.build(ctx, mode); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func validate(s *config.Settings, mode Mode) error {
	switch mode {
	case ModeDaemon:
		if err := s.ValidateServe(); err != nil {
			return err
		}
		return auth.SetSecret(s.JWTSecret)
	case ModeProcess:
		return s.ValidatePipeline()
	}
	return nil
}

func (c *Container) build(ctx context.Context, mode Mode) error {
	s := c.Settings
	log := config.WithContext(ctx)

	dedupContainer, err := dedup.NewDedupContainer(s)
	if err != nil {
		return err
	}
	c.DedupContainer = dedupContainer

	if s.DatabaseDSN != "" {
		if err := config.Connect(ctx, s.DatabaseDSN); err != nil {
			return err
		}
		c.db = config.DB
	}
	runs, err := pipeline.NewRunRepositoryFor(c.db)
	if err != nil {
		return fmt.Errorf("prepare run history: %w", err)
	}
	c.Runs = runs

	c.Notes = notes.NewHTTPProvider(s.NotesBaseURL, s.NotesToken, nil)

	var p pipeline.Pipeline
	if mode >= ModeProcess {
		extractionContainer, err := extraction.NewExtractionContainer(ctx, s)
		if err != nil {
			return err
		}
		tracker := ticket.NewHTTPTracker(s.TrackerBaseURL, s.TrackerToken, s.TrackerProject, nil)
		notifier := notify.NewSlackNotifier("", s.SlackToken, s.SlackChannel, nil)
		c.PipelineContainer = pipeline.NewPipelineContainer(runs, extractionContainer.Service, tracker, notifier)
		p = c.PipelineContainer.Pipeline
	}
	c.MeetingContainer = meeting.NewMeetingContainer(s, c.Notes, p, runs, dedupContainer.Guard)

	if mode < ModeDaemon {
		return nil
	}

	calendarContainer, err := calendar.NewCalendarContainer(s)
	if err != nil {
		return err
	}
	c.CalendarContainer = calendarContainer

	hub := status.NewHub()
	c.SchedulerContainer = scheduler.NewSchedulerContainer(s, calendarContainer, c.Notes, p, dedupContainer.Guard, hub.Observe)
	c.StatusContainer = status.NewStatusContainer(hub, c.SchedulerContainer.Scheduler, c.SchedulerContainer.Refresher)

	c.Router = router.New(router.RouterConfig{
		StatusHandler:  c.StatusContainer.Handler,
		MeetingHandler: c.MeetingContainer.Handler,
	})

	log.WithField("calendar_provider", s.CalendarProvider).Info("Daemon components ready")
	return nil
}

func (c *Container) Close() error {
	var errs []error
	if c.DedupContainer != nil {
		errs = append(errs, c.DedupContainer.Store.Close())
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

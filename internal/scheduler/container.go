package scheduler

import (
	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
	"github.com/saulo-duarte/chronos-autopilot/internal/pipeline"
)

type SchedulerContainer struct {
	Scheduler *Scheduler
	Refresher *Refresher
}

func NewSchedulerContainer(
	s *config.Settings,
	cal *calendar.CalendarContainer,
	provider notes.Provider,
	p pipeline.Pipeline,
	dedup Dedup,
	observer Observer,
) *SchedulerContainer {
	sched := New(provider, p, dedup, Options{
		DelayAfterEnd:  s.DelayAfterEnd(),
		LateFireFloor:  s.LateFireFloor,
		Retry:          RetryPolicy{Delay: s.RetryDelay, MaxAttempts: s.MaxAttempts},
		CandidateLimit: s.CandidateLimit,
		Observer:       observer,
	})
	refresher := NewRefresher(cal.Source, sched, RefreshOptions{
		Interval:  s.RefreshInterval(),
		Cron:      s.RefreshCron,
		Location:  s.Location(),
		WatchPath: cal.WatchPath,
	})
	return &SchedulerContainer{Scheduler: sched, Refresher: refresher}
}

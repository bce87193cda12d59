// Package scheduler arms one timer per calendar event and, once the meeting
// is over, matches it to a notes document and hands it to the pipeline.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/matcher"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
	"github.com/saulo-duarte/chronos-autopilot/internal/pipeline"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDelayAfterEnd  = 5 * time.Minute
	DefaultLateFireFloor  = 30 * time.Second
	DefaultCandidateLimit = 20
	DefaultProcessTimeout = 10 * time.Minute
)

// Dedup is the fail-open view of the processed-id store.
type Dedup interface {
	Has(ctx context.Context, id string) bool
	MarkDone(ctx context.Context, ids ...string)
}

type Options struct {
	DelayAfterEnd  time.Duration
	LateFireFloor  time.Duration
	Retry          RetryPolicy
	CandidateLimit int
	ProcessTimeout time.Duration
	Clock          Clock
	Observer       Observer
}

func (o Options) withDefaults() Options {
	if o.DelayAfterEnd <= 0 {
		o.DelayAfterEnd = DefaultDelayAfterEnd
	}
	if o.LateFireFloor <= 0 {
		o.LateFireFloor = DefaultLateFireFloor
	}
	if o.Retry.MaxAttempts <= 0 {
		o.Retry = DefaultRetryPolicy()
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = DefaultCandidateLimit
	}
	if o.ProcessTimeout <= 0 {
		o.ProcessTimeout = DefaultProcessTimeout
	}
	if o.Clock == nil {
		o.Clock = RealClock()
	}
	return o
}

type Scheduler struct {
	notes    notes.Provider
	pipeline pipeline.Pipeline
	dedup    Dedup
	opts     Options

	mu         sync.Mutex
	tasks      map[string]*task
	generation uint64
	stopped    bool
	inflight   sync.WaitGroup
}

func New(provider notes.Provider, p pipeline.Pipeline, dedup Dedup, opts Options) *Scheduler {
	return &Scheduler{
		notes:    provider,
		pipeline: p,
		dedup:    dedup,
		opts:     opts.withDefaults(),
		tasks:    make(map[string]*task),
	}
}

// Arm starts tracking event and reports whether a new task was created.
// Already tracked or already processed events are left alone, except that an
// ARMED task whose end time moved gets its timer moved with it.
func (s *Scheduler) Arm(ctx context.Context, event calendar.Event) bool {
	if event.ID == "" {
		return false
	}
	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"event_id": event.ID,
		"title":    event.Title,
	})

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if t, ok := s.tasks[event.ID]; ok {
		s.updateTracked(t, event, log)
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	if s.dedup.Has(ctx, event.ID) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if _, ok := s.tasks[event.ID]; ok {
		return false
	}

	t := &task{event: event, state: StateUnscheduled}
	s.tasks[event.ID] = t
	t.fireAt = event.End.Add(s.opts.DelayAfterEnd)
	wait := s.waitUntil(t.fireAt)
	s.schedule(t, wait)
	s.transition(t, StateArmed, "")

	log.WithFields(logrus.Fields{
		"fire_at": t.fireAt.Format(time.RFC3339),
		"wait":    wait.String(),
	}).Info("[SCHEDULER] Event armed")
	return true
}

func (s *Scheduler) updateTracked(t *task, event calendar.Event, log *logrus.Entry) {
	if t.state != StateArmed {
		return
	}
	t.event.Title = event.Title
	if t.event.End.Equal(event.End) {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.event = event
	t.fireAt = event.End.Add(s.opts.DelayAfterEnd)
	wait := s.waitUntil(t.fireAt)
	s.schedule(t, wait)
	s.transition(t, StateArmed, "end time changed")
	log.WithField("fire_at", t.fireAt.Format(time.RFC3339)).Info("[SCHEDULER] Event re-armed")
}

// waitUntil never returns less than the late floor for a fire time already
// in the past, so a late start does not trigger every meeting at once.
func (s *Scheduler) waitUntil(fireAt time.Time) time.Duration {
	wait := fireAt.Sub(s.opts.Clock.Now())
	if wait <= 0 {
		return s.opts.LateFireFloor
	}
	return wait
}

// schedule must be called with s.mu held.
func (s *Scheduler) schedule(t *task, wait time.Duration) {
	s.generation++
	t.generation = s.generation
	id, gen := t.event.ID, t.generation
	t.timer = s.opts.Clock.AfterFunc(wait, func() { s.fire(id, gen) })
}

// transition must be called with s.mu held.
func (s *Scheduler) transition(t *task, to State, reason string) {
	from := t.state
	t.state = to
	if s.opts.Observer == nil {
		return
	}
	s.opts.Observer(Transition{
		EventID: t.event.ID,
		Title:   t.event.Title,
		From:    from,
		To:      to,
		Reason:  reason,
		At:      s.opts.Clock.Now(),
	})
}

func (s *Scheduler) fire(id string, gen uint64) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || s.stopped || t.generation != gen || !t.state.waiting() {
		s.mu.Unlock()
		return
	}
	t.timer = nil
	t.attempts++
	t.nextAttemptAt = time.Time{}
	s.transition(t, StateFired, "")
	event := t.event
	attempt := t.attempts
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	ctx := config.ContextWithFields(context.Background(), logrus.Fields{
		"event_id": event.ID,
		"title":    event.Title,
		"attempt":  attempt,
	})
	ctx, cancel := context.WithTimeout(ctx, s.opts.ProcessTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			config.WithContext(ctx).WithField("panic", r).Error("[SCHEDULER] Processing panicked, releasing event")
			s.finish(id, gen, StateAbandoned, fmt.Sprintf("panic: %v", r))
		}
	}()
	s.process(ctx, id, gen, event)
}

func (s *Scheduler) process(ctx context.Context, id string, gen uint64, event calendar.Event) {
	log := config.WithContext(ctx)

	if s.dedup.Has(ctx, event.ID) {
		s.finish(id, gen, StateDone, "already processed")
		return
	}

	s.setState(id, gen, StateMatching, "")
	docs, err := s.notes.ListDocuments(ctx, s.opts.CandidateLimit)
	if err != nil {
		log.WithError(err).Warn("[SCHEDULER] Notes provider unavailable, releasing event")
		s.finish(id, gen, StateAbandoned, "notes provider unavailable")
		return
	}

	doc := matcher.Match(docs, event)
	if doc == nil {
		log.WithField("candidates", len(docs)).Info("[SCHEDULER] No notes document matched, releasing event")
		s.setState(id, gen, StateNoMatch, "")
		s.finish(id, gen, StateAbandoned, "no matching notes document")
		return
	}
	log = log.WithFields(logrus.Fields{"document_id": doc.ID, "document_title": doc.Title})
	s.setDocument(id, gen, doc.ID)

	if s.dedup.Has(ctx, doc.ID) {
		log.Info("[SCHEDULER] Document already processed, marking event done")
		s.dedup.MarkDone(ctx, event.ID)
		s.finish(id, gen, StateDone, "document already processed")
		return
	}

	content, err := s.notes.FetchContent(ctx, *doc)
	if err != nil {
		log.WithError(err).Warn("[SCHEDULER] Failed to fetch document content, using what was returned")
	}
	if !content.Ready() {
		s.notReady(id, gen, log)
		return
	}

	s.setState(id, gen, StateReady, "")
	result, err := s.pipeline.Run(ctx, pipeline.Meeting{
		EventID:   event.ID,
		Document:  *doc,
		Content:   content,
		Title:     event.Title,
		StartedAt: event.Start,
		Trigger:   pipeline.TriggerScheduler,
	})
	if err != nil {
		log.WithError(err).Error("[SCHEDULER] Pipeline failed, releasing event")
		s.finish(id, gen, StateAbandoned, "pipeline failed: "+err.Error())
		return
	}

	s.dedup.MarkDone(ctx, event.ID, doc.ID)
	log.WithFields(logrus.Fields{
		"run_id":  result.RunID.String(),
		"tickets": len(result.TicketIDs),
	}).Info("[SCHEDULER] Meeting processed")
	s.finish(id, gen, StateDone, "")
}

func (s *Scheduler) notReady(id string, gen uint64, log *logrus.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.current(id, gen)
	if !ok {
		return
	}
	s.transition(t, StateNotReady, "")

	delay, again := s.opts.Retry.Next(t.attempts)
	if !again || s.stopped {
		log.Info("[SCHEDULER] Notes still empty after retry, abandoning event")
		s.remove(t, StateAbandoned, "notes not ready")
		return
	}
	t.nextAttemptAt = s.opts.Clock.Now().Add(delay)
	s.schedule(t, delay)
	s.transition(t, StateRetryArmed, "notes not ready")
	log.WithField("retry_in", delay.String()).Info("[SCHEDULER] Notes not ready, retry armed")
}

func (s *Scheduler) setState(id string, gen uint64, to State, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.current(id, gen); ok {
		s.transition(t, to, reason)
	}
}

func (s *Scheduler) setDocument(id string, gen uint64, docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.current(id, gen); ok {
		t.documentID = docID
	}
}

func (s *Scheduler) finish(id string, gen uint64, to State, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.current(id, gen); ok {
		s.remove(t, to, reason)
	}
}

// remove drops a task that reached a terminal state; a later refresh may arm
// the event again unless it was marked processed.
func (s *Scheduler) remove(t *task, to State, reason string) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	s.transition(t, to, reason)
	delete(s.tasks, t.event.ID)
}

func (s *Scheduler) current(id string, gen uint64) (*task, bool) {
	t, ok := s.tasks[id]
	if !ok || t.generation != gen {
		return nil, false
	}
	return t, true
}

func (s *Scheduler) Snapshot() []TaskInfo {
	s.mu.Lock()
	out := make([]TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.info())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].FireAt.Before(out[j].FireAt)
		}
		return out[i].EventID < out[j].EventID
	})
	return out
}

// Stop cancels every pending timer and waits for in-flight processing to
// return, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	for _, t := range s.tasks {
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

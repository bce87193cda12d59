package scheduler

import (
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
)

type State string

const (
	StateUnscheduled State = "UNSCHEDULED"
	StateArmed       State = "ARMED"
	StateFired       State = "FIRED"
	StateMatching    State = "MATCHING"
	StateNoMatch     State = "NO_MATCH"
	StateReady       State = "READY"
	StateNotReady    State = "NOT_READY"
	StateRetryArmed  State = "RETRY_ARMED"
	StateDone        State = "DONE"
	StateAbandoned   State = "ABANDONED"
)

func (s State) Terminal() bool {
	return s == StateDone || s == StateAbandoned
}

// waiting reports whether a timer owns the task, i.e. nothing is running
// for it right now.
func (s State) waiting() bool {
	return s == StateArmed || s == StateRetryArmed
}

type task struct {
	event         calendar.Event
	state         State
	fireAt        time.Time
	timer         Timer
	attempts      int
	nextAttemptAt time.Time
	generation    uint64
	documentID    string
}

type TaskInfo struct {
	EventID       string     `json:"event_id"`
	Title         string     `json:"title"`
	State         State      `json:"state"`
	FireAt        time.Time  `json:"fire_at"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	DocumentID    string     `json:"document_id,omitempty"`
}

func (t *task) info() TaskInfo {
	out := TaskInfo{
		EventID:    t.event.ID,
		Title:      t.event.Title,
		State:      t.state,
		FireAt:     t.fireAt,
		Attempts:   t.attempts,
		DocumentID: t.documentID,
	}
	if !t.nextAttemptAt.IsZero() {
		next := t.nextAttemptAt
		out.NextAttemptAt = &next
	}
	return out
}

// Transition is published for every state change of a tracked event.
type Transition struct {
	EventID string    `json:"event_id"`
	Title   string    `json:"title"`
	From    State     `json:"from"`
	To      State     `json:"to"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// Observer receives transitions synchronously while the scheduler holds its
// lock; it must not block or call back into the Scheduler.
type Observer func(Transition)

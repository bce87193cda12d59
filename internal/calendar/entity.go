package calendar

import "time"

// Event is one timed occurrence on the user's calendar. ID is stable per
// occurrence, so a later refresh that reissues the same ID describes an
// edited meeting rather than a new one.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Calendar  string    `json:"calendar,omitempty"`
	AllDay    bool      `json:"-"`
	Cancelled bool      `json:"-"`
}

func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

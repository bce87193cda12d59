package calendar

import (
	"context"
	"errors"
	"time"

	util "github.com/saulo-duarte/chronos-autopilot/internal/utils"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported calendar provider")
	ErrSourceUnavailable   = errors.New("calendar source unavailable")
)

type Source interface {
	FetchTodaysEvents(ctx context.Context) ([]Event, error)
}

type timeoutSource struct {
	inner   Source
	timeout time.Duration
}

// WithTimeout bounds every query to inner with a hard deadline.
func WithTimeout(inner Source, timeout time.Duration) Source {
	if timeout <= 0 {
		return inner
	}
	return &timeoutSource{inner: inner, timeout: timeout}
}

func (s *timeoutSource) FetchTodaysEvents(ctx context.Context) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		events []Event
		err    error
	}
	done := make(chan result, 1)
	go func() {
		events, err := s.inner.FetchTodaysEvents(ctx)
		done <- result{events, err}
	}()

	select {
	case r := <-done:
		return r.events, r.err
	case <-ctx.Done():
		return nil, errors.Join(ErrSourceUnavailable, ctx.Err())
	}
}

// DayWindow returns [midnight, next midnight) of the day containing now.
func DayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	start := util.StartOfDay(now, loc)
	return start, start.AddDate(0, 0, 1)
}

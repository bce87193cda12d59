package scheduler

import "time"

// RetryPolicy bounds how often a matched but empty document is re-checked.
// MaxAttempts counts the first attempt, so 2 means one retry.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: 2 * time.Minute, MaxAttempts: 2}
}

// Next reports whether another attempt is allowed after attempts have run,
// and when it should start relative to now.
func (p RetryPolicy) Next(attempts int) (time.Duration, bool) {
	if attempts >= p.MaxAttempts {
		return 0, false
	}
	return p.Delay, true
}

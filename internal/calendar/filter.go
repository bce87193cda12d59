package calendar

import (
	"sort"
	"strings"
	"time"
)

// Filter keeps the timed, non-cancelled events of the configured calendars
// that start inside [from, to), dropping repeated ids. Names match
// case-insensitively; an empty list keeps every calendar.
func Filter(events []Event, names []string, from, to time.Time) []Event {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			allowed[n] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.ID == "" || e.AllDay || e.Cancelled || !e.End.After(e.Start) {
			continue
		}
		if e.Start.Before(from) || !e.Start.Before(to) {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[strings.ToLower(strings.TrimSpace(e.Calendar))]; !ok {
				continue
			}
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

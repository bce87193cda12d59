// Package matcher resolves a calendar event to the notes document that was
// most likely taken during it.
package matcher

import (
	"sort"
	"strings"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
)

const (
	TitleWindow    = 2 * time.Hour
	FallbackWindow = 30 * time.Minute
)

// Match returns the best candidate for event, or nil.
//
// Candidates created within TitleWindow of the event start whose titles
// overlap the event title win; otherwise the closest candidate created
// within FallbackWindow is returned.
func Match(candidates []notes.Document, event calendar.Event) *notes.Document {
	if doc := matchByTitle(candidates, event); doc != nil {
		return doc
	}
	return matchByTime(candidates, event)
}

func matchByTitle(candidates []notes.Document, event calendar.Event) *notes.Document {
	title := normalize(event.Title)
	var best *notes.Document
	var bestDiff time.Duration
	for i := range candidates {
		c := candidates[i]
		diff := distance(c.CreatedAt, event.Start)
		if diff > TitleWindow || !titlesOverlap(normalize(c.Title), title) {
			continue
		}
		if best == nil || diff < bestDiff || (diff == bestDiff && c.CreatedAt.Before(best.CreatedAt)) {
			doc := c
			best, bestDiff = &doc, diff
		}
	}
	return best
}

func matchByTime(candidates []notes.Document, event calendar.Event) *notes.Document {
	var inBand []notes.Document
	for _, c := range candidates {
		if distance(c.CreatedAt, event.Start) <= FallbackWindow {
			inBand = append(inBand, c)
		}
	}
	if len(inBand) == 0 {
		return nil
	}
	sort.SliceStable(inBand, func(i, j int) bool {
		di, dj := distance(inBand[i].CreatedAt, event.Start), distance(inBand[j].CreatedAt, event.Start)
		if di != dj {
			return di < dj
		}
		return inBand[i].CreatedAt.Before(inBand[j].CreatedAt)
	})
	doc := inBand[0]
	return &doc
}

// titlesOverlap reports whether one title equals or contains the other. An
// empty title is contained in every title, so it overlaps anything.
func titlesOverlap(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func distance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

const maxOccurrencesPerEvent = 500

type icsSource struct {
	location   string
	names      []string
	loc        *time.Location
	now        func() time.Time
	httpClient *http.Client
}

type ICSOptions struct {
	// Location is a local file path or an http(s) URL.
	Location   string
	Names      []string
	TimeZone   *time.Location
	Now        func() time.Time
	HTTPClient *http.Client
}

func NewICSSource(opts ICSOptions) Source {
	loc := opts.TimeZone
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &icsSource{
		location:   strings.TrimSpace(opts.Location),
		names:      opts.Names,
		loc:        loc,
		now:        now,
		httpClient: httpClient,
	}
}

// IsLocalICS reports whether location refers to a file rather than a URL.
func IsLocalICS(location string) bool {
	location = strings.ToLower(strings.TrimSpace(location))
	return location != "" && !strings.HasPrefix(location, "http://") &&
		!strings.HasPrefix(location, "https://") && !strings.HasPrefix(location, "webcal://")
}

func (s *icsSource) FetchTodaysEvents(ctx context.Context) ([]Event, error) {
	log := config.WithContext(ctx).WithField("provider", "ics")

	body, err := s.read(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read calendar")
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	from, to := DayWindow(s.now(), s.loc)
	events, err := ParseICS(body, from, to)
	if err != nil {
		log.WithError(err).Warn("Failed to parse calendar")
		return nil, err
	}

	filtered := Filter(events, s.names, from, to)
	log.WithFields(logrus.Fields{
		"parsed": len(events),
		"kept":   len(filtered),
	}).Debug("Calendar read")
	return filtered, nil
}

func (s *icsSource) read(ctx context.Context) ([]byte, error) {
	if s.location == "" {
		return nil, errors.New("no calendar location configured")
	}
	if IsLocalICS(s.location) {
		return os.ReadFile(s.location)
	}

	url := s.location
	if strings.HasPrefix(strings.ToLower(url), "webcal://") {
		url = "https://" + url[len("webcal://"):]
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(resp.Status)
	}
	return io.ReadAll(resp.Body)
}

type vevent struct {
	uid        string
	summary    string
	start      time.Time
	end        time.Time
	allDay     bool
	cancelled  bool
	rrule      string
	exDates    []time.Time
	recurrence *time.Time
}

// ParseICS returns the occurrences in body that intersect [from, to).
// Recurring events are expanded; each occurrence gets the ID
// "<uid>@<original start in RFC3339 UTC>" so an overridden instance keeps the
// ID of the slot it replaces.
func ParseICS(body []byte, from, to time.Time) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	calendarName := ""
	for _, p := range cal.CalendarProperties {
		if strings.EqualFold(p.IANAToken, "X-WR-CALNAME") {
			calendarName = strings.TrimSpace(p.Value)
		}
	}

	bases := make(map[string][]vevent)
	overrides := make(map[string][]vevent)
	var order []string
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(comp)
		if err != nil {
			config.Logger.WithError(err).Debug("Skipping unreadable VEVENT")
			continue
		}
		if ev.recurrence != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		if _, ok := bases[ev.uid]; !ok {
			order = append(order, ev.uid)
		}
		bases[ev.uid] = append(bases[ev.uid], ev)
	}

	var out []Event
	for _, uid := range order {
		for _, base := range bases[uid] {
			for _, e := range expand(base, overrides[uid], from, to) {
				e.Calendar = calendarName
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (vevent, error) {
	var out vevent
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return out, errors.New("missing UID")
	}
	out.uid = strings.TrimSpace(uid.Value)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty("STATUS"); p != nil {
		out.cancelled = strings.EqualFold(strings.TrimSpace(p.Value), "CANCELLED")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	if isDateValue(dtStart) {
		out.allDay = true
		return out, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.start = start
	if end, err := ve.GetEndAt(); err == nil {
		out.end = end
	} else {
		out.end = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rrule = strings.TrimSpace(p.Value)
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, tzidOf(p), start.Location()); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, tzidOf(p), start.Location()); err == nil {
			out.recurrence = &t
		}
	}
	return out, nil
}

func expand(base vevent, overrides []vevent, from, to time.Time) []Event {
	if base.allDay {
		return []Event{{ID: base.uid, Title: base.summary, AllDay: true}}
	}

	if base.rrule == "" {
		ev := toEvent(base, base.uid, base.start, base.end)
		if ov, ok := findOverride(overrides, base.start); ok {
			ev = toEvent(ov, base.uid, ov.start, ov.end)
		}
		if !overlaps(ev.Start, ev.End, from, to) {
			return nil
		}
		return []Event{ev}
	}

	r, err := rrule.StrToRRule(base.rrule)
	if err != nil {
		config.Logger.WithError(err).WithField("uid", base.uid).Warn("Failed to parse RRULE")
		return nil
	}
	r.DTStart(base.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range base.exDates {
		set.ExDate(ex.In(base.start.Location()))
	}

	duration := base.end.Sub(base.start)
	// widen the lower bound so an occurrence that started yesterday but
	// overlaps today is still seen
	occurrences := set.Between(from.Add(-duration).In(base.start.Location()), to.In(base.start.Location()), true)
	if len(occurrences) > maxOccurrencesPerEvent {
		occurrences = occurrences[:maxOccurrencesPerEvent]
	}

	var out []Event
	for _, occStart := range occurrences {
		id := base.uid + "@" + occStart.UTC().Format(time.RFC3339)
		ev := toEvent(base, id, occStart, occStart.Add(duration))
		if ov, ok := findOverride(overrides, occStart); ok {
			ev = toEvent(ov, id, ov.start, ov.end)
		}
		if overlaps(ev.Start, ev.End, from, to) {
			out = append(out, ev)
		}
	}

	// overrides moved into today from a slot outside the window
	for _, ov := range overrides {
		if ov.recurrence.After(from.Add(-duration)) && ov.recurrence.Before(to) {
			continue
		}
		if overlaps(ov.start, ov.end, from, to) {
			id := base.uid + "@" + ov.recurrence.UTC().Format(time.RFC3339)
			out = append(out, toEvent(ov, id, ov.start, ov.end))
		}
	}
	return out
}

func toEvent(v vevent, id string, start, end time.Time) Event {
	return Event{
		ID:        id,
		Title:     v.summary,
		Start:     start,
		End:       end,
		AllDay:    v.allDay,
		Cancelled: v.cancelled,
	}
}

func findOverride(overrides []vevent, slot time.Time) (vevent, bool) {
	for _, ov := range overrides {
		if ov.recurrence != nil && ov.recurrence.Equal(slot) {
			return ov, true
		}
	}
	return vevent{}, false
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && !aEnd.Before(bStart)
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzidOf(p *ical.IANAProperty) string {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		return tzs[0]
	}
	return ""
}

func parseICSTime(v, tzid string, fallback *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	loc := fallback
	if tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		}
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexibleTime decodes the timestamp shapes returned by notes and tracker
// APIs: RFC3339 with or without fraction, zone-less local date-times and
// unix seconds or milliseconds.
type FlexibleTime struct {
	time.Time
}

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func ParseFlexible(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// values past year 2286 in seconds are millisecond stamps
		if n > 9_999_999_999 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := ParseFlexible(s, time.UTC)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	if ft.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + ft.UTC().Format(time.RFC3339) + `"`), nil
}

func ToTimePtr(ft *FlexibleTime) *time.Time {
	if ft == nil || ft.IsZero() {
		return nil
	}
	t := ft.Time
	return &t
}

// StartOfDay returns local midnight of the day containing t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

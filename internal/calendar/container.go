package calendar

import (
	"fmt"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
)

type CalendarContainer struct {
	Source Source
	// WatchPath is the local ICS file to watch for changes, if any.
	WatchPath string
}

func NewCalendarContainer(s *config.Settings) (*CalendarContainer, error) {
	var src Source
	watch := ""
	switch s.CalendarProvider {
	case "ics":
		src = NewICSSource(ICSOptions{
			Location: s.CalendarICS,
			Names:    s.CalendarNames,
			TimeZone: s.Location(),
		})
		if IsLocalICS(s.CalendarICS) {
			watch = s.CalendarICS
		}
	case "google":
		src = NewGoogleSource(GoogleOptions{
			ClientID:     s.GoogleClientID,
			ClientSecret: s.GoogleClientSecret,
			RefreshToken: s.GoogleRefreshToken,
			Names:        s.CalendarNames,
			TimeZone:     s.Location(),
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, s.CalendarProvider)
	}

	return &CalendarContainer{
		Source:    WithTimeout(src, s.CalendarTimeout),
		WatchPath: watch,
	}, nil
}

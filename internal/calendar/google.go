package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrMissingCalendarTokens = errors.New("google calendar credentials are not configured")

type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Names        []string
	TimeZone     *time.Location
	Now          func() time.Time
	// HTTPClient and Endpoint replace the oauth2 client and API base URL.
	HTTPClient *http.Client
	Endpoint   string
}

type googleSource struct {
	opts        GoogleOptions
	oauthConfig *oauth2.Config
}

func NewGoogleSource(opts GoogleOptions) Source {
	if opts.TimeZone == nil {
		opts.TimeZone = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &googleSource{
		opts: opts,
		oauthConfig: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Scopes:       []string{gcal.CalendarReadonlyScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
	}
}

func (s *googleSource) getCalendarClient(ctx context.Context) (*gcal.Service, error) {
	log := config.WithContext(ctx)

	httpClient := s.opts.HTTPClient
	if httpClient == nil {
		if s.opts.RefreshToken == "" {
			return nil, ErrMissingCalendarTokens
		}
		token := &oauth2.Token{
			TokenType:    "Bearer",
			RefreshToken: s.opts.RefreshToken,
			Expiry:       time.Now().Add(-time.Hour),
		}
		httpClient = oauth2.NewClient(ctx, s.oauthConfig.TokenSource(ctx, token))
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if s.opts.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.opts.Endpoint))
	}
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		log.WithError(err).Error("Failed to create Calendar service client")
		return nil, err
	}
	return srv, nil
}

func (s *googleSource) FetchTodaysEvents(ctx context.Context) ([]Event, error) {
	log := config.WithContext(ctx).WithField("provider", "google")

	srv, err := s.getCalendarClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	calendars, err := s.calendarIDs(ctx, srv)
	if err != nil {
		log.WithError(err).Warn("Failed to list calendars")
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	from, to := DayWindow(s.opts.Now(), s.opts.TimeZone)
	var events []Event
	for id, name := range calendars {
		resp, err := srv.Events.List(id).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			ShowDeleted(false).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			log.WithError(err).WithField("calendar", name).Warn("Failed to list calendar events")
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		for _, item := range resp.Items {
			if ev, ok := fromGoogleEvent(item, name); ok {
				events = append(events, ev)
			}
		}
	}

	filtered := Filter(events, nil, from, to)
	log.WithFields(logrus.Fields{
		"calendars": len(calendars),
		"kept":      len(filtered),
	}).Debug("Calendar read")
	return filtered, nil
}

// calendarIDs maps calendar id to display name. With no configured names
// only the primary calendar is read.
func (s *googleSource) calendarIDs(ctx context.Context, srv *gcal.Service) (map[string]string, error) {
	if len(s.opts.Names) == 0 {
		return map[string]string{"primary": "primary"}, nil
	}
	wanted := make(map[string]struct{}, len(s.opts.Names))
	for _, n := range s.opts.Names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}

	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, entry := range list.Items {
		name := entry.SummaryOverride
		if name == "" {
			name = entry.Summary
		}
		if _, ok := wanted[strings.ToLower(strings.TrimSpace(name))]; ok {
			out[entry.Id] = name
		}
	}
	return out, nil
}

func fromGoogleEvent(item *gcal.Event, calendarName string) (Event, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return Event{}, false
	}
	ev := Event{
		ID:        item.Id,
		Title:     strings.TrimSpace(item.Summary),
		Calendar:  calendarName,
		Cancelled: item.Status == "cancelled",
	}
	if item.Start.DateTime == "" {
		ev.AllDay = true
		return ev, true
	}
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return Event{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return Event{}, false
	}
	ev.Start, ev.End = start, end
	return ev, true
}

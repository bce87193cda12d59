package ticket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/httpx"
	"github.com/sirupsen/logrus"
)

var ErrInvalidDraft = errors.New("ticket draft has no title")

type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

type Ticket struct {
	ID    string `json:"id"`
	Key   string `json:"key,omitempty"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title"`
}

type Tracker interface {
	CreateTicket(ctx context.Context, d Draft) (Ticket, error)
}

type httpTracker struct {
	client  *httpx.Client
	project string
}

func NewHTTPTracker(baseURL, token, project string, httpClient *http.Client) Tracker {
	return &httpTracker{
		client: httpx.New(httpx.Options{
			Service:    "tracker",
			BaseURL:    baseURL,
			Token:      token,
			HTTPClient: httpClient,
		}),
		project: strings.TrimSpace(project),
	}
}

func (t *httpTracker) CreateTicket(ctx context.Context, d Draft) (Ticket, error) {
	log := config.WithContext(ctx)
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return Ticket{}, ErrInvalidDraft
	}

	path := "/issues"
	if t.project != "" {
		path = "/projects/" + url.PathEscape(t.project) + "/issues"
	}

	var created Ticket
	if err := t.client.DoJSON(ctx, http.MethodPost, path, d, &created); err != nil {
		log.WithError(err).WithField("title", d.Title).Warn("Failed to create ticket")
		return Ticket{}, fmt.Errorf("create ticket %q: %w", d.Title, err)
	}
	if created.ID == "" {
		created.ID = created.Key
	}
	if created.ID == "" {
		return Ticket{}, fmt.Errorf("create ticket %q: tracker returned no id", d.Title)
	}
	if created.Title == "" {
		created.Title = d.Title
	}

	log.WithFields(logrus.Fields{
		"ticket_id": created.ID,
		"title":     created.Title,
	}).Info("Ticket created")
	return created, nil
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/httpx"
)

const DefaultSlackBaseURL = "https://slack.com/api"

var ErrSlackRejected = errors.New("slack rejected the message")

type TicketLink struct {
	ID    string
	Title string
	URL   string
}

type Message struct {
	Title       string
	StartedAt   time.Time
	Summary     string
	Decisions   []string
	ActionItems []string
	Tickets     []TicketLink
}

type Notifier interface {
	// Notify posts msg and returns a reference to the posted message.
	Notify(ctx context.Context, msg Message) (string, error)
}

type slackNotifier struct {
	client  *httpx.Client
	channel string
}

type postMessageResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	TS      string `json:"ts"`
	Channel string `json:"channel"`
}

func NewSlackNotifier(baseURL, token, channel string, httpClient *http.Client) Notifier {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultSlackBaseURL
	}
	return &slackNotifier{
		client: httpx.New(httpx.Options{
			Service:    "slack",
			BaseURL:    baseURL,
			Token:      token,
			HTTPClient: httpClient,
		}),
		channel: strings.TrimSpace(channel),
	}
}

func (n *slackNotifier) Notify(ctx context.Context, msg Message) (string, error) {
	log := config.WithContext(ctx)

	var resp postMessageResponse
	err := n.client.DoJSON(ctx, http.MethodPost, "/chat.postMessage", map[string]any{
		"channel":      n.channel,
		"text":         Format(msg),
		"unfurl_links": false,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("post slack message: %w", err)
	}
	if !resp.OK {
		log.WithField("slack_error", resp.Error).Warn("Slack rejected the meeting summary")
		return "", fmt.Errorf("%w: %s", ErrSlackRejected, resp.Error)
	}

	channel := resp.Channel
	if channel == "" {
		channel = n.channel
	}
	return channel + "/" + resp.TS, nil
}

// Format renders msg as Slack mrkdwn.
func Format(msg Message) string {
	var b strings.Builder
	title := strings.TrimSpace(msg.Title)
	if title == "" {
		title = "Meeting"
	}
	fmt.Fprintf(&b, "*%s*", title)
	if !msg.StartedAt.IsZero() {
		fmt.Fprintf(&b, " (%s)", msg.StartedAt.Format("Mon 02 Jan 15:04"))
	}
	b.WriteString("\n")
	if s := strings.TrimSpace(msg.Summary); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	writeList(&b, "Decisions", msg.Decisions)
	writeList(&b, "Action items", msg.ActionItems)
	if len(msg.Tickets) > 0 {
		b.WriteString("\n*Tickets*\n")
		for _, t := range msg.Tickets {
			if t.URL != "" {
				fmt.Fprintf(&b, "• <%s|%s> %s\n", t.URL, t.ID, t.Title)
			} else {
				fmt.Fprintf(&b, "• %s %s\n", t.ID, t.Title)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n*%s*\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "• %s\n", strings.TrimSpace(item))
	}
}

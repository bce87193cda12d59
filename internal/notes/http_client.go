package notes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/httpx"
	util "github.com/saulo-duarte/chronos-autopilot/internal/utils"
	"github.com/sirupsen/logrus"
)

type apiDocument struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	CreatedAt     util.FlexibleTime  `json:"created_at"`
	UpdatedAt     *util.FlexibleTime `json:"updated_at"`
	NotesMarkdown string             `json:"notes_markdown"`
	NotesPlain    string             `json:"notes_plain"`
	DeletedAt     *util.FlexibleTime `json:"deleted_at"`
}

type documentsResponse struct {
	Docs []apiDocument `json:"docs"`
}

type transcriptSegment struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type httpProvider struct {
	client *httpx.Client
}

// NewHTTPProvider talks to a Granola-style notes API.
func NewHTTPProvider(baseURL, token string, httpClient *http.Client) Provider {
	return &httpProvider{
		client: httpx.New(httpx.Options{
			Service:    "notes",
			BaseURL:    baseURL,
			Token:      token,
			HTTPClient: httpClient,
		}),
	}
}

func (p *httpProvider) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	log := config.WithContext(ctx)
	if limit <= 0 {
		limit = 20
	}

	var resp documentsResponse
	err := p.client.DoJSON(ctx, http.MethodPost, "/v2/get-documents", map[string]any{
		"limit":                     limit,
		"offset":                    0,
		"include_last_viewed_panel": false,
	}, &resp)
	if err != nil {
		log.WithError(err).Warn("Failed to list notes documents")
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]Document, 0, len(resp.Docs))
	for _, d := range resp.Docs {
		if d.ID == "" || d.DeletedAt != nil {
			continue
		}
		docs = append(docs, toDocument(d))
	}
	log.WithField("count", len(docs)).Debug("Fetched notes documents")
	return docs, nil
}

func (p *httpProvider) GetDocument(ctx context.Context, id string) (Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Document{}, ErrNotFound
	}
	d, err := p.batchDocument(ctx, id, false)
	if err != nil {
		config.WithContext(ctx).WithError(err).WithField("document_id", id).Warn("Failed to look up notes document")
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	if d == nil || d.DeletedAt != nil {
		return Document{}, ErrNotFound
	}
	return toDocument(*d), nil
}

// FetchContent only fails when the document body cannot be read. A transcript
// that cannot be fetched is logged and left empty.
func (p *httpProvider) FetchContent(ctx context.Context, doc Document) (Content, error) {
	log := config.WithContext(ctx).WithFields(logrus.Fields{"document_id": doc.ID})

	d, err := p.batchDocument(ctx, doc.ID, true)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch document body")
		return Content{}, fmt.Errorf("fetch document %s: %w", doc.ID, err)
	}

	var content Content
	if d != nil {
		content.Notes = strings.TrimSpace(d.NotesMarkdown)
		if content.Notes == "" {
			content.Notes = strings.TrimSpace(d.NotesPlain)
		}
	}

	var segments []transcriptSegment
	err = p.client.DoJSON(ctx, http.MethodPost, "/v1/get-document-transcript", map[string]any{
		"document_id": doc.ID,
	}, &segments)
	var statusErr *httpx.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound:
		// transcript not produced yet
	case err != nil:
		log.WithError(err).Warn("Failed to fetch document transcript, continuing without it")
	default:
		content.Transcript = joinTranscript(segments)
	}

	return content, nil
}

func (p *httpProvider) batchDocument(ctx context.Context, id string, withPanel bool) (*apiDocument, error) {
	var batch documentsResponse
	err := p.client.DoJSON(ctx, http.MethodPost, "/v1/get-documents-batch", map[string]any{
		"document_ids":              []string{id},
		"include_last_viewed_panel": withPanel,
	}, &batch)
	if err != nil {
		return nil, err
	}
	for i := range batch.Docs {
		if batch.Docs[i].ID == id {
			return &batch.Docs[i], nil
		}
	}
	return nil, nil
}

func joinTranscript(segments []transcriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if s.Source != "" {
			text = s.Source + ": " + text
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

func toDocument(d apiDocument) Document {
	doc := Document{
		ID:        d.ID,
		Title:     strings.TrimSpace(d.Title),
		CreatedAt: d.CreatedAt.Time,
		UpdatedAt: d.CreatedAt.Time,
	}
	if updated := util.ToTimePtr(d.UpdatedAt); updated != nil {
		doc.UpdatedAt = *updated
	}
	return doc
}

package notes

import (
	"context"
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("notes document not found")
	ErrNoTitle  = errors.New("title query is empty")
)

type Provider interface {
	ListDocuments(ctx context.Context, limit int) ([]Document, error)
	// GetDocument returns ErrNotFound for unknown or deleted ids.
	GetDocument(ctx context.Context, id string) (Document, error)
	FetchContent(ctx context.Context, doc Document) (Content, error)
}

// Latest returns the most recently created document for which skip reports
// false.
func Latest(docs []Document, skip func(id string) bool) (Document, error) {
	sorted := append([]Document(nil), docs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	for _, doc := range sorted {
		if skip != nil && skip(doc.ID) {
			continue
		}
		return doc, nil
	}
	return Document{}, ErrNotFound
}

// FindByTitle returns the newest document whose title contains query,
// case-insensitively.
func FindByTitle(docs []Document, query string) (Document, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Document{}, ErrNoTitle
	}
	var matches []Document
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Title), query) {
			matches = append(matches, doc)
		}
	}
	return Latest(matches, nil)
}

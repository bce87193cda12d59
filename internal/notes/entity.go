package notes

import (
	"strings"
	"time"
)

type Document struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Content is fetched separately from the document record and may be empty
// while the provider is still generating notes.
type Content struct {
	Notes      string `json:"notes"`
	Transcript string `json:"transcript"`
}

func (c Content) Ready() bool {
	return strings.TrimSpace(c.Notes) != "" || strings.TrimSpace(c.Transcript) != ""
}

// Text is the raw meeting text handed to extraction.
func (c Content) Text() string {
	var b strings.Builder
	if notes := strings.TrimSpace(c.Notes); notes != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(notes)
		b.WriteString("\n\n")
	}
	if transcript := strings.TrimSpace(c.Transcript); transcript != "" {
		b.WriteString("## Transcript\n\n")
		b.WriteString(transcript)
		b.WriteString("\n")
	}
	return b.String()
}

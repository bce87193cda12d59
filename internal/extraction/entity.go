package extraction

import "time"

type ActionItem struct {
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

type TicketDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Assignee    string   `json:"assignee,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

type Extraction struct {
	Summary     string        `json:"summary"`
	Decisions   []string      `json:"decisions"`
	ActionItems []ActionItem  `json:"action_items"`
	Tickets     []TicketDraft `json:"tickets"`
}

type Request struct {
	Title     string
	StartedAt time.Time
	Text      string
}

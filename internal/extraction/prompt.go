package extraction

import (
	"fmt"
	"strings"
	"time"
)

const maxMeetingChars = 60000

const systemPrompt = `
You turn meeting notes and transcripts into structured follow-up work.

Rules:
1. Only use facts present in the meeting text. Never invent owners or dates.
2. "summary" is 2 to 4 plain sentences.
3. "decisions" lists what the group agreed on, one item per decision.
4. "action_items" lists concrete next steps. Include "owner" only when a person is named.
5. "tickets" lists work that belongs in the issue tracker. Each ticket needs a short imperative "title"
   and a "description" with enough context to act without the meeting.
   "priority" is one of: low, medium, high.
6. Empty lists are fine when nothing applies.

Reply with pure JSON only, no text outside the JSON, in this shape:

{
  "summary": "<summary>",
  "decisions": ["<decision>"],
  "action_items": [{"description": "<step>", "owner": "<name>", "due_date": "<YYYY-MM-DD>"}],
  "tickets": [{"title": "<title>", "description": "<description>", "assignee": "<name>", "priority": "medium", "labels": ["<label>"]}]
}
`

func BuildUserPrompt(req Request) string {
	text := strings.TrimSpace(req.Text)
	if len(text) > maxMeetingChars {
		text = text[:maxMeetingChars]
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled meeting"
	}
	started := "unknown time"
	if !req.StartedAt.IsZero() {
		started = req.StartedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("Meeting: %q, held %s.\n\n%s", title, started, text)
}

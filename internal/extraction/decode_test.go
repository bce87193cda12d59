package extraction_test

import (
	"errors"
	"testing"

	"github.com/saulo-duarte/chronos-autopilot/internal/extraction"
)

const validReply = `{
  "summary": "Team agreed to ship the importer.",
  "decisions": ["Ship importer on Friday"],
  "action_items": [{"description": "Write release notes", "owner": "Ana"}],
  "tickets": [{"title": "Add retry to importer", "description": "Importer drops rows on timeout", "priority": "high", "labels": ["importer"]}]
}`

func TestDecode(t *testing.T) {
	t.Run("PlainJSON", func(t *testing.T) {
		out, err := extraction.Decode(validReply)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(out.Tickets) != 1 || out.Tickets[0].Priority != "high" {
			t.Errorf("unexpected tickets %+v", out.Tickets)
		}
		if out.ActionItems[0].Owner != "Ana" {
			t.Errorf("unexpected action items %+v", out.ActionItems)
		}
	})

	t.Run("FencedJSON", func(t *testing.T) {
		out, err := extraction.Decode("```json\n" + validReply + "\n```")
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if out.Summary == "" {
			t.Errorf("summary missing")
		}
	})

	t.Run("NullListsAllowed", func(t *testing.T) {
		out, err := extraction.Decode(`{"summary":"Quick sync","decisions":null,"action_items":null,"tickets":null}`)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(out.Tickets) != 0 {
			t.Errorf("expected no tickets")
		}
	})

	invalid := map[string]string{
		"MissingSummary": `{"decisions":[]}`,
		"TicketNoTitle":  `{"summary":"s","tickets":[{"description":"d"}]}`,
		"BadPriority":    `{"summary":"s","tickets":[{"title":"t","priority":"urgent"}]}`,
		"NotJSON":        `Sure! Here is the JSON you asked for`,
		"Array":          `[{"summary":"s"}]`,
	}
	for name, raw := range invalid {
		t.Run(name, func(t *testing.T) {
			if _, err := extraction.Decode(raw); !errors.Is(err, extraction.ErrInvalidOutput) {
				t.Errorf("expected ErrInvalidOutput, got %v", err)
			}
		})
	}

	t.Run("Empty", func(t *testing.T) {
		if _, err := extraction.Decode(""); !errors.Is(err, extraction.ErrEmptyResponse) {
			t.Errorf("expected ErrEmptyResponse, got %v", err)
		}
	})
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{}\n```": "{}",
		"```\n{}\n```":     "{}",
		"  {}  ":           "{}",
	}
	for in, want := range cases {
		if got := extraction.StripFences(in); got != want {
			t.Errorf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}

package util_test

import (
	"encoding/json"
	"testing"
	"time"

	util "github.com/saulo-duarte/chronos-autopilot/internal/utils"
)

func TestParseFlexible(t *testing.T) {
	want := time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"RFC3339":     "2025-03-04T15:30:00Z",
		"RFC3339Nano": "2025-03-04T15:30:00.000000Z",
		"Offset":      "2025-03-04T12:30:00-03:00",
		"ZonelessT":   "2025-03-04T15:30:00",
		"ZonelessSpc": "2025-03-04 15:30:00",
		"UnixSeconds": "1741102200",
		"UnixMillis":  "1741102200000",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := util.ParseFlexible(input, time.UTC)
			if err != nil {
				t.Fatalf("ParseFlexible(%q) failed: %v", input, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseFlexible(%q) = %s, want %s", input, got, want)
			}
		})
	}

	t.Run("Garbage", func(t *testing.T) {
		if _, err := util.ParseFlexible("yesterday", time.UTC); err == nil {
			t.Errorf("expected error")
		}
	})
}

func TestFlexibleTimeJSON(t *testing.T) {
	var payload struct {
		CreatedAt util.FlexibleTime  `json:"created_at"`
		UpdatedAt *util.FlexibleTime `json:"updated_at"`
	}
	if err := json.Unmarshal([]byte(`{"created_at":"2025-03-04T15:30:00Z","updated_at":null}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.CreatedAt.Hour() != 15 {
		t.Errorf("unexpected created_at %s", payload.CreatedAt)
	}
	if util.ToTimePtr(payload.UpdatedAt) != nil {
		t.Errorf("null updated_at should map to nil")
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	in := time.Date(2025, 3, 5, 1, 0, 0, 0, time.UTC)
	got := util.StartOfDay(in, loc)
	want := time.Date(2025, 3, 4, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %s, want %s", got, want)
	}
}

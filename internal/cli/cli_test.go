package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/auth"
	"github.com/saulo-duarte/chronos-autopilot/internal/meeting"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
	"gopkg.in/yaml.v3"
)

func sampleDocs() []meeting.DocumentStatus {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return []meeting.DocumentStatus{
		{Document: notes.Document{ID: "doc-1", Title: "Sprint Planning", CreatedAt: created}, Processed: true},
		{Document: notes.Document{ID: "doc-2", Title: "Retro", CreatedAt: created.Add(time.Hour)}},
	}
}

func TestWriteDocuments(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeDocuments(&buf, "table", sampleDocs()); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.HasPrefix(out, "ID") || !strings.Contains(out, "Sprint Planning") || !strings.Contains(out, "yes") {
			t.Errorf("unexpected table:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeDocuments(&buf, "json", sampleDocs()); err != nil {
			t.Fatal(err)
		}
		var got []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got[0]["id"] != "doc-1" || got[0]["processed"] != true {
			t.Errorf("unexpected json %v", got[0])
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeDocuments(&buf, "YAML", sampleDocs()); err != nil {
			t.Fatal(err)
		}
		var got []map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid yaml: %v", err)
		}
		if got[1]["id"] != "doc-2" || got[1]["processed"] != false {
			t.Errorf("unexpected yaml %v", got[1])
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := writeDocuments(&bytes.Buffer{}, "xml", sampleDocs()); err == nil {
			t.Errorf("expected an error for an unknown format")
		}
	})
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("AUTOPILOT_DATA_DIR", t.TempDir())
	t.Setenv("AUTOPILOT_CONFIG", "")
	t.Setenv("CRYPTO_KEY", "")
	t.Setenv("DATABASE_DSN", "")
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResetCommand(t *testing.T) {
	isolate(t)

	out, err := runCommand(t, "reset")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(out, "Processed ids cleared.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestTokenCommand(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "cli-test-secret")

	out, err := runCommand(t, "token", "--subject", "alice", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := auth.ValidateJWT(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("minted token is invalid: %v", err)
	}
	if claims.UserID != "alice" || claims.Role != auth.RoleOperator {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokenCommandWithoutSecret(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTOPILOT_JWT_SECRET", "")

	if _, err := runCommand(t, "token"); err == nil {
		t.Fatalf("expected an error without JWT_SECRET")
	}
}

func TestListRequiresNotesToken(t *testing.T) {
	isolate(t)
	t.Setenv("AUTOPILOT_NOTES_TOKEN", "")

	if _, err := runCommand(t, "list"); err == nil {
		t.Fatalf("expected a configuration error")
	}
}

func TestProcessNeedsASelector(t *testing.T) {
	isolate(t)

	if _, err := runCommand(t, "process"); err == nil {
		t.Fatalf("expected an error without --latest, --title or --id")
	}
}

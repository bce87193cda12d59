package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	MinDelayAfterEndMinutes   = 1
	MinRefreshIntervalMinutes = 5
)

var ErrMissingCredentials = errors.New("missing credentials")

type Settings struct {
	DelayAfterEndMinutes   int           `mapstructure:"delay_after_end_minutes"`
	RefreshIntervalMinutes int           `mapstructure:"refresh_interval_minutes"`
	RefreshCron            string        `mapstructure:"refresh_cron"`
	RetryDelay             time.Duration `mapstructure:"retry_delay"`
	MaxAttempts            int           `mapstructure:"max_attempts"`
	LateFireFloor          time.Duration `mapstructure:"late_fire_floor"`
	CandidateLimit         int           `mapstructure:"candidate_limit"`

	CalendarProvider string        `mapstructure:"calendar_provider"`
	CalendarICS      string        `mapstructure:"calendar_ics"`
	CalendarNames    []string      `mapstructure:"calendar_names"`
	CalendarTimeout  time.Duration `mapstructure:"calendar_timeout"`
	Timezone         string        `mapstructure:"timezone"`

	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRefreshToken string `mapstructure:"google_refresh_token"`

	NotesBaseURL string `mapstructure:"notes_base_url"`
	NotesToken   string `mapstructure:"notes_token"`

	LLMModel     string `mapstructure:"llm_model"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`

	TrackerBaseURL string `mapstructure:"tracker_base_url"`
	TrackerToken   string `mapstructure:"tracker_token"`
	TrackerProject string `mapstructure:"tracker_project"`

	SlackToken   string `mapstructure:"slack_token"`
	SlackChannel string `mapstructure:"slack_channel"`

	DedupDSN      string `mapstructure:"dedup_dsn"`
	DedupCapacity int    `mapstructure:"dedup_capacity"`

	Listen      string `mapstructure:"listen"`
	DatabaseDSN string `mapstructure:"database_dsn"`
	JWTSecret   string `mapstructure:"jwt_secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("delay_after_end_minutes", 5)
	v.SetDefault("refresh_interval_minutes", 30)
	v.SetDefault("refresh_cron", "")
	v.SetDefault("retry_delay", 2*time.Minute)
	v.SetDefault("max_attempts", 2)
	v.SetDefault("late_fire_floor", 30*time.Second)
	v.SetDefault("candidate_limit", 20)

	v.SetDefault("calendar_provider", "ics")
	v.SetDefault("calendar_ics", "")
	v.SetDefault("calendar_names", []string{})
	v.SetDefault("calendar_timeout", 5*time.Second)
	v.SetDefault("timezone", "")

	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("google_refresh_token", "")

	v.SetDefault("notes_base_url", "https://api.granola.ai")
	v.SetDefault("notes_token", "")

	v.SetDefault("llm_model", "gemini-2.0-flash")
	v.SetDefault("gemini_api_key", "")

	v.SetDefault("tracker_base_url", "")
	v.SetDefault("tracker_token", "")
	v.SetDefault("tracker_project", "")

	v.SetDefault("slack_token", "")
	v.SetDefault("slack_channel", "")

	v.SetDefault("dedup_dsn", "")
	v.SetDefault("dedup_capacity", 500)

	v.SetDefault("listen", "127.0.0.1:8085")
	v.SetDefault("database_dsn", "")
	v.SetDefault("jwt_secret", "")
}

// Load reads settings from defaults, an optional YAML file and the
// environment (AUTOPILOT_* plus a few unprefixed names), in increasing
// order of precedence.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AUTOPILOT")
	v.AutomaticEnv()
	_ = v.BindEnv("database_dsn", "AUTOPILOT_DATABASE_DSN", "DATABASE_DSN")
	_ = v.BindEnv("jwt_secret", "AUTOPILOT_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("gemini_api_key", "AUTOPILOT_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("google_client_id", "AUTOPILOT_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google_client_secret", "AUTOPILOT_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")
	_ = v.BindEnv("google_refresh_token", "AUTOPILOT_GOOGLE_REFRESH_TOKEN", "GOOGLE_REFRESH_TOKEN")

	if path == "" {
		path = os.Getenv("AUTOPILOT_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	s.Normalize()

	if err := InitCrypto(); err != nil {
		return nil, err
	}
	if err := s.resolveSecrets(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Normalize() {
	if s.DelayAfterEndMinutes < MinDelayAfterEndMinutes {
		s.DelayAfterEndMinutes = MinDelayAfterEndMinutes
	}
	if s.RefreshIntervalMinutes < MinRefreshIntervalMinutes {
		s.RefreshIntervalMinutes = MinRefreshIntervalMinutes
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = 2 * time.Minute
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = 2
	}
	if s.LateFireFloor <= 0 {
		s.LateFireFloor = 30 * time.Second
	}
	if s.CandidateLimit <= 0 {
		s.CandidateLimit = 20
	}
	if s.CalendarTimeout <= 0 {
		s.CalendarTimeout = 5 * time.Second
	}
	s.CalendarProvider = strings.ToLower(strings.TrimSpace(s.CalendarProvider))
	if s.CalendarProvider == "" {
		s.CalendarProvider = "ics"
	}
	names := s.CalendarNames[:0]
	for _, name := range s.CalendarNames {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	s.CalendarNames = names
	if s.DedupCapacity <= 0 {
		s.DedupCapacity = 500
	}
	if strings.TrimSpace(s.DedupDSN) == "" {
		s.DedupDSN = "file://" + filepath.Join(DataDir(), "processed.json")
	}
	if s.LLMModel == "" {
		s.LLMModel = "gemini-2.0-flash"
	}
}

func (s *Settings) resolveSecrets() error {
	for name, field := range map[string]*string{
		"notes_token":          &s.NotesToken,
		"tracker_token":        &s.TrackerToken,
		"slack_token":          &s.SlackToken,
		"gemini_api_key":       &s.GeminiAPIKey,
		"google_client_secret": &s.GoogleClientSecret,
		"google_refresh_token": &s.GoogleRefreshToken,
		"database_dsn":         &s.DatabaseDSN,
	} {
		value, err := ResolveSecret(*field)
		if err != nil {
			return fmt.Errorf("decrypt %s: %w", name, err)
		}
		*field = value
	}
	return nil
}

func (s *Settings) DelayAfterEnd() time.Duration {
	return time.Duration(s.DelayAfterEndMinutes) * time.Minute
}

func (s *Settings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalMinutes) * time.Minute
}

// Location resolves Timezone, falling back to time.Local for empty or
// unknown zone names.
func (s *Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		Logger.WithError(err).Warnf("Unknown timezone %q, using local time", s.Timezone)
		return time.Local
	}
	return loc
}

func (s *Settings) ValidateNotes() error {
	if strings.TrimSpace(s.NotesToken) == "" {
		return fmt.Errorf("%w: notes_token (AUTOPILOT_NOTES_TOKEN) is required", ErrMissingCredentials)
	}
	return nil
}

func (s *Settings) ValidateCalendar() error {
	switch s.CalendarProvider {
	case "ics":
		if strings.TrimSpace(s.CalendarICS) == "" {
			return fmt.Errorf("%w: calendar_ics (AUTOPILOT_CALENDAR_ICS) is required for the ics provider", ErrMissingCredentials)
		}
	case "google":
		if s.GoogleClientID == "" || s.GoogleClientSecret == "" || s.GoogleRefreshToken == "" {
			return fmt.Errorf("%w: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN are required for the google provider", ErrMissingCredentials)
		}
	default:
		return fmt.Errorf("unsupported calendar_provider: %s", s.CalendarProvider)
	}
	return nil
}

func (s *Settings) ValidatePipeline() error {
	var missing []string
	if s.GeminiAPIKey == "" {
		missing = append(missing, "gemini_api_key")
	}
	if s.TrackerBaseURL == "" || s.TrackerToken == "" {
		missing = append(missing, "tracker_base_url/tracker_token")
	}
	if s.SlackToken == "" || s.SlackChannel == "" {
		missing = append(missing, "slack_token/slack_channel")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return s.ValidateNotes()
}

func (s *Settings) ValidateServe() error {
	if err := s.ValidateCalendar(); err != nil {
		return err
	}
	if s.RefreshCron != "" && len(strings.Fields(s.RefreshCron)) != 5 {
		return fmt.Errorf("refresh_cron must have 5 fields, got %q", s.RefreshCron)
	}
	return s.ValidatePipeline()
}

// DataDir is where local state lives when no explicit DSN is configured.
func DataDir() string {
	if dir := strings.TrimSpace(os.Getenv("AUTOPILOT_DATA_DIR")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chronos-autopilot"
	}
	return filepath.Join(home, ".chronos-autopilot")
}

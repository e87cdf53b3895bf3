package config

import "time"

// Config holds runtime settings for the StudyPlan client.
//
// Fields:
//   - BackendBaseURL: base URL of the backend REST API.
//   - DatabasePath: SQLite file holding the queue, id mappings and snapshots.
//   - OnlineCheckInterval: how often the client probes backend reachability.
//   - ReviewOffsets: spaced-repetition review schedule, in days after a
//     study session. Kept configurable rather than baked in.
//   - ReminderOffsets: default reminder schedule for assignments and
//     lectures, in minutes before the due/start time.
//   - JitterMinutes: spread applied to each reminder timestamp.
//   - PreferredHour: hour of day (0..23) review reminders are normalized to.
type Config struct {
	BackendBaseURL      string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	ReviewOffsets       []float64
	ReminderOffsets     []float64
	JitterMinutes       int
	PreferredHour       int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "studyplan.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.ReviewOffsets = []float64{1, 3, 7, 14, 30, 90}
	c.ReminderOffsets = []float64{30}
	c.JitterMinutes = 0
	c.PreferredHour = 9
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

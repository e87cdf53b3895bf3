package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mkorolev/studyplan/internal/flagx"
	"github.com/mkorolev/studyplan/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "3s" or
// as integer nanoseconds; values are then copied into the runtime Config.
type JsonConfig struct {
	BackendBaseURL      string         `json:"backend_base_url"`
	DatabasePath        string         `json:"database_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	ReviewOffsets       []float64      `json:"review_offsets"`
	ReminderOffsets     []float64      `json:"reminder_offsets"`
	JitterMinutes       *int           `json:"jitter_minutes"`
	PreferredHour       *int           `json:"preferred_hour"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. No flag means no JSON is loaded. Absent JSON fields keep
// their current values; read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BackendBaseURL != "" {
		cfg.BackendBaseURL = jc.BackendBaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.ReviewOffsets != nil {
		cfg.ReviewOffsets = jc.ReviewOffsets
	}
	if jc.ReminderOffsets != nil {
		cfg.ReminderOffsets = jc.ReminderOffsets
	}
	if jc.JitterMinutes != nil {
		cfg.JitterMinutes = *jc.JitterMinutes
	}
	if jc.PreferredHour != nil {
		cfg.PreferredHour = *jc.PreferredHour
	}
}

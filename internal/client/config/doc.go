// Package config loads runtime configuration for the StudyPlan client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST API
//	-d string   path to the local SQLite database file
//	-i int      online status check interval (seconds)
//	-j int      reminder jitter (minutes)
//	-H int      preferred hour of day for review reminders
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "backend_base_url": "https://api.example.com",
//	  "database_path": "studyplan.db",
//	  "online_check_interval": "3s",
//	  "review_offsets": [1, 3, 7, 14, 30, 90],
//	  "reminder_offsets": [30, 1440],
//	  "jitter_minutes": 15,
//	  "preferred_hour": 9
//	}
//
// The review schedule is deliberately configuration, not a constant: the
// day offsets above are the shipped default, and deployments tune them per
// product decision.
//
// Note: this package does not read environment variables; use the JSON file
// or flags to configure values.
package config

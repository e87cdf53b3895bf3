package config

import (
	"flag"
	"os"
	"time"

	"github.com/mkorolev/studyplan/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend REST API (default from Config)
//	-d string   path to the local SQLite database file
//	-i int      online check interval in seconds (default from Config)
//	-j int      reminder jitter in minutes
//	-H int      preferred hour of day for review reminders
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-j", "-H"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendBaseURL, "a", cfg.BackendBaseURL, "base URL of the backend API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database file")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.IntVar(&cfg.JitterMinutes, "j", cfg.JitterMinutes, "reminder jitter (in minutes)")
	fs.IntVar(&cfg.PreferredHour, "H", cfg.PreferredHour, "preferred hour of day for review reminders")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}

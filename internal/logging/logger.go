// Package logging configures the global zerolog logger. Log lines go to
// stderr so they never interleave with the cut-list tables and metric lines
// the commands print on stdout.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level from REEL_LOG_LEVEL (trace, debug, info, warn,
// error) and switches to human-readable console output. Unknown or empty
// values mean info.
func Init() {
	zerolog.SetGlobalLevel(levelFromEnv(os.Getenv("REEL_LOG_LEVEL")))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func levelFromEnv(value string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Package logging configures the process-wide zerolog logger.
//
// Log output always goes to stderr so that stdout stays reserved for
// command results (text or JSON).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger based on verbosity level.
// 0 → warn, 1 → info, 2 → debug, 3 and above → trace.
//
// A nil writer means stderr.
func Setup(verbosity int, w io.Writer) {
	zerolog.SetGlobalLevel(LevelFor(verbosity))

	if w == nil {
		w = os.Stderr
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    w != os.Stderr,
	}

	log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()

	// Caller information is only worth the noise when debugging.
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Msg("Logger initialized")
}

// LevelFor maps a -v count to a zerolog level.
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Get returns a logger tagged with the given component name.
func Get(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{7, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, LevelFor(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

// TestSetup_FiltersByLevel checks that messages below the configured
// level are dropped and that component tags are written.
func TestSetup_FiltersByLevel(t *testing.T) {
	origLogger := log.Logger
	origLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = origLogger
		zerolog.SetGlobalLevel(origLevel)
	})

	var buf bytes.Buffer
	Setup(1, &buf)

	logger := Get("pack")
	logger.Debug().Msg("hidden debug line")
	logger.Info().Msg("visible info line")

	out := buf.String()
	assert.NotContains(t, out, "hidden debug line")
	assert.Contains(t, out, "visible info line")
	assert.Contains(t, out, "component=pack")
}

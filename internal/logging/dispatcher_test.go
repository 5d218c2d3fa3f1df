package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "failed to parse log output")
	return entry
}

func TestNewDispatcherLogger(t *testing.T) {
	dl := NewDispatcherLogger(zerolog.New(&bytes.Buffer{}))

	if dl == nil {
		t.Fatal("expected non-nil DispatcherLogger")
	}
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(dl *DispatcherLogger)
		level string
		msg   string
	}{
		{
			name:  "debug",
			log:   func(dl *DispatcherLogger) { dl.Debug("handling event", "event", "shot_fired", "owner", "Airshot Flag") },
			level: "debug",
			msg:   "handling event",
		},
		{
			name:  "info",
			log:   func(dl *DispatcherLogger) { dl.Info("plugin loaded", "event", "shot_fired") },
			level: "info",
			msg:   "plugin loaded",
		},
		{
			name:  "error",
			log:   func(dl *DispatcherLogger) { dl.Error("event failed", "event", "player_die") },
			level: "error",
			msg:   "event failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

			tt.log(dl)

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.msg, entry["message"])
			assert.NotEmpty(t, entry["event"])
		})
	}
}

func TestDispatcherLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("spawned", "player", 3, "flag", "AT", 42, "dropped")

	entry := decodeLine(t, &buf)
	assert.Equal(t, float64(3), entry["player"]) // JSON numbers are float64
	assert.Equal(t, "AT", entry["flag"])
	assert.NotContains(t, entry, "42")
}

func TestDispatcherLogger_ImplementsInterface(t *testing.T) {
	dl := NewDispatcherLogger(zerolog.New(&bytes.Buffer{}))

	var _ interface {
		Debug(msg string, keysAndValues ...any)
		Info(msg string, keysAndValues ...any)
		Error(msg string, keysAndValues ...any)
	} = dl
}

func TestNewZerolog_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "warn")

	logger.Info().Msg("filtered")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("kept")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Contains(t, entry, "time")
}

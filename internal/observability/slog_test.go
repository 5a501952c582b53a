package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/journal/internal/config"
)

func TestToLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ToLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ToLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, ToLogLevel("warn"))
	assert.Equal(t, slog.LevelError, ToLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ToLogLevel(""))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json when not a terminal", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		cfg := config.Default()
		logger := newLogger(cfg, buf, false)

		logger.Debug("hidden")
		logger.Info("shown", slog.Int("id", 1))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "shown", record["msg"])
		assert.InDelta(t, 1, record["id"], 0)
	})

	t.Run("text with debug level", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		cfg := config.Default()
		cfg.LogLevel = "debug"
		logger := newLogger(cfg, buf, true)

		logger.Debug("visible")
		assert.Contains(t, buf.String(), "msg=visible")
	})
}

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kitchen.log")
	t.Setenv("LOG_FILE", path)

	logger, err := NewLogger("kitchen-keeper", "test")
	require.NoError(t, err)
	logger.Info("meal_served")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &line))
	assert.Equal(t, "meal_served", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "kitchen-keeper", line["service"])
	assert.Equal(t, "test", line["env"])
	assert.Contains(t, line, "ts")
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	logger, err := NewLogger("svc", "test", WithLevel(zapcore.WarnLevel))
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLoggerWithOTelBridge(t *testing.T) {
	logger, err := NewLogger("svc", "test", WithOTel(noop.NewLoggerProvider()))
	require.NoError(t, err)

	assert.NotPanics(t, func() { logger.Info("bridged") })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestWithTraceNormalisesEmptyIDs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithTrace(zap.New(core), "", SystemSpanID).Info("boot")

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "unknown", ctx["trace_id"])
	assert.Equal(t, "system", ctx["span_id"])
}

package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blackscar-server/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")

	log, err := logger.New(logger.Config{Level: "debug", Encoding: "json", OutputPath: out})
	require.NoError(t, err)

	log.Debug("scene committed", zap.String("sessionID", "s-1"))
	_ = log.Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, `"level":"DEBUG"`)
	assert.Contains(t, line, `"msg":"scene committed"`)
	assert.Contains(t, line, `"sessionID":"s-1"`)
	assert.Contains(t, line, `"timestamp"`)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")

	log, err := logger.New(logger.Config{Level: "loud", OutputPath: out})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_UnknownEncodingUsesJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")

	log, err := logger.New(logger.Config{Level: "info", Encoding: "xml", OutputPath: out})
	require.NoError(t, err)

	log.Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(data)), "{"))
}

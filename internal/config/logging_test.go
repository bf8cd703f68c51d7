package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFallback(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := LogConfig{Level: "warn"}.NewLogger(&buf)
	require.NoError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown", "node", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "node=3")
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodegraph.log")
	var buf bytes.Buffer
	logger, closeFn, err := LogConfig{Level: "debug", File: path}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Debug("drag start", "node", 1)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "drag start")
	assert.Empty(t, buf.String())
}

func TestNewLoggerNilFallbackDiscards(t *testing.T) {
	logger, closeFn, err := LogConfig{}.NewLogger(nil)
	require.NoError(t, err)
	assert.NoError(t, closeFn())
	logger.Error("nowhere")
}

func TestNewLoggerErrors(t *testing.T) {
	_, _, err := LogConfig{Level: "chatty"}.NewLogger(nil)
	assert.Error(t, err)

	_, _, err = LogConfig{File: filepath.Join(t.TempDir(), "missing", "x.log")}.NewLogger(nil)
	assert.Error(t, err)
}

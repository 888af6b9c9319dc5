package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecmon.log")

	log, err := NewLogger(path, zapcore.WarnLevel)
	require.NoError(t, err)
	log.Debug("scan rate", zap.Int("rate", 812))
	_ = log.Sync() // stderr may not support fsync

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan rate")
	assert.Contains(t, string(data), "812")
}

func TestNewLoggerBadPath(t *testing.T) {
	_, err := NewLogger(filepath.Join(t.TempDir(), "missing", "ecmon.log"), zapcore.InfoLevel)
	assert.Error(t, err)
}

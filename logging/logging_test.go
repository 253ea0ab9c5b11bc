package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/parley/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "info", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetup_FansOut(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "parley.log")

	logger, cleanup, err := logging.Setup(&console, logFile, slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("exchange failed", "session", "abc")
	logger.Debug("hidden")
	require.NoError(t, cleanup())

	assert.Contains(t, console.String(), "msg=\"exchange failed\"")
	assert.Contains(t, console.String(), "session=abc")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "exchange failed", rec["msg"])
	assert.Equal(t, "abc", rec["session"])
}

func TestSetup_FileOnly(t *testing.T) {
	t.Parallel()
	logFile := filepath.Join(t.TempDir(), "parley.log")

	logger, cleanup, err := logging.Setup(nil, logFile, slog.LevelDebug)
	require.NoError(t, err)
	logger.Debug("visible")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}

func TestSetup_Discard(t *testing.T) {
	t.Parallel()
	logger, cleanup, err := logging.Setup(nil, "", slog.LevelInfo)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
	assert.NoError(t, cleanup())
}

func TestSetup_BadPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, _, err := logging.Setup(nil, filepath.Join(blocker, "parley.log"), slog.LevelInfo)

	assert.Error(t, err)
}

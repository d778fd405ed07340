package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	lvl, err := ParseLevel("loud")
	require.Error(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, slog.LevelWarn)

	lg.Info("hidden")
	lg.Warn("workspace closed", slog.String("workspace_id", "ws-1"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "workspace closed")
	assert.Contains(t, out, "ws-1")
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	_, err := Setup(&buf, "nope")
	require.Error(t, err)

	slog.Info("default logger")
	assert.Contains(t, buf.String(), "default logger")
}

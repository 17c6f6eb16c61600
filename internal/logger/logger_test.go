package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo, "json")
	l.Debug("hidden")
	l.Info("rgc_encode_done", "nodes", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "rgc_encode_done", rec["msg"])
	assert.EqualValues(t, 3, rec["nodes"])
}

func TestSetAndL(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	var buf bytes.Buffer
	Set(New(&buf, slog.LevelDebug, "text"))
	L().Debug("kdtree_build_done", "points", 5)
	assert.Contains(t, buf.String(), "msg=kdtree_build_done")
	assert.Contains(t, buf.String(), "points=5")
}

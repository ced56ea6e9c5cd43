package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterAddsServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "api", slog.LevelInfo)
	log.Info("hello", "space_uuid", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "api", record["service"])
	assert.Equal(t, "abc", record["space_uuid"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

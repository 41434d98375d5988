package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestErrorWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("info", &buf)

	l.Error(errors.New("disk full"), "FileStore - Move - os.Rename %s", "a.wav")

	m := decode(t, &buf)
	assert.Equal(t, "error", m["level"])
	assert.Equal(t, "disk full", m["error"])
	assert.Equal(t, "FileStore - Move - os.Rename a.wav", m["message"])
}

func TestInfoFormatsArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("debug", &buf)

	l.Info("stored %d files", 3)

	m := decode(t, &buf)
	assert.Equal(t, "info", m["level"])
	assert.Equal(t, "stored 3 files", m["message"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Debug("hidden")
	l.Info("hidden too")

	assert.Zero(t, buf.Len())
}

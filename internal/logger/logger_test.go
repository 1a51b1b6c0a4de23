package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	SetVerbose(false)
	_ = Init(Config{Output: os.Stderr})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "debug", entries[0]["level"])
	assert.Equal(t, "test message arg", entries[0]["message"])
	assert.Equal(t, "chatbot", entries[0]["service"])
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("test message")
	Section("pipeline")

	assert.Zero(t, buf.Len(), "expected no output when verbose is disabled")
}

func TestInfoWarnError_AlwaysLogged(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Info("info %d", 1)
	Warn("warn %d", 2)
	Error("error %d", 3)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "warn", entries[1]["level"])
	assert.Equal(t, "error", entries[2]["level"])
	assert.Equal(t, "error 3", entries[2]["message"])
}

func TestInit_Level(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "WARN", Output: &buf}))

	Info("hidden")
	Warn("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestInit_InvalidLevel(t *testing.T) {
	defer reset()

	assert.Error(t, Init(Config{Level: "loud"}))
}

func TestInit_Pretty(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	require.NoError(t, Init(Config{Pretty: true, Output: &buf}))

	Info("hello console")

	assert.Contains(t, buf.String(), "hello console")
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}

func TestComponent(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	l := Component("selector")
	l.Info().Int("chunks", 3).Msg("selected")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "selector", entries[0]["component"])
	assert.EqualValues(t, 3, entries[0]["chunks"])
}

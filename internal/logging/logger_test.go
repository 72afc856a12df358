package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelInfo, &buf)
	t.Cleanup(DisableLogging)

	Debug("hidden")
	Info("shown", "command", "ls")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "ls", rec["command"])
}

func TestSetLevelKeepsSink(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelError, &buf)
	t.Cleanup(DisableLogging)

	Warn("dropped")
	SetLevel(LevelDebug)
	Debug("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestEnableFileLogging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	require.NoError(t, EnableFileLogging(dir, LevelWarn))
	t.Cleanup(DisableLogging)

	Info("skipped")
	Error("persisted", "file", "a.js")
	Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "persisted")
	assert.NotContains(t, string(data), "skipped")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}

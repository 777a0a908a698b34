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
	"go.uber.org/zap"
)

func TestNew_WritesConsoleAndJSONFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, path, err := New(Options{Env: "test", Dir: dir, Console: &console})
	require.NoError(t, err)

	logger.Debug("debug only in file")
	logger.Info("task rotated", zap.String("taskID", "task-1"))
	require.NoError(t, logger.Sync())

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "test_"))

	assert.Contains(t, console.String(), "task rotated")
	assert.NotContains(t, console.String(), "debug only in file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "task rotated", entry["msg"])
	assert.Equal(t, "task-1", entry["taskID"])
	assert.Equal(t, "test", entry["env"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_DefaultsEnvName(t *testing.T) {
	dir := t.TempDir()

	_, path, err := New(Options{Dir: dir, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "default_"))
}

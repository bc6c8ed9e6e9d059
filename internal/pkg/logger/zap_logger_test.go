package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_GetLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := NewIsolatedLogger(path)

	l.Info("Dispatcher", "turn started", map[string]interface{}{"dialog_id": "d1"})
	l.Warn("Dispatcher", "tool failed", nil)
	l.Debug("Dispatcher", "below file level", nil)
	l.Error("Gateway", "connect failed", map[string]interface{}{"error": "refused"})
	require.NoError(t, l.Sync())

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "connect failed", all[0].Message)
	assert.Equal(t, "Gateway", all[0].Module)
	assert.Equal(t, "turn started", all[2].Message)
	assert.Equal(t, "d1", all[2].Details["dialog_id"])

	warns, err := l.GetLogs("WARN", 10, 0)
	require.NoError(t, err)
	require.Len(t, warns, 1)

	found, err := l.GetLogById(warns[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "tool failed", found.Message)

	page, err := l.GetLogs("", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("Test", "ignored", nil)

	logs, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

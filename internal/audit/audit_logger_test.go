package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goloanme/backend/internal/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	previous := logger.Default()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(previous) })
	return logs
}

func TestLogger_LogAdminTransfer(t *testing.T) {
	logs := observe(t)
	a := NewLogger()
	a.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	a.LogAdminTransfer("admin-1", "ref-1", "acc-a", "acc-b", 250, "demo top-up")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	assert.Equal(t, "AUDIT", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "ADMIN_TRANSFER", fields["event_type"])

	event, ok := fields["event"].(Event)
	require.True(t, ok)
	assert.Equal(t, "admin-1", event.Actor)
	assert.Equal(t, int64(250), event.Amount)
	assert.Equal(t, "demo top-up", event.Details["note"])
	assert.Equal(t, "acc-b", event.Details["to_account"])
}

func TestLogger_LogError(t *testing.T) {
	logs := observe(t)

	NewLogger().LogError("ref-9", "acc-a", errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	event := logs.All()[0].ContextMap()["event"].(Event)
	assert.Equal(t, StatusFailed, event.Status)
	assert.Equal(t, "boom", event.Details["error"])
}

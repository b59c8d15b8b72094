package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "notifications", cfg.DynamoTables.Notifications)
	assert.Equal(t, "push_subscriptions", cfg.DynamoTables.Subscriptions)
	assert.Equal(t, 32, cfg.Broadcast.Workers)
	assert.Equal(t, int64(64), cfg.Broadcast.MaxInFlight)
	assert.Equal(t, 10*time.Second, cfg.Broadcast.DeviceTimeout)
	assert.True(t, cfg.Broadcast.PruneExpiredSubs)
	assert.Equal(t, "/icons/icon-192x192.png", cfg.DefaultIcon)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("BROADCAST_WORKERS", "4")
	t.Setenv("BROADCAST_DEADLINE", "5s")
	t.Setenv("DYNAMO_TABLE_READ_RECEIPTS", "receipts_test")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 4, cfg.Broadcast.Workers)
	assert.Equal(t, 5*time.Second, cfg.Broadcast.Deadline)
	assert.Equal(t, "receipts_test", cfg.DynamoTables.ReadReceipts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_RejectsNonPositiveWorkers(t *testing.T) {
	t.Setenv("BROADCAST_WORKERS", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "BROADCAST_WORKERS")
}

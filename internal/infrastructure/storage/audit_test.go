package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/nutriweek/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemAuditLog_AppendAndList(t *testing.T) {
	log, err := NewFilesystemAuditLog(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := domain.AuditEntry{
			ID:        "share_abc_1",
			Timestamp: fmt.Sprintf("2025-01-0%dT10:00:00Z", i+1),
			HashedIP:  fmt.Sprintf("hash-%d", i),
			UserAgent: "test-agent",
		}
		require.NoError(t, log.Append(ctx, entry))
	}

	entries, err := log.List(ctx, "share_abc_1")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Append order is preserved.
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("hash-%d", i), entry.HashedIP)
		assert.Equal(t, "test-agent", entry.UserAgent)
	}
}

func TestFilesystemAuditLog_SeparateStreams(t *testing.T) {
	log, err := NewFilesystemAuditLog(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, domain.AuditEntry{ID: "share_a", HashedIP: "h1"}))
	require.NoError(t, log.Append(ctx, domain.AuditEntry{ID: "share_b", HashedIP: "h2"}))

	a, err := log.List(ctx, "share_a")
	require.NoError(t, err)
	assert.Len(t, a, 1)

	b, err := log.List(ctx, "share_b")
	require.NoError(t, err)
	assert.Len(t, b, 1)
	assert.Equal(t, "h2", b[0].HashedIP)
}

func TestFilesystemAuditLog_MissingID(t *testing.T) {
	log, err := NewFilesystemAuditLog(t.TempDir())
	require.NoError(t, err)

	entries, err := log.List(context.Background(), "share_never_seen")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryAuditLog(t *testing.T) {
	log := NewMemoryAuditLog()
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, domain.AuditEntry{ID: "share_x", HashedIP: "h1"}))
	require.NoError(t, log.Append(ctx, domain.AuditEntry{ID: "share_x", HashedIP: "h2"}))

	entries, err := log.List(ctx, "share_x")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "h1", entries[0].HashedIP)
	assert.Equal(t, "h2", entries[1].HashedIP)

	// The returned slice is a copy.
	entries[0].HashedIP = "mutated"
	again, err := log.List(ctx, "share_x")
	require.NoError(t, err)
	assert.Equal(t, "h1", again[0].HashedIP)
}

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, dbPath
}

func TestSQLiteRepository_SessionLifecycle(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.PutSession(ctx, "s1", []byte(`{"user":"ann"}`), time.Hour))
	data, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"ann"}`, string(data))

	require.NoError(t, repo.PutSession(ctx, "s1", []byte(`{"user":"bob"}`), time.Hour))
	data, err = repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"bob"}`, string(data))

	count, err := repo.CountSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repo.DeleteSession(ctx, "s1"))
	require.NoError(t, repo.DeleteSession(ctx, "s1"))
	_, err = repo.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRepository_Expiry(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.PutSession(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, repo.PutSession(ctx, "long", []byte("b"), time.Hour))

	now = now.Add(10 * time.Minute)

	_, err := repo.GetSession(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.TouchSession(ctx, "short", time.Hour), ErrNotFound)
	require.NoError(t, repo.TouchSession(ctx, "long", 2*time.Hour))

	removed, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	now = now.Add(90 * time.Minute)
	_, err = repo.GetSession(ctx, "long")
	assert.NoError(t, err, "touched session should outlive its original TTL")
}

func TestMigrations(t *testing.T) {
	_, dbPath := newTestRepository(t)

	version, dirty, err := MigrationVersion(dbPath)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
	assert.False(t, dirty)

	require.NoError(t, RunMigrations(dbPath), "re-running migrations is a no-op")

	require.NoError(t, RollbackMigrations(dbPath, 1))
	version, _, err = MigrationVersion(dbPath)
	require.NoError(t, err)
	assert.EqualValues(t, 0, version)
}

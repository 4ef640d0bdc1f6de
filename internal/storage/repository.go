package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a session row is missing or expired.
var ErrNotFound = errors.New("session not found")

// SQLiteRepository persists opaque session payloads keyed by session id.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetSession returns the payload of a live session.
func (r *SQLiteRepository) GetSession(ctx context.Context, id string) ([]byte, error) {
	row, err := r.queries.GetSession(ctx, GetSessionParams{ID: id, Now: r.now().Unix()})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return row.Data, nil
}

// PutSession inserts or replaces a session payload.
func (r *SQLiteRepository) PutSession(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	now := r.now()
	err := r.queries.UpsertSession(ctx, UpsertSessionParams{
		ID:        id,
		Data:      data,
		ExpiresAt: now.Add(ttl).Unix(),
		Now:       now.Unix(),
	})
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// TouchSession extends the expiry of a live session.
func (r *SQLiteRepository) TouchSession(ctx context.Context, id string, ttl time.Duration) error {
	now := r.now()
	n, err := r.queries.TouchSession(ctx, TouchSessionParams{
		ID:        id,
		ExpiresAt: now.Add(ttl).Unix(),
		Now:       now.Unix(),
	})
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	if err := r.queries.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired sessions and reports how many were removed.
func (r *SQLiteRepository) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return n, nil
}

// CountSessions returns the number of live sessions.
func (r *SQLiteRepository) CountSessions(ctx context.Context) (int64, error) {
	n, err := r.queries.CountLiveSessions(ctx, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

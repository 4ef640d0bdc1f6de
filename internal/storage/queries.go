package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Session struct {
	ID        string
	Data      []byte
	ExpiresAt int64
	CreatedAt int64
	UpdatedAt int64
}

const getSession = `-- name: GetSession :one
SELECT id, data, expires_at, created_at, updated_at
FROM sessions
WHERE id = ? AND expires_at > ?
`

type GetSessionParams struct {
	ID  string
	Now int64
}

func (q *Queries) GetSession(ctx context.Context, arg GetSessionParams) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, arg.ID, arg.Now)
	var i Session
	err := row.Scan(&i.ID, &i.Data, &i.ExpiresAt, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const upsertSession = `-- name: UpsertSession :exec
INSERT INTO sessions (id, data, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    data = excluded.data,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at
`

type UpsertSessionParams struct {
	ID        string
	Data      []byte
	ExpiresAt int64
	Now       int64
}

func (q *Queries) UpsertSession(ctx context.Context, arg UpsertSessionParams) error {
	_, err := q.db.ExecContext(ctx, upsertSession, arg.ID, arg.Data, arg.ExpiresAt, arg.Now, arg.Now)
	return err
}

const touchSession = `-- name: TouchSession :execrows
UPDATE sessions SET expires_at = ?, updated_at = ?
WHERE id = ? AND expires_at > ?
`

type TouchSessionParams struct {
	ID        string
	ExpiresAt int64
	Now       int64
}

func (q *Queries) TouchSession(ctx context.Context, arg TouchSessionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, touchSession, arg.ExpiresAt, arg.Now, arg.ID, arg.Now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM sessions WHERE id = ?
`

func (q *Queries) DeleteSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, id)
	return err
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :execrows
DELETE FROM sessions WHERE expires_at <= ?
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countLiveSessions = `-- name: CountLiveSessions :one
SELECT COUNT(*) FROM sessions WHERE expires_at > ?
`

func (q *Queries) CountLiveSessions(ctx context.Context, now int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countLiveSessions, now)
	var count int64
	err := row.Scan(&count)
	return count, err
}

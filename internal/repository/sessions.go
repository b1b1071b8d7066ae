package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

// SessionsRepository persists authenticated visitor sessions.
type SessionsRepository struct {
	pool *pgxpool.Pool
}

// Create stores a session. A blank ID is replaced by a fresh UUID.
func (r *SessionsRepository) Create(ctx context.Context, s domain.Session) (domain.Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session id: %w", err)
	}

	const query = `
        INSERT INTO sessions (id, user_id, username, token, expires_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, user_id, username, token, created_at, expires_at
    `
	return scanSession(r.pool.QueryRow(ctx, query, id, s.UserID, s.Username, s.Token, s.ExpiresAt.UTC()))
}

// Get loads a session by id. Malformed ids are reported as ErrNotFound.
func (r *SessionsRepository) Get(ctx context.Context, id string) (domain.Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Session{}, ErrNotFound
	}
	const query = `
        SELECT id, user_id, username, token, created_at, expires_at
        FROM sessions
        WHERE id = $1
    `
	return scanSession(r.pool.QueryRow(ctx, query, parsed))
}

// UpdateUsername renames the user on every session they hold.
func (r *SessionsRepository) UpdateUsername(ctx context.Context, userID int, username string) error {
	const query = `UPDATE sessions SET username = $2 WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, query, userID, username); err != nil {
		return fmt.Errorf("update session username: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (r *SessionsRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, parsed); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges sessions that expired at or before now.
func (r *SessionsRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		s  domain.Session
		id uuid.UUID
	)
	err := row.Scan(&id, &s.UserID, &s.Username, &s.Token, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, ErrNotFound
		}
		return domain.Session{}, err
	}
	s.ID = id.String()
	return s, nil
}

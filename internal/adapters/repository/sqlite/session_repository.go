package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		profile      TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		token_type   TEXT NOT NULL DEFAULT 'bearer',
		user_json    TEXT,
		updated_at   INTEGER NOT NULL
	)
`

// CreateSchema creates the sessions table if it does not exist yet.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) ports.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Get(ctx context.Context, profile string) (*domain.Session, error) {
	query := `
		SELECT profile, access_token, token_type, user_json, updated_at
		FROM sessions
		WHERE profile = ?
	`
	var (
		session   domain.Session
		userJSON  sql.NullString
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, profile).Scan(
		&session.Profile,
		&session.AccessToken,
		&session.TokenType,
		&userJSON,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session.UpdatedAt = time.Unix(0, updatedAt).UTC()

	if userJSON.Valid && userJSON.String != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(userJSON.String), &user); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
		session.User = &user
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	var userJSON sql.NullString
	if session.User != nil {
		b, err := json.Marshal(session.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		userJSON = sql.NullString{String: string(b), Valid: true}
	}

	query := `
		INSERT INTO sessions (profile, access_token, token_type, user_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (profile) DO UPDATE
		SET access_token = excluded.access_token,
		    token_type = excluded.token_type,
		    user_json = excluded.user_json,
		    updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		session.Profile, session.AccessToken, session.TokenType, userJSON, session.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, profile string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE profile = ?`, profile); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

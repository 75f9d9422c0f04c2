// Package storage persists session credentials in SQLite so signed-in
// browsers survive a frontend restart.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expensetracker/internal/session"

	_ "modernc.org/sqlite"
)

// CredentialStore implements session.Store on SQLite.
type CredentialStore struct {
	db *sql.DB
}

var _ session.Store = (*CredentialStore)(nil)

func NewCredentialStore(dbPath string) (*CredentialStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("Credential store ready", "path", dbPath, "schema_version", version)
	return &CredentialStore{db: db}, nil
}

func (s *CredentialStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CredentialStore) Load(ctx context.Context, id string) (session.Credential, error) {
	const q = `SELECT token, token_type, user_id, username, email, roles
		FROM sessions WHERE session_id = ?`

	var (
		cred  session.Credential
		roles string
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&cred.Token, &cred.TokenType, &cred.UserID, &cred.Username, &cred.Email, &roles)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Credential{}, session.ErrNotFound
	}
	if err != nil {
		return session.Credential{}, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(roles), &cred.Roles); err != nil {
		return session.Credential{}, fmt.Errorf("decode roles: %w", err)
	}
	return cred, nil
}

func (s *CredentialStore) Save(ctx context.Context, id string, cred session.Credential) error {
	const q = `INSERT INTO sessions (session_id, token, token_type, user_id, username, email, roles, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			token = excluded.token,
			token_type = excluded.token_type,
			user_id = excluded.user_id,
			username = excluded.username,
			email = excluded.email,
			roles = excluded.roles,
			updated_at = excluded.updated_at`

	roles := cred.Roles
	if roles == nil {
		roles = []string{}
	}
	encoded, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, q, id, cred.Token, cred.TokenType, cred.UserID,
		cred.Username, cred.Email, string(encoded), time.Now().UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteStale removes sessions not written since before and returns how many
// were removed.
func (s *CredentialStore) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted sessions: %w", err)
	}
	return n, nil
}

// Count returns the number of stored sessions.
func (s *CredentialStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

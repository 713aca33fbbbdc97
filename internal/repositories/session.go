package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"syncopate/internal/shared"
)

// Session holds the stored credentials for one connected service.
type Session struct {
	Service     string
	AccessToken string
	UserToken   string
	Storefront  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionRepository persists one session per service.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save inserts or replaces the session for session.Service.
func (r *SessionRepository) Save(session *Session) error {
	if session.Service == "" {
		return fmt.Errorf("%w: session has no service", shared.ErrValidation)
	}

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	query := `
		INSERT INTO sessions (service, access_token, user_token, storefront, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			access_token = excluded.access_token,
			user_token = excluded.user_token,
			storefront = excluded.storefront,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		session.Service, session.AccessToken, session.UserToken,
		session.Storefront, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Get retrieves the stored session for a service.
// Returns shared.ErrNotConnected when no session exists.
func (r *SessionRepository) Get(service string) (*Session, error) {
	query := `
		SELECT service, access_token, user_token, storefront, created_at, updated_at
		FROM sessions
		WHERE service = ?
	`

	var session Session
	err := r.db.QueryRow(query, service).Scan(
		&session.Service, &session.AccessToken, &session.UserToken,
		&session.Storefront, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotConnected, service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

// Delete removes a service's stored session. Deleting a missing session is
// not an error.
func (r *SessionRepository) Delete(service string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE service = ?", service); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns every stored session ordered by service name.
func (r *SessionRepository) List() ([]Session, error) {
	rows, err := r.db.Query(`
		SELECT service, access_token, user_token, storefront, created_at, updated_at
		FROM sessions
		ORDER BY service
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		if err := rows.Scan(
			&session.Service, &session.AccessToken, &session.UserToken,
			&session.Storefront, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
)

// SessionRepository implements [models.SessionStore] on the sessions table.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session
func (r *SessionRepository) Create(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	values, cookies, err := encodeSession(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, values_json, cookies_json, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, s.ID(), values, cookies, s.CreatedAt().UTC(), s.UpdatedAt().UTC(), s.ExpiresAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	s.MarkClean()
	return nil
}

// Get retrieves a live session by ID
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `
		SELECT id, values_json, cookies_json, created_at, updated_at, expires_at
		FROM sessions
		WHERE id = ?
	`

	s, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if s.Expired(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionExpired, id)
	}
	return s, nil
}

// Update overwrites the values, cookies and expiry of an existing session
func (r *SessionRepository) Update(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	values, cookies, err := encodeSession(s)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET values_json = ?, cookies_json = ?, updated_at = ?, expires_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, values, cookies, s.UpdatedAt().UTC(), s.ExpiresAt().UTC(), s.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, s.ID())
	}

	s.MarkClean()
	return nil
}

// Save inserts s or updates it when it already exists
func (r *SessionRepository) Save(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	values, cookies, err := encodeSession(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, values_json, cookies_json, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			values_json = excluded.values_json,
			cookies_json = excluded.cookies_json,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
	`

	_, err = r.db.Exec(query, s.ID(), values, cookies, s.CreatedAt().UTC(), s.UpdatedAt().UTC(), s.ExpiresAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.MarkClean()
	return nil
}

// Delete removes a session. Sessions are not soft deleted.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return nil
}

// List retrieves sessions, newest first.
//
// Criteria: "active" (bool) keeps only unexpired sessions.
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `
		SELECT id, values_json, cookies_json, created_at, updated_at, expires_at
		FROM sessions
		WHERE 1 = 1
	`

	args := []any{}

	if active, ok := criteria["active"].(bool); ok && active {
		query += " AND expires_at > ?"
		args = append(args, time.Now().UTC())
	}

	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// Prune deletes sessions that expired at or before now
func (r *SessionRepository) Prune(now time.Time) (int, error) {
	result, err := r.db.Exec("DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		id          string
		valuesJSON  string
		cookiesJSON string
		createdAt   time.Time
		updatedAt   time.Time
		expiresAt   time.Time
	)

	if err := row.Scan(&id, &valuesJSON, &cookiesJSON, &createdAt, &updatedAt, &expiresAt); err != nil {
		return nil, err
	}

	values, err := decodeMap(valuesJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: session values: %v", shared.ErrMalformedResponse, err)
	}
	cookies, err := decodeMap(cookiesJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: session cookies: %v", shared.ErrMalformedResponse, err)
	}

	return models.RestoreSession(id, values, cookies, createdAt, updatedAt, expiresAt), nil
}

func encodeSession(s *models.Session) (values, cookies string, err error) {
	if values, err = encodeMap(s.Values()); err != nil {
		return "", "", fmt.Errorf("failed to encode session values: %w", err)
	}
	if cookies, err = encodeMap(s.Cookies()); err != nil {
		return "", "", fmt.Errorf("failed to encode session cookies: %w", err)
	}
	return values, cookies, nil
}

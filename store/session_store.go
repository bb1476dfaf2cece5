package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"funneltrack/api/analytics"
	"funneltrack/api/models"
)

// SessionStore persists visitor sessions in PostgreSQL. Date bounds are always
// bound as query parameters, never interpolated into SQL text.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionColumns = `session_id, created_at, last_activity, is_converted, conversion_amount,
		device_info, user_agent, device_type, utm_source, utm_medium, utm_campaign,
		referrer, country, country_code, ip_address`

// EnsureSchema creates the sessions table and its indexes if absent.
func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_activity TIMESTAMPTZ NOT NULL DEFAULT now(),
			is_converted BOOLEAN NOT NULL DEFAULT FALSE,
			conversion_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			device_info TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			device_type TEXT NOT NULL DEFAULT 'unknown',
			utm_source TEXT NOT NULL DEFAULT 'direct',
			utm_medium TEXT NOT NULL DEFAULT '',
			utm_campaign TEXT NOT NULL DEFAULT '',
			referrer TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT 'Unknown',
			country_code TEXT NOT NULL DEFAULT 'XX',
			ip_address TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions (last_activity)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure sessions schema: %v", models.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// CreateSession inserts a new session record.
func (s *SessionStore) CreateSession(ctx context.Context, sess models.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.SessionID, sess.CreatedAt, sess.LastActivity, sess.Converted, sess.ConversionAmount,
		sess.DeviceInfo, sess.UserAgent, string(sess.DeviceType), sess.UTMSource, sess.UTMMedium,
		sess.UTMCampaign, sess.Referrer, sess.Country, sess.CountryCode, sess.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("%w: create session: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// GetSession loads one session. Fails with models.ErrUnknownSession when the
// id does not exist.
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE session_id = $1;`
	sess, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownSession, sessionID)
		}
		return nil, fmt.Errorf("%w: get session: %v", models.ErrStoreUnavailable, err)
	}
	return sess, nil
}

// TouchActivity advances last_activity; it never moves backwards.
func (s *SessionStore) TouchActivity(ctx context.Context, sessionID string, ts time.Time) error {
	query := `UPDATE sessions SET last_activity = GREATEST(last_activity, $2) WHERE session_id = $1;`
	res, err := s.db.ExecContext(ctx, query, sessionID, ts)
	if err != nil {
		return fmt.Errorf("%w: touch activity: %v", models.ErrStoreUnavailable, err)
	}
	return checkSessionAffected(res, sessionID)
}

// MarkConverted flips the converted flag, records the value, and bumps
// last_activity in one UPDATE, atomic per row. A repeated call overwrites
// the previously recorded value.
func (s *SessionStore) MarkConverted(ctx context.Context, sessionID string, amount float64, ts time.Time) error {
	query := `
		UPDATE sessions
		SET is_converted = TRUE, conversion_amount = $2, last_activity = GREATEST(last_activity, $3)
		WHERE session_id = $1;
	`
	res, err := s.db.ExecContext(ctx, query, sessionID, amount, ts)
	if err != nil {
		return fmt.Errorf("%w: mark converted: %v", models.ErrStoreUnavailable, err)
	}
	return checkSessionAffected(res, sessionID)
}

// QuerySessions returns every session created inside the range.
func (s *SessionStore) QuerySessions(ctx context.Context, r analytics.DateRange) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at;
	`
	return s.querySessions(ctx, query, r.Start, r.End)
}

// QueryActiveSessions returns sessions with activity at or after since,
// regardless of when they were created.
func (s *SessionStore) QueryActiveSessions(ctx context.Context, since time.Time) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE last_activity >= $1;`
	return s.querySessions(ctx, query, since)
}

// CountSessionsCreatedSince reports session volume for the health endpoint.
func (s *SessionStore) CountSessionsCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE created_at >= $1;`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count sessions: %v", models.ErrStoreUnavailable, err)
	}
	return count, nil
}

// Ping verifies connectivity for health checks.
func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SessionStore) querySessions(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query sessions: %v", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan session: %v", models.ErrStoreUnavailable, err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %v", models.ErrStoreUnavailable, err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var sess models.Session
	var deviceType string
	err := row.Scan(
		&sess.SessionID, &sess.CreatedAt, &sess.LastActivity, &sess.Converted, &sess.ConversionAmount,
		&sess.DeviceInfo, &sess.UserAgent, &deviceType, &sess.UTMSource, &sess.UTMMedium,
		&sess.UTMCampaign, &sess.Referrer, &sess.Country, &sess.CountryCode, &sess.IPAddress,
	)
	if err != nil {
		return nil, err
	}
	sess.DeviceType = models.NormalizeDeviceType(deviceType)
	return &sess, nil
}

func checkSessionAffected(res sql.Result, sessionID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", models.ErrStoreUnavailable, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", models.ErrUnknownSession, sessionID)
	}
	return nil
}

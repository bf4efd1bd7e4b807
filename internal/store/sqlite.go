package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/asedra/attila/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory SQLite gives every pooled connection its own database, so
	// keep it to a single connection
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys so hard-deleting a session cascades to its messages
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := s.seedDefaultFunctions(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed functions: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			content TEXT NOT NULL,
			message_type TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			metadata TEXT,
			FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(session_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS functions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			icon TEXT NOT NULL DEFAULT 'gear',
			category TEXT NOT NULL,
			parameters TEXT,
			is_enabled INTEGER NOT NULL DEFAULT 1,
			is_system INTEGER NOT NULL DEFAULT 0,
			implementation TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			metadata TEXT
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on any failure.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, title, description string, metadata []byte) (*domain.Session, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsActive:    true,
		Metadata:    metadata,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_sessions (id, title, description, created_at, updated_at, is_active, metadata)
			 VALUES (?, ?, ?, ?, ?, 1, ?)`,
			session.ID, session.Title, nullable(session.Description), session.CreatedAt, session.UpdatedAt, nullableBytes(metadata))
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession retrieves a session by ID, or nil when not found.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.title, s.description, s.created_at, s.updated_at, s.is_active, s.metadata,
		        (SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = s.id)
		 FROM chat_sessions s WHERE s.id = ?`, sessionID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns sessions ordered by updated_at descending. Inactive
// (soft-deleted) sessions are excluded unless includeInactive is set.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int, includeInactive bool) ([]domain.Session, error) {
	query := `SELECT s.id, s.title, s.description, s.created_at, s.updated_at, s.is_active, s.metadata,
	                 (SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = s.id)
	          FROM chat_sessions s`
	if !includeInactive {
		query += ` WHERE s.is_active = 1`
	}
	query += ` ORDER BY s.updated_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// UpdateSession applies partial field updates and refreshes updated_at.
// Returns nil when the session does not exist.
func (s *SQLiteStore) UpdateSession(ctx context.Context, sessionID string, fields SessionUpdate) (*domain.Session, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if fields.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *fields.Description)
	}
	if fields.Metadata != nil {
		sets = append(sets, "metadata = ?")
		args = append(args, string(fields.Metadata))
	}
	args = append(args, sessionID)

	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE chat_sessions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return s.GetSession(ctx, sessionID)
}

// SoftDeleteSession flips the active flag; message history is retained.
func (s *SQLiteStore) SoftDeleteSession(ctx context.Context, sessionID string) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE chat_sessions SET is_active = 0, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), sessionID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	return found, err
}

// HardDeleteSession removes the session; messages cascade via the foreign key.
func (s *SQLiteStore) HardDeleteSession(ctx context.Context, sessionID string) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, sessionID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	return found, err
}

// AddMessage appends a message to a session and refreshes the session's
// updated_at in the same transaction. Returns nil when the session is missing.
func (s *SQLiteStore) AddMessage(ctx context.Context, sessionID, content, messageType string, metadata []byte) (*domain.Message, error) {
	now := time.Now().UTC()
	msg := &domain.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Content:   content,
		Type:      messageType,
		Timestamp: now,
		Metadata:  metadata,
	}

	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions WHERE id = ?`, sessionID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return nil
		}
		found = true

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (id, session_id, content, message_type, timestamp, metadata)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			msg.ID, msg.SessionID, msg.Content, msg.Type, msg.Timestamp, nullableBytes(metadata)); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, now, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return msg, nil
}

// ListMessages returns messages for a session in timestamp order.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, content, message_type, timestamp, metadata
		 FROM chat_messages WHERE session_id = ?
		 ORDER BY timestamp ASC LIMIT ? OFFSET ?`,
		sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// RecentMessages returns the most recent messages in chronological order.
func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, content, message_type, timestamp, metadata
		 FROM chat_messages WHERE session_id = ?
		 ORDER BY timestamp DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	// Reverse for chronological delivery
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// DeleteMessage deletes a single message by ID.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, messageID string) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE id = ?`, messageID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	return found, err
}

// SearchMessages finds messages whose content contains the query substring,
// most recent first. The match is a LIKE scan, so it is case-insensitive for
// ASCII. An optional session ID narrows the search.
func (s *SQLiteStore) SearchMessages(ctx context.Context, query, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, session_id, content, message_type, timestamp, metadata
	      FROM chat_messages WHERE content LIKE ? ESCAPE '\'`
	args := []interface{}{likePattern(query)}
	if sessionID != "" {
		q += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	q += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// SessionStats returns message counts for a session, or nil when the session
// does not exist.
func (s *SQLiteStore) SessionStats(ctx context.Context, sessionID string) (*domain.SessionStats, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	stats := &domain.SessionStats{
		SessionID: sessionID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: session.UpdatedAt.Format(time.RFC3339Nano),
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN message_type = 'user' THEN 1 END),
		        COUNT(CASE WHEN message_type = 'assistant' THEN 1 END)
		 FROM chat_messages WHERE session_id = ?`, sessionID).
		Scan(&stats.TotalMessages, &stats.UserMessages, &stats.AssistantMessages)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var description, metadata sql.NullString
	var isActive int
	if err := row.Scan(&session.ID, &session.Title, &description, &session.CreatedAt,
		&session.UpdatedAt, &isActive, &metadata, &session.MessageCount); err != nil {
		return nil, err
	}
	session.Description = description.String
	session.IsActive = isActive == 1
	if metadata.Valid && metadata.String != "" {
		session.Metadata = []byte(metadata.String)
	}
	return &session, nil
}

func collectMessages(rows *sql.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var metadata sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Content, &msg.Type, &msg.Timestamp, &metadata); err != nil {
			return nil, err
		}
		if metadata.Valid && metadata.String != "" {
			msg.Metadata = []byte(metadata.String)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// likePattern wraps a substring query for LIKE, escaping its wildcards.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

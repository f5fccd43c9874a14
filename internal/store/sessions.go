package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Session represents a debate session.
type Session struct {
	ID        int64
	Title     string
	Topic     string
	Rules     string
	IsActive  bool
	CreatedAt int64
	UpdatedAt int64
}

// CreateSession creates a new debate session.
func (db *DB) CreateSession(title, topic, rules string) (*Session, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO sessions (title, topic, rules, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
	`, title, topic, rules, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, _ := result.LastInsertId()
	return &Session{
		ID:        id,
		Title:     title,
		Topic:     topic,
		Rules:     rules,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetSession returns a session by id, or nil if not found.
func (db *DB) GetSession(id int64) (*Session, error) {
	var s Session
	var active int
	err := db.QueryRow(`
		SELECT id, title, topic, rules, is_active, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.Title, &s.Topic, &s.Rules, &active, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.IsActive = active != 0
	return &s, nil
}

// ListSessions returns the most recent sessions, ordered by created_at DESC.
func (db *DB) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, title, topic, rules, is_active, created_at, updated_at
		FROM sessions ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var active int
		if err := rows.Scan(&s.ID, &s.Title, &s.Topic, &s.Rules, &active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.IsActive = active != 0
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// EndSession marks a session inactive.
func (db *DB) EndSession(id int64) error {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE sessions SET is_active = 0, updated_at = ? WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("end session %d: %w", id, ErrNotFound)
	}
	return nil
}

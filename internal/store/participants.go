package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Participant is a debate persona scoped to one session. Critique memory
// belongs to the participant, not the session.
type Participant struct {
	ID          int64
	SessionID   int64
	Name        string
	Position    string
	Constraints string
	Disallowed  string
	KeySources  string
	Archived    bool
	CreatedAt   int64
}

// AddParticipant adds a participant to a session.
func (db *DB) AddParticipant(sessionID int64, name, position, constraints, disallowed, keySources string) (*Participant, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO participants (session_id, name, position, constraints, disallowed, key_sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, name, position, constraints, disallowed, keySources, now)
	if err != nil {
		return nil, fmt.Errorf("insert participant: %w", err)
	}

	id, _ := result.LastInsertId()
	return &Participant{
		ID:          id,
		SessionID:   sessionID,
		Name:        name,
		Position:    position,
		Constraints: constraints,
		Disallowed:  disallowed,
		KeySources:  keySources,
		CreatedAt:   now,
	}, nil
}

// GetParticipant returns a participant by id, or nil if not found.
func (db *DB) GetParticipant(id int64) (*Participant, error) {
	var p Participant
	var archived int
	err := db.QueryRow(`
		SELECT id, session_id, name, position, constraints, disallowed, key_sources, archived, created_at
		FROM participants WHERE id = ?
	`, id).Scan(&p.ID, &p.SessionID, &p.Name, &p.Position, &p.Constraints,
		&p.Disallowed, &p.KeySources, &archived, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	p.Archived = archived != 0
	return &p, nil
}

// ListParticipants returns a session's participants ordered by creation time.
func (db *DB) ListParticipants(sessionID int64) ([]Participant, error) {
	rows, err := db.Query(`
		SELECT id, session_id, name, position, constraints, disallowed, key_sources, archived, created_at
		FROM participants WHERE session_id = ? ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		var archived int
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Name, &p.Position, &p.Constraints,
			&p.Disallowed, &p.KeySources, &archived, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.Archived = archived != 0
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ArchiveParticipant marks a participant as archived. Archived participants
// keep their critique rules but stop appearing as active debaters.
func (db *DB) ArchiveParticipant(id int64) error {
	result, err := db.Exec(`UPDATE participants SET archived = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive participant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("archive participant %d: %w", id, ErrNotFound)
	}
	return nil
}

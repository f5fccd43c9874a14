package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Turn ratings. A downvote carries a reason that feeds the critique memory.
const (
	RatingUp   = 1
	RatingDown = -1
)

// Turn is a single transcript entry: one participant's response in a session.
type Turn struct {
	ID             int64
	SessionID      int64
	ParticipantID  int64
	Content        string
	TokenCount     int
	Rating         *int
	DownvoteReason string
	IsIncomplete   bool
	CreatedAt      int64
}

// AddTurn appends a turn to the session transcript.
func (db *DB) AddTurn(sessionID, participantID int64, content string, tokenCount int, incomplete bool) (*Turn, error) {
	now := time.Now().UnixMilli()
	inc := 0
	if incomplete {
		inc = 1
	}
	result, err := db.Exec(`
		INSERT INTO turns (session_id, participant_id, content, token_count, is_incomplete, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, participantID, content, tokenCount, inc, now)
	if err != nil {
		return nil, fmt.Errorf("insert turn: %w", err)
	}

	id, _ := result.LastInsertId()
	return &Turn{
		ID:            id,
		SessionID:     sessionID,
		ParticipantID: participantID,
		Content:       content,
		TokenCount:    tokenCount,
		IsIncomplete:  incomplete,
		CreatedAt:     now,
	}, nil
}

// GetTurn returns a turn by id, or nil if not found.
func (db *DB) GetTurn(id int64) (*Turn, error) {
	var t Turn
	var rating sql.NullInt64
	var reason sql.NullString
	var inc int
	err := db.QueryRow(`
		SELECT id, session_id, participant_id, content, token_count, rating, downvote_reason, is_incomplete, created_at
		FROM turns WHERE id = ?
	`, id).Scan(&t.ID, &t.SessionID, &t.ParticipantID, &t.Content, &t.TokenCount,
		&rating, &reason, &inc, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get turn: %w", err)
	}
	if rating.Valid {
		r := int(rating.Int64)
		t.Rating = &r
	}
	t.DownvoteReason = reason.String
	t.IsIncomplete = inc != 0
	return &t, nil
}

// ListTurns returns all turns for a session in transcript order.
func (db *DB) ListTurns(sessionID int64) ([]Turn, error) {
	rows, err := db.Query(`
		SELECT id, session_id, participant_id, content, token_count, rating, downvote_reason, is_incomplete, created_at
		FROM turns WHERE session_id = ? ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var rating sql.NullInt64
		var reason sql.NullString
		var inc int
		if err := rows.Scan(&t.ID, &t.SessionID, &t.ParticipantID, &t.Content, &t.TokenCount,
			&rating, &reason, &inc, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if rating.Valid {
			r := int(rating.Int64)
			t.Rating = &r
		}
		t.DownvoteReason = reason.String
		t.IsIncomplete = inc != 0
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// RateTurn records a thumbs up/down on a turn. The downvote reason is
// diagnostic only; feeding it into critique memory is the caller's job.
func (db *DB) RateTurn(id int64, rating int, downvoteReason string) error {
	result, err := db.Exec(`
		UPDATE turns SET rating = ?, downvote_reason = NULLIF(?, '') WHERE id = ?
	`, rating, downvoteReason, id)
	if err != nil {
		return fmt.Errorf("rate turn: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("rate turn %d: %w", id, ErrNotFound)
	}
	return nil
}

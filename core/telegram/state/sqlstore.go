package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore persists sessions in the conversation_sessions table.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore constructs a Store backed by db. Works with postgres and sqlite3.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

type sessionRow struct {
	Payload string `db:"payload"`
	Version int64  `db:"version"`
}

// Load fetches and decodes the session for key.
func (s *SQLStore) Load(ctx context.Context, key int64) (*Session, error) {
	var row sessionRow
	q := s.db.Rebind(`SELECT payload, version FROM conversation_sessions WHERE conversation_id = ?`)
	if err := s.db.GetContext(ctx, &row, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewSession(), nil
		}
		return nil, fmt.Errorf("state: load session %d: %w", key, err)
	}
	return Decode([]byte(row.Payload), row.Version)
}

// Save inserts a new session or updates an existing one when versions match.
func (s *SQLStore) Save(ctx context.Context, key int64, sess *Session) error {
	payload, err := Encode(sess)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	var res sql.Result
	if sess.Version == 0 {
		q := s.db.Rebind(`INSERT INTO conversation_sessions (conversation_id, payload, version, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT (conversation_id) DO NOTHING`)
		res, err = s.db.ExecContext(ctx, q, key, string(payload), now)
	} else {
		q := s.db.Rebind(`UPDATE conversation_sessions
			SET payload = ?, version = version + 1, updated_at = ?
			WHERE conversation_id = ? AND version = ?`)
		res, err = s.db.ExecContext(ctx, q, string(payload), now, key, sess.Version)
	}
	if err != nil {
		return fmt.Errorf("state: save session %d: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("state: save session %d: %w", key, err)
	}
	if n == 0 {
		return ErrConflict
	}
	sess.Version++
	sess.MarkClean()
	return nil
}

// Delete removes the stored session.
func (s *SQLStore) Delete(ctx context.Context, key int64) error {
	q := s.db.Rebind(`DELETE FROM conversation_sessions WHERE conversation_id = ?`)
	if _, err := s.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("state: delete session %d: %w", key, err)
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/onnwee/livechat/chat"
)

// ErrSessionNotFound is returned when a checkpoint targets an unknown session id.
var ErrSessionNotFound = errors.New("stream session not found")

// SessionRecord is a stored checkpoint plus its timestamps.
type SessionRecord struct {
	chat.Checkpoint
	StartedAt time.Time
	UpdatedAt time.Time
	StoppedAt *time.Time
}

// SessionStore persists runner checkpoints in stream_sessions. It implements chat.Checkpointer.
type SessionStore struct {
	DB *sql.DB
}

var _ chat.Checkpointer = (*SessionStore)(nil)

func NewSessionStore(db *sql.DB) *SessionStore { return &SessionStore{DB: db} }

// BeginSession inserts a new session row. Re-beginning an existing id resets its counters.
func (s *SessionStore) BeginSession(ctx context.Context, cp chat.Checkpoint) error {
	if cp.SessionID == "" {
		return errors.New("begin session: empty session id")
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO stream_sessions (id, watch_url, live_id, client_version, continuation, ticks, items, ended, started_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		ON CONFLICT (id) DO UPDATE SET watch_url=EXCLUDED.watch_url, live_id=EXCLUDED.live_id, client_version=EXCLUDED.client_version,
			continuation=EXCLUDED.continuation, ticks=EXCLUDED.ticks, items=EXCLUDED.items, ended=EXCLUDED.ended,
			started_at=NOW(), updated_at=NOW(), stopped_at=NULL`,
		cp.SessionID, cp.WatchURL, cp.LiveID, cp.ClientVersion, cp.Continuation, cp.Ticks, cp.Items, cp.Ended)
	if err != nil {
		return fmt.Errorf("begin session %s: %w", cp.SessionID, err)
	}
	return nil
}

// SaveCheckpoint records the last known-good continuation and counters.
func (s *SessionStore) SaveCheckpoint(ctx context.Context, cp chat.Checkpoint) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE stream_sessions SET live_id=$2, client_version=$3, continuation=$4, ticks=$5, items=$6, ended=$7, updated_at=NOW() WHERE id=$1`,
		cp.SessionID, cp.LiveID, cp.ClientVersion, cp.Continuation, cp.Ticks, cp.Items, cp.Ended)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.SessionID, err)
	}
	return requireRow(res, cp.SessionID)
}

// EndSession writes the final checkpoint and stamps stopped_at.
func (s *SessionStore) EndSession(ctx context.Context, cp chat.Checkpoint) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE stream_sessions SET continuation=COALESCE(NULLIF($2::text,''), continuation), ticks=$3, items=$4, ended=$5, updated_at=NOW(), stopped_at=NOW() WHERE id=$1`,
		cp.SessionID, cp.Continuation, cp.Ticks, cp.Items, cp.Ended)
	if err != nil {
		return fmt.Errorf("end session %s: %w", cp.SessionID, err)
	}
	return requireRow(res, cp.SessionID)
}

// Latest returns the most recently started session for watchURL, or
// ErrSessionNotFound when there is none.
func (s *SessionStore) Latest(ctx context.Context, watchURL string) (*SessionRecord, error) {
	var (
		rec                                 SessionRecord
		liveID, clientVersion, continuation sql.NullString
		stoppedAt                           sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, `SELECT id, watch_url, live_id, client_version, continuation, ticks, items, ended, started_at, updated_at, stopped_at
		FROM stream_sessions WHERE watch_url=$1 ORDER BY started_at DESC LIMIT 1`, watchURL).
		Scan(&rec.SessionID, &rec.WatchURL, &liveID, &clientVersion, &continuation, &rec.Ticks, &rec.Items, &rec.Ended, &rec.StartedAt, &rec.UpdatedAt, &stoppedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	rec.LiveID = liveID.String
	rec.ClientVersion = clientVersion.String
	rec.Continuation = continuation.String
	if stoppedAt.Valid {
		t := stoppedAt.Time.UTC()
		rec.StoppedAt = &t
	}
	return &rec, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/livechat/telemetry"
)

// DefaultPollInterval is the tick period used when Runner.Interval is unset.
const DefaultPollInterval = 3 * time.Second

// Checkpoint is the bookkeeping snapshot of one ingestion session. It carries
// no chat content.
type Checkpoint struct {
	SessionID     string
	WatchURL      string
	LiveID        string
	ClientVersion string
	Continuation  string
	Ticks         int64
	Items         int64
	Ended         bool
}

// Checkpointer persists session checkpoints. Implementations must tolerate
// being called with an already-cancelled parent context on shutdown.
type Checkpointer interface {
	BeginSession(ctx context.Context, cp Checkpoint) error
	SaveCheckpoint(ctx context.Context, cp Checkpoint) error
	EndSession(ctx context.Context, cp Checkpoint) error
}

// Status is a point-in-time view of a Runner, safe to hand to other goroutines.
type Status struct {
	SessionID string     `json:"session_id,omitempty"`
	WatchURL  string     `json:"watch_url"`
	LiveID    string     `json:"live_id,omitempty"`
	Active    bool       `json:"active"`
	Ended     bool       `json:"ended"`
	Ticks     int64      `json:"ticks"`
	Failures  int64      `json:"failures"`
	Items     int64      `json:"items"`
	LastError string     `json:"last_error,omitempty"`
	LastTick  *time.Time `json:"last_tick,omitempty"`
}

// Runner drives a Client on a fixed interval. It is the only caller of the
// client's Start, Tick and Stop, so the client itself needs no locking.
type Runner struct {
	Client       *Client
	Interval     time.Duration
	Checkpointer Checkpointer // optional

	mu     sync.Mutex
	status Status
}

// Status returns a copy of the current runner state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.status
	if s.WatchURL == "" && r.Client != nil {
		s.WatchURL = r.Client.WatchURL()
	}
	return s
}

// Ready reports whether the runner holds an active, not yet ended session.
func (r *Runner) Ready() bool {
	s := r.Status()
	return s.Active && !s.Ended
}

// Run starts the session and ticks until ctx is cancelled or the stream ends.
// A Start failure is returned immediately without retry. Tick failures are
// logged and the next tick reuses the last good continuation. Run returns nil
// on cancellation and on end of stream.
//
// Env knobs (read by config): CHAT_POLL_INTERVAL (default 3s).
func (r *Runner) Run(ctx context.Context) error {
	if r.Client == nil {
		return errors.New("runner: client not set")
	}
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	r.update(func(s *Status) { s.WatchURL = r.Client.WatchURL() })
	if err := r.Client.Start(ctx); err != nil {
		r.update(func(s *Status) { s.LastError = err.Error() })
		return err
	}
	sessionID := uuid.NewString()
	r.update(func(s *Status) {
		s.SessionID = sessionID
		s.LiveID = r.Client.LiveID()
		s.Active = true
		s.Ended = false
		s.LastError = ""
	})
	if r.Checkpointer != nil {
		if err := r.Checkpointer.BeginSession(ctx, r.checkpoint()); err != nil {
			slog.Warn("runner: begin session checkpoint", slog.Any("err", err), slog.String("component", "runner"))
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("runner: started poller", slog.Duration("interval", interval), slog.String("session_id", sessionID), slog.String("component", "runner"))
	for {
		if ctx.Err() != nil {
			r.finish(ctx)
			return nil
		}
		if ended := r.tick(ctx); ended {
			r.finish(ctx)
			return nil
		}
		select {
		case <-ctx.Done():
			r.finish(ctx)
			return nil
		case <-ticker.C:
		}
	}
}

// tick runs one client tick under a fresh correlation id and reports whether
// the stream has ended.
func (r *Runner) tick(ctx context.Context) bool {
	tctx := telemetry.WithCorrelation(ctx, uuid.NewString())
	n, err := r.Client.Tick(tctx)
	now := time.Now().UTC()
	ended := errors.Is(err, ErrStreamEnded)
	r.update(func(s *Status) {
		s.Ticks++
		s.Items += int64(n)
		s.LastTick = &now
		switch {
		case ended:
			s.Ended = true
		case err != nil:
			s.Failures++
			s.LastError = err.Error()
		default:
			s.LastError = ""
		}
	})
	if err != nil && !ended {
		return false
	}
	if r.Checkpointer != nil && !ended {
		if cerr := r.Checkpointer.SaveCheckpoint(ctx, r.checkpoint()); cerr != nil {
			telemetry.LoggerWithCorr(tctx).Warn("runner: save checkpoint", slog.Any("err", cerr), slog.String("component", "runner"))
		}
	}
	return ended
}

func (r *Runner) finish(ctx context.Context) {
	cp := r.checkpoint()
	r.Client.Stop()
	r.update(func(s *Status) { s.Active = false })
	if r.Checkpointer == nil {
		return
	}
	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.Checkpointer.EndSession(ectx, cp); err != nil {
		slog.Warn("runner: end session checkpoint", slog.Any("err", err), slog.String("component", "runner"))
	}
}

func (r *Runner) checkpoint() Checkpoint {
	s := r.Status()
	cp := Checkpoint{
		SessionID: s.SessionID,
		WatchURL:  s.WatchURL,
		LiveID:    s.LiveID,
		Ticks:     s.Ticks,
		Items:     s.Items,
		Ended:     s.Ended,
	}
	if sess, ok := r.Client.Session(); ok {
		cp.ClientVersion = sess.ClientVersion
		cp.Continuation = sess.Continuation
	}
	return cp
}

func (r *Runner) update(fn func(*Status)) {
	r.mu.Lock()
	fn(&r.status)
	r.mu.Unlock()
}

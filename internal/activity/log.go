package activity

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vidplan-labs/vidplan-core/internal/config"
	_ "modernc.org/sqlite"
)

// Entry is one recorded generation event. Only the timeline is kept; plans
// and rendered media never touch this store.
type Entry struct {
	ID        int64
	SessionID string
	TraceID   string
	Kind      string
	Provider  string
	Detail    []byte
	Duration  time.Duration
	CreatedAt time.Time
}

// Activity kinds recorded by the runtime.
const (
	KindPlanAssembled    = "plan.assembled"
	KindVoiceOverRender  = "voiceover.rendered"
	KindImageRender      = "image.rendered"
	KindMusicRender      = "music.rendered"
	KindChatTurn         = "chat.turn"
	KindProviderFallback = "provider.fallback"
)

// Log is a SQLite-backed timeline of generation activity. In ephemeral mode
// nothing is opened or written.
type Log struct {
	db    *sql.DB
	cfg   config.ActivityLogConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the activity log according to config.
func Open(ctx context.Context, cfg config.ActivityLogConfig, log *slog.Logger) (*Log, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Log{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	l := &Log{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := l.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if err := l.vacuum(ctx); err != nil {
			log.Warn("activity log vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := l.Prune(ctx); err != nil {
		log.Warn("activity log prune on start failed", slog.String("error", err.Error()))
	}

	return l, nil
}

func (l *Log) initSchema(ctx context.Context) error {
	if l.db == nil {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    label TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS activity (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    trace_id TEXT,
    kind TEXT,
    provider TEXT,
    detail BLOB,
    duration_ms INTEGER,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_activity_session_created ON activity(session_id, created_at);
`
	_, err := l.db.ExecContext(ctx, ddl)
	return err
}

func (l *Log) vacuum(ctx context.Context) error {
	if l.db == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close releases underlying resources.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// TouchSession ensures a session row exists.
func (l *Log) TouchSession(ctx context.Context, sessionID, label string) error {
	if l.cfg.RetentionMode == "ephemeral" || l.db == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO sessions(session_id, label, created_at)
		 VALUES(?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET label=excluded.label`,
		sessionID, label, l.clock().UTC())
	return err
}

// Record writes one activity entry.
func (l *Log) Record(ctx context.Context, entry Entry) error {
	if l.cfg.RetentionMode == "ephemeral" || l.db == nil {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.clock().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO activity(session_id, trace_id, kind, provider, detail, duration_ms, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID, entry.TraceID, entry.Kind, entry.Provider, entry.Detail,
		entry.Duration.Milliseconds(), entry.CreatedAt)
	return err
}

// ListSession retrieves up to limit entries for a session ordered ascending by time.
func (l *Log) ListSession(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if l.cfg.RetentionMode == "ephemeral" || l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, session_id, trace_id, kind, provider, detail, duration_ms, created_at
		 FROM activity WHERE session_id = ? ORDER BY created_at ASC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.TraceID, &e.Kind, &e.Provider, &e.Detail, &durationMS, &created); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune applies configured retention.
func (l *Log) Prune(ctx context.Context) error {
	if l.cfg.RetentionMode == "ephemeral" || l.db == nil {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if l.cfg.RetentionMode != "persistent" && l.cfg.RetentionMode != "session" {
		return tx.Commit()
	}
	if l.cfg.RetentionDays > 0 {
		cutoff := l.clock().Add(-time.Duration(l.cfg.RetentionDays) * 24 * time.Hour)
		if _, err = tx.ExecContext(ctx, `DELETE FROM activity WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	if l.cfg.MaxSessions > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id IN (
			SELECT session_id FROM sessions ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, l.cfg.MaxSessions)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

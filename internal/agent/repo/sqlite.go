package repo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/oklog/ulid/v2"

	"github.com/dialogcore/server/internal/agent/model"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	user_id    TEXT,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	intent     TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

CREATE TABLE IF NOT EXISTS analytics (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	intent     TEXT NOT NULL,
	confidence REAL NOT NULL,
	sentiment  TEXT NOT NULL,
	fallback   INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analytics_session ON analytics(session_id);
`

// OpenSQLite opens (creating directories as needed) and pings the database.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}
	return db, nil
}

// SQLiteMessageRepository persists message and analytics records. Failures
// are wrapped as persistence errors the pipeline downgrades to degraded
// mode, never a failed turn.
type SQLiteMessageRepository struct {
	db *sql.DB
}

func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

// EnsureSchema creates the tables on first run.
func (r *SQLiteMessageRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *SQLiteMessageRepository) SaveMessage(ctx context.Context, m *model.MessageRecord) error {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, user_id, role, text, intent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.UserID, m.Role, m.Text, m.Intent, m.CreatedAt,
	)
	if err != nil {
		logx.Error().Err(err).Str("session_id", m.SessionID).Msg("failed to save message record")
		return errx.WrapPersistence(err)
	}
	return nil
}

func (r *SQLiteMessageRepository) SaveAnalytics(ctx context.Context, a *model.AnalyticsRecord) error {
	if a.ID == "" {
		a.ID = ulid.Make().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO analytics (id, session_id, intent, confidence, sentiment, fallback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.Intent, a.Confidence, a.Sentiment, a.Fallback, a.CreatedAt,
	)
	if err != nil {
		logx.Error().Err(err).Str("session_id", a.SessionID).Msg("failed to save analytics record")
		return errx.WrapPersistence(err)
	}
	return nil
}

var _ model.MessageRepository = (*SQLiteMessageRepository)(nil)

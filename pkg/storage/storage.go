package storage

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS profiles (
  username       TEXT PRIMARY KEY,
  xp             INTEGER NOT NULL DEFAULT 0,
  total_analyses INTEGER NOT NULL DEFAULT 0,
  avg_accuracy   REAL NOT NULL DEFAULT 0,
  version        INTEGER NOT NULL DEFAULT 1,
  created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS analyses (
  id            TEXT PRIMARY KEY,
  username      TEXT,
  content_type  TEXT NOT NULL,
  excerpt       TEXT NOT NULL,
  preliminary   INTEGER NOT NULL,
  verification  INTEGER NOT NULL,
  context_score INTEGER NOT NULL,
  aggregate     INTEGER NOT NULL,
  estimate      INTEGER,
  discrepancy   INTEGER,
  verdict       TEXT NOT NULL,
  degraded      TEXT,
  full_json     TEXT NOT NULL,
  created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_analyses_user ON analyses(username, created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_time ON analyses(created_at);
CREATE TABLE IF NOT EXISTS news (
  url          TEXT PRIMARY KEY,
  title        TEXT NOT NULL,
  summary      TEXT,
  source       TEXT NOT NULL,
  publisher    TEXT,
  verdict      TEXT NOT NULL,
  language     TEXT,
  published_at DATETIME,
  fetched_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_news_verdict ON news(verdict, fetched_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// parseTime handles both SQLite CURRENT_TIMESTAMP ("2006-01-02 15:04:05")
// and RFC3339 strings.
func parseTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Package prefs persists the user's session preferences (symbol, interval,
// theme, toggles, layout) in SQLite, so the dashboard comes back up the way
// it was left.
package prefs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sessionKey = "session"

// Session is the persisted preference set.
type Session struct {
	Symbol     string          `json:"symbol"`
	Interval   string          `json:"interval"`
	Theme      string          `json:"theme"`
	Indicators map[string]bool `json:"indicators"`
	Overlays   map[string]bool `json:"overlays"`
	Layout     string          `json:"layout"`
	GridSyms   []string        `json:"grid_symbols,omitempty"`
}

// Store is a single-connection SQLite store.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Open opens (and initializes) the prefs database in WAL mode.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS prefs (
			key        TEXT PRIMARY KEY,
			data       TEXT    NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Info("prefs database opened", "path", path)
	return &Store{db: db, log: log}, nil
}

// Save upserts the session preferences.
func (s *Store) Save(sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO prefs (key, data, updated_at) VALUES (?, ?, ?)`,
		sessionKey, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite save session: %w", err)
	}
	return nil
}

// Load reads the session preferences. Returns ok=false when none were saved.
func (s *Store) Load() (Session, bool, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM prefs WHERE key = ?`, sessionKey).Scan(&data)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("sqlite load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return sess, true, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Package prefs persists display preferences in a small sqlite key-value
// store. Read once at startup, written back on toggle.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Display holds the conversation view toggles.
type Display struct {
	ShowToolCalls   bool
	CompactMode     bool
	CollapseTools   bool
	ShowThinking    bool
	ShowSessionInit bool
}

// DefaultDisplay returns the out-of-box toggles.
func DefaultDisplay() Display {
	return Display{
		ShowToolCalls:   true,
		CompactMode:     false,
		CollapseTools:   false,
		ShowThinking:    true,
		ShowSessionInit: false,
	}
}

const (
	keyShowToolCalls   = "showToolCalls"
	keyCompactMode     = "compactMode"
	keyCollapseTools   = "collapseTools"
	keyShowThinking    = "showThinking"
	keyShowSessionInit = "showSessionInit"
)

// Store is the preference database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the preference store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create prefs dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init prefs schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Display reads the display toggles, falling back to defaults for any key
// not yet stored.
func (s *Store) Display() (Display, error) {
	d := DefaultDisplay()
	for _, entry := range []struct {
		key string
		dst *bool
	}{
		{keyShowToolCalls, &d.ShowToolCalls},
		{keyCompactMode, &d.CompactMode},
		{keyCollapseTools, &d.CollapseTools},
		{keyShowThinking, &d.ShowThinking},
		{keyShowSessionInit, &d.ShowSessionInit},
	} {
		val, err := s.get(entry.key)
		if err != nil {
			return d, err
		}
		if val == "" {
			continue
		}
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			continue // a corrupt value falls back to its default
		}
		*entry.dst = parsed
	}
	return d, nil
}

// SetDisplay writes all display toggles.
func (s *Store) SetDisplay(d Display) error {
	for _, entry := range []struct {
		key string
		val bool
	}{
		{keyShowToolCalls, d.ShowToolCalls},
		{keyCompactMode, d.CompactMode},
		{keyCollapseTools, d.CollapseTools},
		{keyShowThinking, d.ShowThinking},
		{keyShowSessionInit, d.ShowSessionInit},
	} {
		if err := s.set(entry.key, strconv.FormatBool(entry.val)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) get(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read pref %s: %w", key, err)
	}
	return val, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write pref %s: %w", key, err)
	}
	return nil
}

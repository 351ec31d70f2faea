// Package store writes a finished analysis into a SQLite file so the
// merged records can be queried ad hoc. It is an export artifact the
// user asks for explicitly; the pipeline itself keeps nothing.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"filmlens/internal/anomaly"
	"filmlens/internal/merge"
	"filmlens/internal/stats"
)

// DB wraps a SQLite export database.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens an export database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

const schema = `
CREATE TABLE IF NOT EXISTS films (
	key           TEXT PRIMARY KEY,
	slug          TEXT,
	name          TEXT,
	year          INTEGER,
	url           TEXT,
	watched       INTEGER NOT NULL DEFAULT 0,
	rating        REAL,
	rewatch_count INTEGER NOT NULL DEFAULT 0,
	tags          TEXT,
	sources       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS diary_entries (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	film_key       TEXT NOT NULL REFERENCES films(key) ON DELETE CASCADE,
	effective_date TEXT,
	estimated      INTEGER NOT NULL DEFAULT 0,
	logged_date    TEXT,
	rewatch        INTEGER NOT NULL DEFAULT 0,
	tags           TEXT
);

CREATE TABLE IF NOT EXISTS review_samples (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	film_key TEXT NOT NULL REFERENCES films(key) ON DELETE CASCADE,
	text     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS summary (
	id                    INTEGER PRIMARY KEY CHECK (id = 1),
	label                 TEXT,
	watched               INTEGER NOT NULL,
	rated                 INTEGER NOT NULL,
	reviewed              INTEGER NOT NULL,
	longest_streak        INTEGER NOT NULL,
	import_spike_detected INTEGER NOT NULL,
	stats_json            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_diary_entries_film ON diary_entries(film_key);
CREATE INDEX IF NOT EXISTS idx_diary_entries_date ON diary_entries(effective_date);
`

func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= 1 {
		return nil
	}
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if _, err := conn.Exec("PRAGMA user_version = 1"); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return nil
}

// Save writes one finished analysis, replacing any previous export in
// the same file.
func (db *DB) Save(films []*merge.Film, pack *stats.StatPack, sum anomaly.Summary) error {
	statsJSON, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning export: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"review_samples", "diary_entries", "films", "summary"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	filmStmt, err := tx.Prepare(`
		INSERT INTO films (key, slug, name, year, url, watched, rating, rewatch_count, tags, sources)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing film insert: %w", err)
	}
	defer filmStmt.Close()

	entryStmt, err := tx.Prepare(`
		INSERT INTO diary_entries (film_key, effective_date, estimated, logged_date, rewatch, tags)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing diary insert: %w", err)
	}
	defer entryStmt.Close()

	reviewStmt, err := tx.Prepare(`INSERT INTO review_samples (film_key, text) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing review insert: %w", err)
	}
	defer reviewStmt.Close()

	for _, f := range films {
		sources := make([]string, len(f.Sources))
		for i, s := range f.Sources {
			sources[i] = string(s)
		}
		var year any
		if f.Year != nil {
			year = *f.Year
		}
		var rating any
		if f.Rating != nil {
			rating = *f.Rating
		}
		if _, err := filmStmt.Exec(
			f.Key, f.Slug, f.Name, year, f.URL,
			boolInt(f.Watched), rating, f.RewatchCount,
			strings.Join(f.Tags, ","), strings.Join(sources, ","),
		); err != nil {
			return fmt.Errorf("inserting film %s: %w", f.Key, err)
		}

		for _, e := range f.DiaryEntries {
			if _, err := entryStmt.Exec(
				f.Key, e.EffectiveDate, boolInt(e.Estimated),
				e.LoggedDate, boolInt(e.Rewatch), strings.Join(e.Tags, ","),
			); err != nil {
				return fmt.Errorf("inserting diary entry for %s: %w", f.Key, err)
			}
		}
		for _, text := range f.ReviewTexts {
			if _, err := reviewStmt.Exec(f.Key, text); err != nil {
				return fmt.Errorf("inserting review for %s: %w", f.Key, err)
			}
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO summary (id, label, watched, rated, reviewed, longest_streak, import_spike_detected, stats_json)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
	`, pack.Label, pack.Totals.Watched, pack.Totals.Rated, pack.Totals.Reviewed,
		pack.Timeline.LongestStreak, boolInt(sum.ImportSpikeDetected), string(statsJSON),
	); err != nil {
		return fmt.Errorf("inserting summary: %w", err)
	}

	return tx.Commit()
}

// CountFilms returns the number of exported film rows.
func (db *DB) CountFilms() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM films").Scan(&n)
	return n, err
}

// CountDiaryEntries returns the number of exported diary entry rows.
func (db *DB) CountDiaryEntries() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM diary_entries").Scan(&n)
	return n, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package netstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/railpath/internal/layout"
)

// ErrNoActiveLayout is returned when no layout version has been activated yet.
var ErrNoActiveLayout = errors.New("no active layout")

// TimeFormat is the fixed-width timestamp stored in created_at columns, so
// that text order is time order.
const TimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS layout_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	name          TEXT NOT NULL,
	layout_json   TEXT NOT NULL,
	note          TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES layout_versions(version_id)
);

CREATE TABLE IF NOT EXISTS search_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	search_id     TEXT NOT NULL UNIQUE,
	version_id    TEXT NOT NULL,
	request_json  TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	cost          INTEGER NOT NULL,
	steps_hash    TEXT,
	stats_json    TEXT,
	duration_us   INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES layout_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_layout (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES layout_versions(version_id)
);
`
// #endregion schema

// #region store-struct
// Store keeps versioned network layouts and the search log in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the search log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region commit-layout
// CommitLayout stores spec as a new version whose parent is the currently
// active one, and makes it active.
func (s *Store) CommitLayout(spec layout.Spec, note string) (LayoutRecord, error) {
	if _, err := spec.Build(); err != nil {
		return LayoutRecord{}, fmt.Errorf("validate layout: %w", err)
	}
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return LayoutRecord{}, fmt.Errorf("marshal layout: %w", err)
	}

	rec := LayoutRecord{
		VersionID: uuid.New().String(),
		Name:      spec.Name,
		Spec:      spec,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return LayoutRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentID sql.NullString
	err = tx.QueryRow(`SELECT version_id FROM active_layout WHERE id = 1`).Scan(&parentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return LayoutRecord{}, fmt.Errorf("get active: %w", err)
	}
	var parentPtr interface{}
	if parentID.Valid {
		rec.ParentID = parentID.String
		parentPtr = parentID.String
	}

	_, err = tx.Exec(
		`INSERT INTO layout_versions (version_id, parent_id, name, layout_json, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.VersionID, parentPtr, rec.Name, string(specJSON), nullIfEmpty(note),
		rec.CreatedAt.Format(TimeFormat),
	)
	if err != nil {
		return LayoutRecord{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_layout (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		rec.VersionID,
	)
	if err != nil {
		return LayoutRecord{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return LayoutRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}
// #endregion commit-layout

// #region get-current
// GetCurrent reads the active layout version.
func (s *Store) GetCurrent() (LayoutRecord, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_layout WHERE id = 1`).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return LayoutRecord{}, ErrNoActiveLayout
	}
	if err != nil {
		return LayoutRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}
// #endregion get-current

// #region get-version
// GetVersion retrieves a specific layout version by ID.
func (s *Store) GetVersion(id string) (LayoutRecord, error) {
	rec, err := scanLayout(s.db.QueryRow(
		`SELECT version_id, parent_id, name, layout_json, note, created_at
		 FROM layout_versions WHERE version_id = ?`, id,
	))
	if err != nil {
		return LayoutRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}
// #endregion get-version

// #region rollback
// Rollback sets the active pointer to a previous version.
func (s *Store) Rollback(targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM layout_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s not found", targetVersionID)
	}

	_, err = s.db.Exec(
		`INSERT INTO active_layout (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		targetVersionID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
// #endregion rollback

// #region list-versions
// ListVersions returns the most recent layout versions, newest first.
func (s *Store) ListVersions(limit int) ([]LayoutRecord, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, name, layout_json, note, created_at
		 FROM layout_versions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []LayoutRecord
	for rows.Next() {
		rec, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-versions

// #region helpers
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLayout(row rowScanner) (LayoutRecord, error) {
	var rec LayoutRecord
	var parentID, note sql.NullString
	var specJSON, createdStr string

	if err := row.Scan(&rec.VersionID, &parentID, &rec.Name, &specJSON, &note, &createdStr); err != nil {
		return LayoutRecord{}, err
	}
	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	if note.Valid {
		rec.Note = note.String
	}
	if err := json.Unmarshal([]byte(specJSON), &rec.Spec); err != nil {
		return LayoutRecord{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers

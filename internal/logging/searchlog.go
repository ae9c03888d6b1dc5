package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// createdAtFormat matches the fixed-width timestamps written by netstore.
const createdAtFormat = "2006-01-02T15:04:05.000000000Z07:00"

// #region log-search
// LogSearch writes entry to the search_log table.
func LogSearch(db *sql.DB, entry SearchEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO search_log (search_id, version_id, request_json, outcome, cost, steps_hash, stats_json, duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SearchID,
		entry.VersionID,
		entry.RequestJSON,
		entry.Outcome,
		entry.Cost,
		nullIfEmpty(entry.StepsHash),
		nullIfEmpty(entry.StatsJSON),
		entry.DurationUS,
		entry.CreatedAt.Format(createdAtFormat),
	)
	if err != nil {
		return fmt.Errorf("log search: %w", err)
	}
	return nil
}
// #endregion log-search

// #region read-back
const selectColumns = `SELECT search_id, version_id, request_json, outcome, cost, steps_hash, stats_json, duration_us, created_at FROM search_log`

// ListSearches returns up to limit entries, newest first.
func ListSearches(db *sql.DB, limit int) ([]SearchEntry, error) {
	rows, err := db.Query(selectColumns+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	var entries []SearchEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetSearch returns the entry with the given search ID, or sql.ErrNoRows.
func GetSearch(db *sql.DB, searchID string) (SearchEntry, error) {
	return scanEntry(db.QueryRow(selectColumns+` WHERE search_id = ?`, searchID))
}

// FindByPrefix resolves a shortened search ID. It fails unless exactly one
// entry matches.
func FindByPrefix(db *sql.DB, prefix string) (SearchEntry, error) {
	rows, err := db.Query(selectColumns+` WHERE search_id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return SearchEntry{}, fmt.Errorf("find search: %w", err)
	}
	defer rows.Close()

	var found []SearchEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return SearchEntry{}, fmt.Errorf("scan row: %w", err)
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return SearchEntry{}, err
	}
	switch len(found) {
	case 0:
		return SearchEntry{}, sql.ErrNoRows
	case 1:
		return found[0], nil
	}
	return SearchEntry{}, fmt.Errorf("search id prefix %q is ambiguous", prefix)
}
// #endregion read-back

// #region helpers
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (SearchEntry, error) {
	var e SearchEntry
	var stepsHash, statsJSON sql.NullString
	var createdStr string
	err := row.Scan(&e.SearchID, &e.VersionID, &e.RequestJSON, &e.Outcome, &e.Cost,
		&stepsHash, &statsJSON, &e.DurationUS, &createdStr)
	if err != nil {
		return SearchEntry{}, err
	}
	e.StepsHash = stepsHash.String
	e.StatsJSON = statsJSON.String
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return e, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers

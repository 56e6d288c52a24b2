package ingest

import (
	"database/sql"
	"fmt"

	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/arbor/api"
)

// recordsQuery reads records in insertion order.
const recordsQuery = "SELECT seq, record FROM records ORDER BY seq"

// StreamSQLite iterates over all records in a SQLite database, calling fn for each one.
// Only one parsed record is alive at a time, keeping memory usage constant.
func StreamSQLite(dbPath string, fn func(seq int64, item api.Item) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.Query(recordsQuery)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var (
			seq int64
			raw string
		)
		if err := rows.Scan(&seq, &raw); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		parsed, err := oj.ParseString(raw)
		if err != nil {
			return fmt.Errorf("parse record %d json: %w", seq, err)
		}
		m, ok := parsed.(map[string]any)
		if !ok {
			return fmt.Errorf("record %d: expected object, got %T", seq, parsed)
		}
		if err := fn(seq, api.ItemFromMap(m)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// LoadSQLite reads every record from a database written by WriteSQLite.
func LoadSQLite(dbPath string) ([]api.Item, error) {
	var items []api.Item
	err := StreamSQLite(dbPath, func(_ int64, item api.Item) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

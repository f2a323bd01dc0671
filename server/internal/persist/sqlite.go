package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // pure Go sqlite driver

	"github.com/espdash/espdash/server/internal/measure"
)

// SQLite persists records in a single measurements table, one row per
// record, raw payload stored as a JSON blob. Like File it snapshots the
// full sequence on every save: the table is cleared and re-inserted in one
// transaction, so insertion order survives in rowid order.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persist: open sqlite %q: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS measurements (
		id    INTEGER NOT NULL,
		ts    TEXT    NOT NULL,
		raw   BLOB    NOT NULL,
		temp  REAL,
		humi  REAL,
		light REAL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: create measurements table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load returns all persisted records in insertion order.
func (s *SQLite) Load() ([]measure.Record, error) {
	rows, err := s.db.Query(`SELECT id, ts, raw, temp, humi, light
		FROM measurements ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("persist: select measurements: %w", err)
	}
	defer rows.Close()

	var records []measure.Record
	for rows.Next() {
		var (
			rec              measure.Record
			rawJSON          []byte
			temp, humi, light sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.TS, &rawJSON, &temp, &humi, &light); err != nil {
			return nil, fmt.Errorf("persist: scan row: %w", err)
		}
		if err := json.Unmarshal(rawJSON, &rec.Raw); err != nil {
			return nil, fmt.Errorf("persist: decode raw payload: %w", err)
		}
		rec.Temp = fromNull(temp)
		rec.Humi = fromNull(humi)
		rec.Light = fromNull(light)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persist: iterate rows: %w", err)
	}
	return records, nil
}

// Save replaces the table contents with the given sequence.
func (s *SQLite) Save(records []measure.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("persist: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM measurements`); err != nil {
		return fmt.Errorf("persist: clear measurements: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO measurements (id, ts, raw, temp, humi, light)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("persist: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		rawJSON, err := json.Marshal(rec.Raw)
		if err != nil {
			return fmt.Errorf("persist: encode raw payload: %w", err)
		}
		if _, err := stmt.Exec(rec.ID, rec.TS, rawJSON,
			toNull(rec.Temp), toNull(rec.Humi), toNull(rec.Light)); err != nil {
			return fmt.Errorf("persist: insert record %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}
	return nil
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func toNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

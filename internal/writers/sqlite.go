// internal/writers/sqlite.go
package writers

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // database/sql driver "sqlite3"

	"sampass/pkg/api"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	reference  TEXT NOT NULL DEFAULT '',
	pulled     INTEGER NOT NULL,
	accepted   INTEGER NOT NULL,
	batches    INTEGER NOT NULL,
	tail_size  INTEGER NOT NULL,
	stop       TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS counters (
	run_id   TEXT NOT NULL,
	consumer TEXT NOT NULL,
	key      TEXT NOT NULL,
	value    INTEGER NOT NULL,
	PRIMARY KEY (run_id, consumer, key)
);
CREATE TABLE IF NOT EXISTS report_values (
	run_id   TEXT NOT NULL,
	consumer TEXT NOT NULL,
	key      TEXT NOT NULL,
	value    REAL NOT NULL,
	PRIMARY KEY (run_id, consumer, key)
);
CREATE TABLE IF NOT EXISTS table_rows (
	run_id   TEXT NOT NULL,
	consumer TEXT NOT NULL,
	row      INTEGER NOT NULL,
	col      TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (run_id, consumer, row, col)
);`

// WriteSQLite appends one run to the SQLite database at path, creating the
// schema when needed. Everything is written in a single transaction.
func WriteSQLite(path string, doc api.DocumentV1) (err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create schema in %s: %w", path, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := insertRun(tx, doc); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return tx.Commit()
}

func insertRun(tx *sql.Tx, doc api.DocumentV1) error {
	s := doc.Summary
	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, source, reference, pulled, accepted, batches, tail_size, stop, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Source, s.Reference, int64(s.Pulled), int64(s.Accepted), s.Batches, s.TailSize, s.Stop, s.ElapsedMS,
	); err != nil {
		return err
	}

	counter, err := tx.Prepare(`INSERT INTO counters (run_id, consumer, key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer counter.Close()
	value, err := tx.Prepare(`INSERT INTO report_values (run_id, consumer, key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer value.Close()
	cell, err := tx.Prepare(`INSERT INTO table_rows (run_id, consumer, row, col, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cell.Close()

	for _, r := range doc.Reports {
		for _, k := range sortedKeys(r.Counters) {
			if _, err := counter.Exec(s.RunID, r.Consumer, k, r.Counters[k]); err != nil {
				return err
			}
		}
		for _, k := range sortedKeys(r.Values) {
			if _, err := value.Exec(s.RunID, r.Consumer, k, r.Values[k]); err != nil {
				return err
			}
		}
		if r.Table == nil {
			continue
		}
		for i, row := range r.Table.Rows {
			for j, v := range row {
				if j >= len(r.Table.Columns) {
					break
				}
				if _, err := cell.Exec(s.RunID, r.Consumer, i, r.Table.Columns[j], v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

package storage

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"courseflags/internal"
)

// DB is the run-history ledger. Every successful annotation run adds one row.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  primaryPath TEXT NOT NULL,
  ueRefPath TEXT NOT NULL,
  urRefPath TEXT NOT NULL,
  outputPath TEXT NOT NULL,
  rowCount INTEGER NOT NULL,
  ueYes INTEGER NOT NULL,
  urYes INTEGER NOT NULL,
  ueRefSize INTEGER NOT NULL,
  urRefSize INTEGER NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_createdAt ON runs(createdAt);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.RunRecord) (int64, error) {
	timingsJSON, _ := json.Marshal(run.Timings)
	result, err := d.conn.Exec(`
INSERT INTO runs (traceId, primaryPath, ueRefPath, urRefPath, outputPath, rowCount, ueYes, urYes, ueRefSize, urRefSize, timingsJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.PrimaryPath, run.UERefPath, run.URRefPath, run.OutputPath,
		run.RowCount, run.UEYes, run.URYes, run.UERefSize, run.URRefSize, string(timingsJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListRuns returns up to limit runs, newest first.
func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, primaryPath, ueRefPath, urRefPath, outputPath,
       rowCount, ueYes, urYes, ueRefSize, urRefSize, timingsJson, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var run internal.RunRecord
		var timingsJSON string
		if err := rows.Scan(
			&run.ID, &run.TraceID, &run.PrimaryPath, &run.UERefPath, &run.URRefPath, &run.OutputPath,
			&run.RowCount, &run.UEYes, &run.URYes, &run.UERefSize, &run.URRefSize, &timingsJSON, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(timingsJSON), &run.Timings)
		out = append(out, run)
	}
	return out, rows.Err()
}

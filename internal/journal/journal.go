// Package journal records relocation outcomes in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/canvasnest/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS relocations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	note_path   TEXT NOT NULL,
	canvas_path TEXT NOT NULL DEFAULT '',
	target_path TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_relocations_created ON relocations(created_at);
`

const defaultLimit = 50

// Journal wraps a sql.DB holding relocation history.
type Journal struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Journal, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &Journal{conn: conn}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.conn.Close()
}

// Record inserts one relocation row and returns its id.
func (j *Journal) Record(ctx context.Context, r models.Relocation) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := j.conn.ExecContext(ctx, `
		INSERT INTO relocations (note_path, canvas_path, target_path, status, error, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.NotePath, r.CanvasPath, r.TargetPath, r.Status, r.Error, r.Checksum, r.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("journal: record: %w", err)
	}
	return res.LastInsertId()
}

// List returns up to limit rows, newest first. A non-positive limit uses
// the default.
func (j *Journal) List(ctx context.Context, limit int) ([]models.Relocation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := j.conn.QueryContext(ctx, `
		SELECT id, note_path, canvas_path, target_path, status, error, checksum, created_at
		FROM relocations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	var out []models.Relocation
	for rows.Next() {
		var r models.Relocation
		if err := rows.Scan(&r.ID, &r.NotePath, &r.CanvasPath, &r.TargetPath, &r.Status, &r.Error, &r.Checksum, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

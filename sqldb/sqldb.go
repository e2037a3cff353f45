// Package sqldb is the SQLite access layer for indexed documents and
// their chunks.
package sqldb

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DBer is what the storage layer needs from the database; tests swap in
// a fake.
type DBer interface {
	CreateTables() error
	ReplaceDocument(url, title string, chunks []string, batchSize int) error
	Close() error
}

type Sqldb struct {
	options
	db *sql.DB
}

func New(opts ...Option) (*Sqldb, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	d := &Sqldb{}
	d.options = options

	if err := d.openDB(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Sqldb) openDB() error {
	db, err := sql.Open("sqlite3", d.dbPath)
	if err != nil {
		return err
	}

	// SQLite serializes writers; more connections only add lock
	// contention.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		return err
	}

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("exec %s failed:%w", pragma, err)
		}
	}

	d.db = db

	return nil
}

func (d *Sqldb) CreateTables() error {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL UNIQUE,
			title TEXT,
			last_indexed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL,
			chunk_text TEXT NOT NULL,
			chunk_order INTEGER NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);`,
	} {
		d.logger.Debug("create table", zap.String("sql", ddl))

		if _, err := d.db.Exec(ddl); err != nil {
			return err
		}
	}

	return nil
}

// ReplaceDocument upserts the document row and swaps its chunk set in
// one transaction, so readers never see old and new chunks together.
// Chunks are inserted in multi-row batches of batchSize.
func (d *Sqldb) ReplaceDocument(url, title string, chunks []string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(chunks)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO documents (url, title, last_indexed_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(url) DO UPDATE SET title=excluded.title, last_indexed_at=CURRENT_TIMESTAMP;`,
		url, title); err != nil {
		return fmt.Errorf("upsert document failed:%w", err)
	}

	var documentID int64
	if err := tx.QueryRow(
		`SELECT id FROM documents WHERE url = ?;`, url).Scan(&documentID); err != nil {
		return fmt.Errorf("resolve document id failed:%w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM chunks WHERE document_id = ?;`, documentID); err != nil {
		return fmt.Errorf("delete old chunks failed:%w", err)
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		if err := insertChunks(tx, documentID, chunks[start:end], start); err != nil {
			return err
		}

		d.logger.Debug("inserted chunk batch",
			zap.String("url", url),
			zap.Int("count", end-start))
	}

	return tx.Commit()
}

func insertChunks(tx *sql.Tx, documentID int64, batch []string, orderBase int) error {
	sql := `INSERT INTO chunks (document_id, chunk_text, chunk_order) VALUES ` +
		strings.Repeat(",(?, ?, ?)", len(batch))[1:] + `;`

	args := make([]interface{}, 0, len(batch)*3)
	for i, text := range batch {
		args = append(args, documentID, text, orderBase+i)
	}

	if _, err := tx.Exec(sql, args...); err != nil {
		return fmt.Errorf("insert chunks failed:%w", err)
	}

	return nil
}

func (d *Sqldb) Close() error {
	return d.db.Close()
}

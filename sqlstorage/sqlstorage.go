// Package sqlstorage is the chunk sink backed by sqldb. One Upsert call
// replaces a document's stored chunk set in full.
package sqlstorage

import (
	"fmt"

	"go.uber.org/zap"

	"ragingest/sqldb"
)

// Error reports a failed write for one document. Other documents'
// writes are unaffected.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type SQLStorage struct {
	db sqldb.DBer
	options
}

func New(opts ...Option) (*SQLStorage, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	s := &SQLStorage{}
	s.options = options

	var err error
	s.db, err = sqldb.New(
		sqldb.WithDBPath(s.dbPath),
		sqldb.WithLogger(s.logger),
	)

	if err != nil {
		return nil, err
	}

	if err := s.db.CreateTables(); err != nil {
		return nil, err
	}

	return s, nil
}

// Upsert stores the ordered chunk list for one URL, replacing whatever
// was stored for it before.
func (s *SQLStorage) Upsert(url, title string, chunks []string) error {
	if err := s.db.ReplaceDocument(url, title, chunks, s.BatchCount); err != nil {
		return &Error{URL: url, Err: err}
	}

	s.logger.Info("stored document",
		zap.String("url", url),
		zap.Int("chunks", len(chunks)))

	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

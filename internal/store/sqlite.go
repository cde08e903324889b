package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteStore is the embedded document store. Transact is optimistic: the
// write only lands if the row version is unchanged since the read.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	if path == ":memory:" {
		dsn = "file::memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, ref models.DocRef) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		ref.Collection, ref.ID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	return body, nil
}

func (s *SQLiteStore) Transact(ctx context.Context, ref models.DocRef, fn logic.TxFunc) error {
	var (
		current []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body, version FROM documents WHERE collection = ? AND id = ?`,
		ref.Collection, ref.ID,
	).Scan(&current, &version)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return mapSQLiteError(err)
	}

	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}

	var res sql.Result
	if exists {
		res, err = s.db.ExecContext(ctx,
			`UPDATE documents SET body = ?, version = version + 1, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
			 WHERE collection = ? AND id = ? AND version = ?`,
			next, ref.Collection, ref.ID, version)
	} else {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?) ON CONFLICT (collection, id) DO NOTHING`,
			ref.Collection, ref.ID, next)
	}
	if err != nil {
		return mapSQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrConflict
	}
	return nil
}

// BatchWrite upserts docs in one transaction.
func (s *SQLiteStore) BatchWrite(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteError(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE
		 SET body = excluded.body, version = documents.version + 1, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.Ref.Collection, d.Ref.ID, d.Body); err != nil {
			return mapSQLiteError(err)
		}
	}
	return mapSQLiteError(tx.Commit())
}

func (s *SQLiteStore) Query(ctx context.Context, collection, idPrefix string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM documents
		 WHERE collection = ? AND substr(id, 1, length(?)) = ?
		 ORDER BY id`,
		collection, idPrefix, idPrefix)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		out = append(out, models.Document{Ref: models.DocRef{Collection: collection, ID: id}, Body: body})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapSQLiteError reports lock contention as a conflict.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	}
	return err
}

var _ logic.DocumentStore = (*SQLiteStore)(nil)

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

// PgPool is the subset of *pgxpool.Pool the document store uses.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	body       JSONB       NOT NULL,
	version    BIGINT      NOT NULL DEFAULT 1,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

const pgUpsert = `
INSERT INTO documents (collection, id, body, version, updated_at)
VALUES ($1, $2, $3, 1, now())
ON CONFLICT (collection, id) DO UPDATE
SET body = EXCLUDED.body, version = documents.version + 1, updated_at = now()`

// SQLSTATE codes that mean another transaction won.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// PostgresStore keeps documents as JSONB rows. Transact runs a serializable
// transaction that locks the row with SELECT ... FOR UPDATE.
type PostgresStore struct {
	pool PgPool
}

func NewPostgresStore(pool PgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the documents table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ref models.DocRef) ([]byte, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		ref.Collection, ref.ID,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	return body, nil
}

func (s *PostgresStore) Transact(ctx context.Context, ref models.DocRef, fn logic.TxFunc) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current []byte
	err = tx.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		ref.Collection, ref.ID,
	).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return mapPgError(err)
	}

	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}

	if _, err := tx.Exec(ctx, pgUpsert, ref.Collection, ref.ID, next); err != nil {
		return mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

// BatchWrite upserts docs in one pipelined batch, which Postgres runs as a
// single implicit transaction.
func (s *PostgresStore) BatchWrite(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range docs {
		batch.Queue(pgUpsert, d.Ref.Collection, d.Ref.ID, d.Body)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range docs {
		if _, err := br.Exec(); err != nil {
			return mapPgError(err)
		}
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection, idPrefix string) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, body FROM documents
		 WHERE collection = $1 AND left(id, length($2::text)) = $2::text
		 ORDER BY id`,
		collection, idPrefix,
	)
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// mapPgError turns serialization failures into models.ErrConflict.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return fmt.Errorf("%w: %s", models.ErrConflict, pgErr.Message)
		}
	}
	return err
}

var _ logic.DocumentStore = (*PostgresStore)(nil)

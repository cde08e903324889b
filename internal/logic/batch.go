package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/basestats/stats-engine/internal/models"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// DefaultBatchLimit is the most operations the store accepts in one batch.
const DefaultBatchLimit = 500

// PartialWriteError reports how far a chunked write got before failing.
// Documents before Written are committed; pass the error to Resume to
// continue from there.
type PartialWriteError struct {
	Written int
	Total   int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("batch write stopped at %d/%d: %v", e.Written, e.Total, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// BatchWriter splits large writes into store-sized chunks.
type BatchWriter struct {
	store    DocumentStore
	limit    int
	maxTries uint
	logger   *zap.SugaredLogger
}

func NewBatchWriter(store DocumentStore, limit int, logger *zap.SugaredLogger) *BatchWriter {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	return &BatchWriter{store: store, limit: limit, maxTries: 5, logger: logger}
}

// Write commits docs chunk by chunk. On failure it returns a
// *PartialWriteError; chunks already committed stay committed.
func (w *BatchWriter) Write(ctx context.Context, docs []models.Document) (int, error) {
	return w.writeFrom(ctx, docs, 0)
}

// Resume continues a write that failed with perr, skipping what was committed.
func (w *BatchWriter) Resume(ctx context.Context, docs []models.Document, perr *PartialWriteError) (int, error) {
	offset := 0
	if perr != nil {
		offset = perr.Written
	}
	return w.writeFrom(ctx, docs, offset)
}

// WriteAll writes docs, resuming from the last committed chunk after each
// failure until every chunk is committed or the tries run out.
func (w *BatchWriter) WriteAll(ctx context.Context, docs []models.Document) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	offset := 0
	_, err := backoff.Retry(ctx, func() (int, error) {
		n, err := w.writeFrom(ctx, docs, offset)
		if err != nil && n > offset {
			w.logger.Warnw("Batch write interrupted, resuming", "written", n, "total", len(docs), "error", err)
		}
		offset = n
		return n, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(w.maxTries))
	return err
}

func (w *BatchWriter) writeFrom(ctx context.Context, docs []models.Document, offset int) (int, error) {
	written := offset
	for written < len(docs) {
		end := min(written+w.limit, len(docs))
		if err := w.store.BatchWrite(ctx, docs[written:end]); err != nil {
			return written, &PartialWriteError{Written: written, Total: len(docs), Err: err}
		}
		batchChunksWritten.Inc()
		written = end
	}
	return written, nil
}

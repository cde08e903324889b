// Package store holds the document store backends. Every backend offers the
// same single-document read-modify-write contract: one attempt, with
// models.ErrConflict when a concurrent writer got there first.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

type memoryDoc struct {
	body    []byte
	version int64
}

// MemoryStore is an in-process document store with optimistic versioning.
// It backs tests and single-node development runs.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[models.DocRef]memoryDoc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[models.DocRef]memoryDoc)}
}

func (s *MemoryStore) Get(_ context.Context, ref models.DocRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[ref]
	if !ok {
		return nil, models.ErrNotFound
	}
	return slices.Clone(doc.body), nil
}

// Transact runs fn on a copy of the current body outside the lock and commits
// only if nobody wrote the document in between.
func (s *MemoryStore) Transact(ctx context.Context, ref models.DocRef, fn logic.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	doc, exists := s.docs[ref]
	s.mu.RUnlock()

	var current []byte
	if exists {
		current = slices.Clone(doc.body)
	}
	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	latest, nowExists := s.docs[ref]
	if nowExists != exists || latest.version != doc.version {
		return models.ErrConflict
	}
	s.docs[ref] = memoryDoc{body: slices.Clone(next), version: doc.version + 1}
	return nil
}

func (s *MemoryStore) BatchWrite(ctx context.Context, docs []models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		prev := s.docs[d.Ref]
		s.docs[d.Ref] = memoryDoc{body: slices.Clone(d.Body), version: prev.version + 1}
	}
	return nil
}

// Query lists a collection's documents whose id starts with idPrefix, in id order.
func (s *MemoryStore) Query(_ context.Context, collection, idPrefix string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for ref, doc := range s.docs {
		if ref.Collection == collection && strings.HasPrefix(ref.ID, idPrefix) {
			out = append(out, models.Document{Ref: ref, Body: slices.Clone(doc.body)})
		}
	}
	slices.SortFunc(out, func(a, b models.Document) int { return strings.Compare(a.Ref.ID, b.Ref.ID) })
	return out, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

var _ logic.DocumentStore = (*MemoryStore)(nil)

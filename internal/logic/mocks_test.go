package logic

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/basestats/stats-engine/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory DocumentStore with failure injection.
type fakeStore struct {
	mu   sync.Mutex
	docs map[models.DocRef][]byte

	// conflicts makes the next N Transact calls on a ref lose their race
	// after running fn.
	conflicts map[models.DocRef]int
	// failTransact fails every Transact on refs of this collection.
	failTransact string
	// failBatchAt fails the BatchWrite call with this 1-based index.
	failBatchAt int

	transactCalls int
	batchCalls    int
	batchSizes    []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:      make(map[models.DocRef][]byte),
		conflicts: make(map[models.DocRef]int),
	}
}

func (s *fakeStore) Get(_ context.Context, ref models.DocRef) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.docs[ref]
	if !ok {
		return nil, models.ErrNotFound
	}
	return slices.Clone(body), nil
}

func (s *fakeStore) Transact(_ context.Context, ref models.DocRef, fn TxFunc) error {
	s.mu.Lock()
	s.transactCalls++
	if s.failTransact != "" && ref.Collection == s.failTransact {
		s.mu.Unlock()
		return errStoreDown
	}
	current := slices.Clone(s.docs[ref])
	s.mu.Unlock()

	next, err := fn(current)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts[ref] > 0 {
		s.conflicts[ref]--
		return models.ErrConflict
	}
	if next != nil {
		s.docs[ref] = slices.Clone(next)
	}
	return nil
}

func (s *fakeStore) BatchWrite(_ context.Context, docs []models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls++
	if s.batchCalls == s.failBatchAt {
		return errStoreDown
	}
	s.batchSizes = append(s.batchSizes, len(docs))
	for _, d := range docs {
		s.docs[d.Ref] = slices.Clone(d.Body)
	}
	return nil
}

func (s *fakeStore) Query(_ context.Context, collection, idPrefix string) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Document
	for ref, body := range s.docs {
		if ref.Collection == collection && strings.HasPrefix(ref.ID, idPrefix) {
			out = append(out, models.Document{Ref: ref, Body: slices.Clone(body)})
		}
	}
	slices.SortFunc(out, func(a, b models.Document) int { return strings.Compare(a.Ref.ID, b.Ref.ID) })
	return out, nil
}

func (s *fakeStore) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for ref := range s.docs {
		if ref.Collection == collection {
			n++
		}
	}
	return n
}

func nopLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

// fastRetry keeps conflict tests quick.
var fastRetry = RetryConfig{MaxTries: 5, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

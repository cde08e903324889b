package store

import (
	"context"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

// Routed sends each collection to its own backend, falling back to primary.
// Streaks and ranking output live in Redis when it is configured while
// snapshots stay in the primary store.
type Routed struct {
	primary logic.DocumentStore
	routes  map[string]logic.DocumentStore
}

func NewRouted(primary logic.DocumentStore, routes map[string]logic.DocumentStore) *Routed {
	return &Routed{primary: primary, routes: routes}
}

func (r *Routed) backend(collection string) logic.DocumentStore {
	if s, ok := r.routes[collection]; ok && s != nil {
		return s
	}
	return r.primary
}

func (r *Routed) Get(ctx context.Context, ref models.DocRef) ([]byte, error) {
	return r.backend(ref.Collection).Get(ctx, ref)
}

func (r *Routed) Transact(ctx context.Context, ref models.DocRef, fn logic.TxFunc) error {
	return r.backend(ref.Collection).Transact(ctx, ref, fn)
}

// BatchWrite groups docs by backend, keeping their order within each group.
func (r *Routed) BatchWrite(ctx context.Context, docs []models.Document) error {
	var (
		order  []logic.DocumentStore
		groups = make(map[logic.DocumentStore][]models.Document)
	)
	for _, d := range docs {
		b := r.backend(d.Ref.Collection)
		if _, seen := groups[b]; !seen {
			order = append(order, b)
		}
		groups[b] = append(groups[b], d)
	}
	for _, b := range order {
		if err := b.BatchWrite(ctx, groups[b]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Routed) Query(ctx context.Context, collection, idPrefix string) ([]models.Document, error) {
	return r.backend(collection).Query(ctx, collection, idPrefix)
}

var _ logic.DocumentStore = (*Routed)(nil)

package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/basestats/stats-engine/internal/models"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001", Message: "could not serialize access"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPgError(tt.err)
			if errors.Is(got, models.ErrConflict) != tt.conflict {
				t.Errorf("mapPgError(%v) = %v, conflict want %v", tt.err, got, tt.conflict)
			}
			if !tt.conflict && got != tt.err {
				t.Errorf("non-conflict error rewritten to %v", got)
			}
		})
	}
}

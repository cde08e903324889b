package store

import (
	"testing"

	"github.com/basestats/stats-engine/internal/models"
)

func TestRedisKey(t *testing.T) {
	got := redisKey(models.StreakRef(models.Subject{Kind: models.SubjectUser, ID: "u1"}))
	if got[:len(redisKeyPrefix)] != redisKeyPrefix {
		t.Errorf("redisKey = %q, want %q prefix", got, redisKeyPrefix)
	}
}

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"doc:leaderboards:2024_all/", "doc:leaderboards:2024_all/"},
		{"doc:neighbors:all/*", `doc:neighbors:all/\*`},
		{"a?b[c]d\\", `a\?b\[c\]d\\`},
		{"投手", "投手"},
	}
	for _, tt := range tests {
		if got := escapeGlob(tt.in); got != tt.want {
			t.Errorf("escapeGlob(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

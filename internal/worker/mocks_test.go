package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

var errBoom = errors.New("boom")

// MockEngine implements logic.AggregationService, recording processed games.
type MockEngine struct {
	mu        sync.Mutex
	processed []string
	failIDs   map[string]bool
}

func NewMockEngine(failIDs ...string) *MockEngine {
	m := &MockEngine{failIDs: make(map[string]bool)}
	for _, id := range failIDs {
		m.failIDs[id] = true
	}
	return m
}

func (m *MockEngine) ApplyGame(context.Context, models.Subject, models.CategoryKey, string, models.StatDelta, time.Time) (*models.StatSnapshot, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (m *MockEngine) ProcessGame(_ context.Context, rec *models.GameRecord) (*logic.ProcessResult, error) {
	if m.failIDs[rec.ID] {
		return nil, errBoom
	}
	m.mu.Lock()
	m.processed = append(m.processed, rec.ID)
	m.mu.Unlock()
	return &logic.ProcessResult{GameID: rec.ID}, nil
}

func (m *MockEngine) GetSnapshot(context.Context, models.Subject, models.CategoryKey) (*models.StatSnapshot, error) {
	return nil, models.ErrNotFound
}

func (m *MockEngine) GetStreaks(context.Context, models.Subject) (*models.StreakState, error) {
	return nil, models.ErrNotFound
}

func (m *MockEngine) Processed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.processed...)
}

// MockArchive implements logic.GameArchive.
type MockArchive struct {
	mu       sync.Mutex
	archived []string
	err      error
}

func (m *MockArchive) ArchiveGames(_ context.Context, games []*models.GameRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range games {
		m.archived = append(m.archived, g.ID)
	}
	return nil
}

func (m *MockArchive) Archived() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.archived...)
}

// MockRollup implements logic.RollupService.
type MockRollup struct {
	mu   sync.Mutex
	keys [][]models.CategoryKey
}

func (m *MockRollup) RollupTeam(context.Context, string, models.CategoryKey) (*models.RollupResult, error) {
	return nil, models.ErrNotFound
}

func (m *MockRollup) RollupAll(_ context.Context, keys []models.CategoryKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keys)
	return nil
}

func (m *MockRollup) SaveRoster(context.Context, *models.TeamRoster) error { return nil }

// MockRanking implements logic.RankingService.
type MockRanking struct {
	mu     sync.Mutex
	ranked []models.CategoryKey
	failOn map[models.CategoryKey]bool
}

func (m *MockRanking) RankPeriod(_ context.Context, key models.CategoryKey, _ []models.RankCandidate) (*models.RankPeriodResponse, error) {
	if m.failOn[key] {
		return nil, errBoom
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranked = append(m.ranked, key)
	return &models.RankPeriodResponse{Category: key}, nil
}

func (m *MockRanking) LoadCandidates(context.Context, models.CategoryKey) ([]models.RankCandidate, error) {
	return nil, nil
}

func (m *MockRanking) GetLeaderboard(context.Context, models.CategoryKey, string) (*models.Leaderboard, error) {
	return nil, models.ErrNotFound
}

func (m *MockRanking) GetNeighbors(context.Context, string, models.CategoryKey, string) (*models.NeighborContext, error) {
	return nil, models.ErrNotFound
}

func (m *MockRanking) SaveProfile(context.Context, *models.UserProfile) error { return nil }

func gameEvent(id string) models.GameRecordCreated {
	subject := models.Subject{Kind: models.SubjectUser, ID: "u1"}
	return models.GameRecordCreated{
		Subject: subject,
		GameID:  id,
		Record:  &models.GameRecord{ID: id, Subject: subject, Date: "2024-06-15"},
	}
}

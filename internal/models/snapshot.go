package models

import "time"

// InningsPerGame is the regulation length used for ERA and K/7. Amateur games
// here are seven innings.
const InningsPerGame = 7

// DerivedStats are recomputed from counters on every update and never mutated
// on their own.
type DerivedStats struct {
	BattingAverage     float64 `json:"battingAverage"`
	OnBasePercentage   float64 `json:"onBasePercentage"`
	SluggingPercentage float64 `json:"sluggingPercentage"`
	OPS                float64 `json:"ops"`
	RunsCreated        float64 `json:"rc"`
	FieldingPercentage float64 `json:"fieldingPercentage"`
	InningsPitched     float64 `json:"inningsPitched"`
	ERA                float64 `json:"era"`
	WinRate            float64 `json:"winRate"`
}

// StatSnapshot is the cumulative aggregate for one (subject, category) pair.
//
// Counters always equal the sum of the deltas of every game listed in
// IncludedGameIDs, and a game id appears there at most once.
type StatSnapshot struct {
	Subject  Subject     `json:"subject"`
	Category CategoryKey `json:"category"`

	Counters
	DerivedStats

	IncludedGameIDs []string  `json:"includedGameIds"`
	GameDate        time.Time `json:"gameDate"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewSnapshot returns an empty snapshot for subject and key.
func NewSnapshot(subject Subject, key CategoryKey) *StatSnapshot {
	return &StatSnapshot{Subject: subject, Category: key, IncludedGameIDs: []string{}}
}

// Includes reports whether gameID has already been folded in.
func (s *StatSnapshot) Includes(gameID string) bool {
	for _, id := range s.IncludedGameIDs {
		if id == gameID {
			return true
		}
	}
	return false
}

// Streak is one running counter and the best run it has produced.
type Streak struct {
	Current  int `json:"current"`
	Best     int `json:"best"`
	BestYear int `json:"bestYear,omitempty"`
	LastYear int `json:"lastYear,omitempty"`
}

// Longest returns the larger of the stored best and the live run.
func (s Streak) Longest() int {
	if s.Current > s.Best {
		return s.Current
	}
	return s.Best
}

// StreakState is the per-subject running streak document. It is independent of
// categories and updated once per game.
type StreakState struct {
	Subject     Subject `json:"subject"`
	Hit         Streak  `json:"hitStreak"`
	OnBase      Streak  `json:"onBaseStreak"`
	NoStrikeout Streak  `json:"noStrikeoutStreak"`

	MultiHitGames    int  `json:"multiHitGames"`
	CycleGames       int  `json:"cycleGames"`
	LastGameMultiHit bool `json:"lastGameMultiHit"`
	LastGameCycle    bool `json:"lastGameCycle"`

	ProcessedGameIDs []string  `json:"processedGameIds"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewStreakState returns an empty streak document for subject.
func NewStreakState(subject Subject) *StreakState {
	return &StreakState{Subject: subject, ProcessedGameIDs: []string{}}
}

// Processed reports whether gameID has already updated the streaks.
func (s *StreakState) Processed(gameID string) bool {
	for _, id := range s.ProcessedGameIDs {
		if id == gameID {
			return true
		}
	}
	return false
}

package models

// IngestResponse acknowledges queued game records.
type IngestResponse struct {
	Status   string   `json:"status"`
	Accepted int      `json:"accepted"`
	GameIDs  []string `json:"game_ids"`
}

// RankPeriodRequest runs a ranking pass over the supplied candidates. When
// Candidates is empty the stored user snapshots of the category are used.
type RankPeriodRequest struct {
	Candidates []RankCandidate `json:"candidates" validate:"dive"`
}

// RankPeriodResponse summarizes a ranking pass.
type RankPeriodResponse struct {
	Category     CategoryKey    `json:"category"`
	Leaderboards []*Leaderboard `json:"leaderboards"`
	Neighbors    int            `json:"neighbors"`
}

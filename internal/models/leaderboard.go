package models

import "time"

// RankEntry is one subject's position for one metric in one ranking run.
// Ineligible entries keep a nil Rank but are still persisted.
type RankEntry struct {
	SubjectID    string  `json:"subject_id"`
	Value        float64 `json:"value"`
	Eligible     bool    `json:"eligible"`
	Rank         *int    `json:"rank"`
	AgeGroup     string  `json:"age_group"`
	AgeGroupRank *int    `json:"age_group_rank"`
}

// InTop reports whether the entry is ranked within the first n.
func (e RankEntry) InTop(n int) bool {
	return e.Rank != nil && *e.Rank <= n
}

// RankCandidate is one subject offered to a ranking run.
// Candidates without a snapshot are skipped.
type RankCandidate struct {
	SubjectID string        `json:"subject_id" validate:"required"`
	Age       *int          `json:"age,omitempty" validate:"omitempty,gte=0"`
	Snapshot  *StatSnapshot `json:"snapshot" validate:"-"`
}

// Leaderboard is the persisted output for one (category, metric) pair.
type Leaderboard struct {
	Category    CategoryKey            `json:"category"`
	Metric      string                 `json:"metric"`
	Ascending   bool                   `json:"ascending"`
	GeneratedAt time.Time              `json:"generated_at"`
	Top         []RankEntry            `json:"top"`
	AgeGroupTop map[string][]RankEntry `json:"age_group_top"`
	Entries     []RankEntry            `json:"entries"`
}

// NeighborContext is the window of entries around a subject ranked outside the
// top N, plus the next strictly worse entry past the window.
type NeighborContext struct {
	SubjectID   string      `json:"subject_id"`
	Category    CategoryKey `json:"category"`
	Metric      string      `json:"metric"`
	Self        RankEntry   `json:"self"`
	Window      []RankEntry `json:"window"`
	NextWorse   *RankEntry  `json:"next_worse,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`

	// Stale marks a context left over from an earlier pass in which the
	// subject was still outside the top n.
	Stale bool `json:"stale,omitempty"`
}

// UserProfile carries the data ranking needs beyond the snapshot.
type UserProfile struct {
	UserID    string `json:"user_id" validate:"required"`
	BirthDate string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// AgeOn returns the age in whole years on asOf, or nil when the birth date is
// missing or unparsable.
func (p UserProfile) AgeOn(asOf time.Time) *int {
	if p.BirthDate == "" {
		return nil
	}
	born, err := time.Parse(GameDateLayout, p.BirthDate)
	if err != nil {
		return nil
	}
	age := asOf.Year() - born.Year()
	if asOf.Month() < born.Month() || (asOf.Month() == born.Month() && asOf.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return nil
	}
	return &age
}

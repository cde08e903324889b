package models

import "time"

// BattingAdvanced holds secondary batting ratios. Every ratio is 0 when its
// denominator is not positive.
type BattingAdvanced struct {
	StrikeoutRate          float64 `json:"strikeout_rate"`
	BABIP                  float64 `json:"babip"`
	ISO                    float64 `json:"iso"`
	WalkToStrikeout        float64 `json:"bb_k"`
	WalkRate               float64 `json:"walk_rate"`
	HitByPitchRate         float64 `json:"hbp_rate"`
	SwingRate              float64 `json:"swing_rate"`
	MissSwingRate          float64 `json:"miss_swing_rate"`
	FirstPitchSwingSuccess float64 `json:"first_pitch_swing_success"`
	StealSuccessRate       float64 `json:"steal_success_rate"`
	BuntSuccessRate        float64 `json:"bunt_success_rate"`

	HitTypes       map[string]float64   `json:"hit_types"`
	StrikeoutTypes map[string]float64   `json:"strikeout_types"`
	OutTypes       map[string]float64   `json:"out_types"`
	Directions     map[Position]float64 `json:"directions"`
}

// PitchingAdvanced is present only when the snapshot has pitching.
type PitchingAdvanced struct {
	WHIP                  float64 `json:"whip"`
	BattingAverageAgainst float64 `json:"baa"`
	StrikeoutsPer7        float64 `json:"k_per_7"`
	QualityStartRate      float64 `json:"quality_start_rate"`
	HomeRunRate           float64 `json:"home_run_rate"`
	LeftOnBaseRate        float64 `json:"lob_rate"`

	PitchesPerGame      float64 `json:"pitches_per_game"`
	WalksPerGame        float64 `json:"walks_per_game"`
	HitByPitchPerGame   float64 `json:"hbp_per_game"`
	BattersFacedPerGame float64 `json:"batters_faced_per_game"`
	RunsAllowedPerGame  float64 `json:"runs_allowed_per_game"`
}

// AdvancedStats is a side artifact computed from a finished snapshot. It is
// never read back into aggregation.
type AdvancedStats struct {
	Subject    Subject           `json:"subject"`
	Category   CategoryKey       `json:"category"`
	Batting    BattingAdvanced   `json:"batting"`
	Pitching   *PitchingAdvanced `json:"pitching,omitempty"`
	ComputedAt time.Time         `json:"computed_at"`
}

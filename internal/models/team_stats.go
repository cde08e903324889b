package models

import "time"

// TeamMember is one roster entry.
type TeamMember struct {
	UserID    string `json:"user_id" validate:"required"`
	IsPitcher bool   `json:"is_pitcher"`
}

// TeamRoster lists the members whose snapshots make up a team roll-up.
type TeamRoster struct {
	TeamID  string       `json:"team_id" validate:"required"`
	Members []TeamMember `json:"members" validate:"dive"`
}

// RollupResult reports one roll-up pass.
type RollupResult struct {
	TeamID         string        `json:"team_id"`
	Category       CategoryKey   `json:"category"`
	Members        int           `json:"members"`
	MissingMembers []string      `json:"missing_members,omitempty"`
	Snapshot       *StatSnapshot `json:"snapshot"`
	RolledUpAt     time.Time     `json:"rolled_up_at"`
}

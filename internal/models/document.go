package models

import "strings"

// Collections used in the document store.
const (
	CollectionSnapshots    = "snapshots"
	CollectionAdvanced     = "advanced_stats"
	CollectionStreaks      = "streaks"
	CollectionLeaderboards = "leaderboards"
	CollectionNeighbors    = "neighbors"
	CollectionRosters      = "rosters"
	CollectionProfiles     = "profiles"
)

// DocRef addresses one document.
type DocRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

func (r DocRef) String() string { return r.Collection + "/" + r.ID }

// Document is a ref plus its JSON body, as written by batch writes.
type Document struct {
	Ref  DocRef `json:"ref"`
	Body []byte `json:"body"`
}

// SnapshotRef keys a snapshot by category first so one category can be listed
// by prefix.
func SnapshotRef(s Subject, key CategoryKey) DocRef {
	return DocRef{Collection: CollectionSnapshots, ID: SubjectPrefix(key, s.Kind) + s.ID}
}

// SubjectPrefix is the ID prefix shared by every snapshot of kind in key.
func SubjectPrefix(key CategoryKey, kind SubjectKind) string {
	return key.String() + "/" + string(kind) + "/"
}

func AdvancedRef(s Subject, key CategoryKey) DocRef {
	return DocRef{Collection: CollectionAdvanced, ID: SubjectPrefix(key, s.Kind) + s.ID}
}

func StreakRef(s Subject) DocRef {
	return DocRef{Collection: CollectionStreaks, ID: string(s.Kind) + "/" + s.ID}
}

func LeaderboardRef(key CategoryKey, metric string) DocRef {
	return DocRef{Collection: CollectionLeaderboards, ID: key.String() + "/" + metric}
}

func NeighborRef(subjectID string, key CategoryKey, metric string) DocRef {
	return DocRef{Collection: CollectionNeighbors, ID: key.String() + "/" + metric + "/" + subjectID}
}

func RosterRef(teamID string) DocRef {
	return DocRef{Collection: CollectionRosters, ID: teamID}
}

func ProfileRef(userID string) DocRef {
	return DocRef{Collection: CollectionProfiles, ID: userID}
}

// SubjectIDFromRef strips prefix from a document ID listed under it.
func SubjectIDFromRef(id, prefix string) string {
	return strings.TrimPrefix(id, prefix)
}

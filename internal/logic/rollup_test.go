package logic

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/basestats/stats-engine/internal/models"
)

func putSnapshot(t *testing.T, store *fakeStore, snap *models.StatSnapshot) {
	t.Helper()
	body, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	store.docs[models.SnapshotRef(snap.Subject, snap.Category)] = body
}

func memberSnapshot(id string, games, hits, atBats, outs, strikeouts int) *models.StatSnapshot {
	snap := models.NewSnapshot(models.Subject{Kind: models.SubjectUser, ID: id}, models.AllTimeKey())
	snap.Games = games
	snap.Hits = hits
	snap.Singles = hits
	snap.TotalBases = hits
	snap.AtBats = atBats
	snap.TotalBats = atBats
	snap.PitchingGames = 1
	snap.InningsOuts = outs
	snap.PitchingStrikeouts = strikeouts
	refreshDerived(snap)
	return snap
}

func TestFoldMember(t *testing.T) {
	team := models.NewSnapshot(models.Subject{Kind: models.SubjectTeamRollup, ID: "t1"}, models.AllTimeKey())

	FoldMember(team, memberSnapshot("a", 10, 8, 30, 21, 9), true)
	FoldMember(team, memberSnapshot("b", 12, 4, 20, 6, 2), false)
	FoldMember(team, nil, true)

	if team.Hits != 12 || team.AtBats != 50 {
		t.Errorf("batting hits=%d atBats=%d, want 12/50", team.Hits, team.AtBats)
	}
	if team.InningsOuts != 21 || team.PitchingStrikeouts != 9 {
		t.Errorf("pitching of a non-pitcher was folded: outs=%d k=%d", team.InningsOuts, team.PitchingStrikeouts)
	}
	if team.Games != 12 {
		t.Errorf("games = %d, want the member maximum 12", team.Games)
	}
	if !approx(team.BattingAverage, 12.0/50) {
		t.Errorf("avg = %v", team.BattingAverage)
	}
}

func TestRollupTeam(t *testing.T) {
	store := newFakeStore()
	svc := NewRollupService(store, nopLogger())
	ctx := context.Background()

	if _, err := svc.RollupTeam(ctx, "t1", models.AllTimeKey()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("missing roster error = %v, want ErrNotFound", err)
	}

	err := svc.SaveRoster(ctx, &models.TeamRoster{TeamID: "t1", Members: []models.TeamMember{
		{UserID: "a", IsPitcher: true},
		{UserID: "b"},
		{UserID: "ghost"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	putSnapshot(t, store, memberSnapshot("a", 10, 8, 30, 21, 9))
	putSnapshot(t, store, memberSnapshot("b", 12, 4, 20, 6, 2))

	res, err := svc.RollupTeam(ctx, "t1", models.AllTimeKey())
	if err != nil {
		t.Fatalf("RollupTeam: %v", err)
	}
	if res.Members != 3 || len(res.MissingMembers) != 1 || res.MissingMembers[0] != "ghost" {
		t.Errorf("result members=%d missing=%v", res.Members, res.MissingMembers)
	}
	if res.Snapshot.Subject.Kind != models.SubjectTeamRollup || res.Snapshot.Hits != 12 || res.Snapshot.InningsOuts != 21 {
		t.Errorf("snapshot = %+v", res.Snapshot.Counters)
	}

	// A second pass rebuilds from scratch instead of adding onto the first.
	res, err = svc.RollupTeam(ctx, "t1", models.AllTimeKey())
	if err != nil {
		t.Fatal(err)
	}
	if res.Snapshot.Hits != 12 {
		t.Errorf("second pass hits = %d, want 12", res.Snapshot.Hits)
	}

	stored, err := loadSnapshot(ctx, store, models.Subject{Kind: models.SubjectTeamRollup, ID: "t1"}, models.AllTimeKey())
	if err != nil || stored == nil {
		t.Fatalf("stored roll-up: %v %v", stored, err)
	}
	if stored.Hits != 12 || stored.Games != 12 {
		t.Errorf("stored hits=%d games=%d", stored.Hits, stored.Games)
	}
}

func TestRollupTeamRetriesConflicts(t *testing.T) {
	store := newFakeStore()
	svc := NewRollupService(store, nopLogger())
	svc.(*rollupService).retry = fastRetry
	ctx := context.Background()

	if err := svc.SaveRoster(ctx, &models.TeamRoster{TeamID: "t1", Members: []models.TeamMember{{UserID: "a"}}}); err != nil {
		t.Fatal(err)
	}
	putSnapshot(t, store, memberSnapshot("a", 3, 2, 9, 0, 0))

	ref := models.SnapshotRef(models.Subject{Kind: models.SubjectTeamRollup, ID: "t1"}, models.AllTimeKey())
	store.conflicts[ref] = 2
	res, err := svc.RollupTeam(ctx, "t1", models.AllTimeKey())
	if err != nil {
		t.Fatalf("RollupTeam after two conflicts: %v", err)
	}
	if res.Snapshot.Hits != 2 {
		t.Errorf("hits = %d, want 2", res.Snapshot.Hits)
	}
	if _, err := store.Get(ctx, ref); err != nil {
		t.Errorf("roll-up not stored: %v", err)
	}

	store.conflicts[ref] = int(fastRetry.MaxTries) + 1
	if _, err := svc.RollupTeam(ctx, "t1", models.AllTimeKey()); !errors.Is(err, models.ErrConflict) {
		t.Errorf("error after exhausting retries = %v, want ErrConflict", err)
	}
}

func TestSaveRosterValidation(t *testing.T) {
	svc := NewRollupService(newFakeStore(), nopLogger())
	tests := []struct {
		name   string
		roster *models.TeamRoster
	}{
		{"missing team id", &models.TeamRoster{Members: []models.TeamMember{{UserID: "a"}}}},
		{"member without id", &models.TeamRoster{TeamID: "t1", Members: []models.TeamMember{{UserID: ""}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.SaveRoster(context.Background(), tt.roster); !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRollupAll(t *testing.T) {
	store := newFakeStore()
	svc := NewRollupService(store, nopLogger())
	ctx := context.Background()

	for _, id := range []string{"t1", "t2"} {
		if err := svc.SaveRoster(ctx, &models.TeamRoster{TeamID: id, Members: []models.TeamMember{{UserID: "a"}}}); err != nil {
			t.Fatal(err)
		}
	}
	putSnapshot(t, store, memberSnapshot("a", 3, 2, 9, 0, 0))

	keys := []models.CategoryKey{models.AllTimeKey(), models.YearKey(2024)}
	if err := svc.RollupAll(ctx, keys); err != nil {
		t.Fatalf("RollupAll: %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		for _, key := range keys {
			ref := models.SnapshotRef(models.Subject{Kind: models.SubjectTeamRollup, ID: id}, key)
			if _, ok := store.docs[ref]; !ok {
				t.Errorf("missing roll-up %s", ref)
			}
		}
	}

	store.failTransact = models.CollectionSnapshots
	if err := svc.RollupAll(ctx, keys); !errors.Is(err, errStoreDown) {
		t.Errorf("error = %v, want errStoreDown", err)
	}
}

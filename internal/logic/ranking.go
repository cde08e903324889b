package logic

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/basestats/stats-engine/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTopN is how many ranks a leaderboard publishes.
	DefaultTopN = 10
	// DefaultNeighborRadius is how many positions on each side a neighbor
	// window shows.
	DefaultNeighborRadius = 2

	// minPlateAppearancesPerGame gates the batting rate metrics.
	minPlateAppearancesPerGame = 2.0
	// minOutsPerPitchingGame gates ERA: one inning per appearance.
	minOutsPerPitchingGame = 3
	// minDecisions gates win rate.
	minDecisions = 3

	// tiePrecision is the number of decimals compared when detecting ties.
	tiePrecision = 1e9

	unknownAgeGroup = "unknown"
)

// RankMetric is one independently ranked statistic.
type RankMetric struct {
	Name      string
	Ascending bool
	Value     func(*models.StatSnapshot) float64
	Eligible  func(*models.StatSnapshot) bool
}

// DefaultRankMetrics returns the batting and pitching metrics ranked each period.
func DefaultRankMetrics() []RankMetric {
	return []RankMetric{
		{Name: "battingAverage", Value: func(s *models.StatSnapshot) float64 { return s.BattingAverage }, Eligible: battingRateEligible},
		{Name: "onBasePercentage", Value: func(s *models.StatSnapshot) float64 { return s.OnBasePercentage }, Eligible: battingRateEligible},
		{Name: "sluggingPercentage", Value: func(s *models.StatSnapshot) float64 { return s.SluggingPercentage }, Eligible: battingRateEligible},
		{Name: "homeRuns", Value: countOf(func(s *models.StatSnapshot) int { return s.HomeRuns }), Eligible: battingCountEligible(func(s *models.StatSnapshot) int { return s.HomeRuns })},
		{Name: "stolenBases", Value: countOf(func(s *models.StatSnapshot) int { return s.StolenBases }), Eligible: battingCountEligible(func(s *models.StatSnapshot) int { return s.StolenBases })},
		{Name: "rbis", Value: countOf(func(s *models.StatSnapshot) int { return s.RBIs }), Eligible: battingCountEligible(func(s *models.StatSnapshot) int { return s.RBIs })},
		{Name: "era", Ascending: true, Value: func(s *models.StatSnapshot) float64 { return s.ERA }, Eligible: eraEligible},
		{Name: "winRate", Value: func(s *models.StatSnapshot) float64 { return s.WinRate }, Eligible: winRateEligible},
		{Name: "pitchingStrikeouts", Value: countOf(func(s *models.StatSnapshot) int { return s.PitchingStrikeouts }), Eligible: pitchingCountEligible(func(s *models.StatSnapshot) int { return s.PitchingStrikeouts })},
		{Name: "holds", Value: countOf(func(s *models.StatSnapshot) int { return s.Holds }), Eligible: pitchingCountEligible(func(s *models.StatSnapshot) int { return s.Holds })},
		{Name: "saves", Value: countOf(func(s *models.StatSnapshot) int { return s.Saves }), Eligible: pitchingCountEligible(func(s *models.StatSnapshot) int { return s.Saves })},
	}
}

func countOf(f func(*models.StatSnapshot) int) func(*models.StatSnapshot) float64 {
	return func(s *models.StatSnapshot) float64 { return float64(f(s)) }
}

func battingRateEligible(s *models.StatSnapshot) bool {
	return s.Games > 0 && float64(s.TotalBats) >= float64(s.Games)*minPlateAppearancesPerGame
}

func battingCountEligible(f func(*models.StatSnapshot) int) func(*models.StatSnapshot) bool {
	return func(s *models.StatSnapshot) bool { return s.Games > 0 && f(s) > 0 }
}

func eraEligible(s *models.StatSnapshot) bool {
	return s.PitchingGames > 0 && s.InningsOuts >= s.PitchingGames*minOutsPerPitchingGame
}

func winRateEligible(s *models.StatSnapshot) bool {
	return s.Wins+s.Losses >= minDecisions
}

func pitchingCountEligible(f func(*models.StatSnapshot) int) func(*models.StatSnapshot) bool {
	return func(s *models.StatSnapshot) bool { return s.PitchingGames > 0 && f(s) > 0 }
}

// AgeGroup buckets an age: "0-17", "18-29", then decades up to "90-100".
// Missing or out-of-range ages are "unknown".
func AgeGroup(age *int) string {
	if age == nil || *age < 0 || *age > 100 {
		return unknownAgeGroup
	}
	switch a := *age; {
	case a <= 17:
		return "0-17"
	case a <= 29:
		return "18-29"
	case a >= 90:
		return "90-100"
	default:
		lo := a / 10 * 10
		return fmt.Sprintf("%d-%d", lo, lo+9)
	}
}

// sameValue compares metric values at tiePrecision.
func sameValue(a, b float64) bool {
	return math.Round(a*tiePrecision) == math.Round(b*tiePrecision)
}

// DenseRank ranks candidates on metric. Eligible entries come first, ordered
// best to worst with ties broken by subject id; tied values share a rank and
// the next distinct value ranks 1 + the number of strictly better entries.
// Ineligible entries follow with a nil rank.
func DenseRank(candidates []models.RankCandidate, metric RankMetric) []models.RankEntry {
	entries := make([]models.RankEntry, 0, len(candidates))
	for _, c := range candidates {
		if c.Snapshot == nil {
			continue
		}
		entries = append(entries, models.RankEntry{
			SubjectID: c.SubjectID,
			Value:     metric.Value(c.Snapshot),
			Eligible:  metric.Eligible(c.Snapshot),
			AgeGroup:  AgeGroup(c.Age),
		})
	}

	slices.SortStableFunc(entries, func(a, b models.RankEntry) int {
		if a.Eligible != b.Eligible {
			if a.Eligible {
				return -1
			}
			return 1
		}
		if a.Eligible && !sameValue(a.Value, b.Value) {
			if metric.Ascending {
				return cmp.Compare(a.Value, b.Value)
			}
			return cmp.Compare(b.Value, a.Value)
		}
		return strings.Compare(a.SubjectID, b.SubjectID)
	})

	assignRanks(entries, func(e *models.RankEntry) **int { return &e.Rank })
	return entries
}

// assignRanks sets competition ranks on the eligible prefix of sorted entries.
func assignRanks(entries []models.RankEntry, slot func(*models.RankEntry) **int) {
	position := 0
	var prev float64
	var rank int
	for i := range entries {
		e := &entries[i]
		if !e.Eligible {
			*slot(e) = nil
			continue
		}
		position++
		if position == 1 || !sameValue(e.Value, prev) {
			rank = position
		}
		prev = e.Value
		r := rank
		*slot(e) = &r
	}
}

// RankAgeGroups re-ranks entries within each age group using the same tie
// rule. entries must be in DenseRank order.
func RankAgeGroups(entries []models.RankEntry) {
	groups := make(map[string][]int)
	for i, e := range entries {
		groups[e.AgeGroup] = append(groups[e.AgeGroup], i)
	}
	for _, idx := range groups {
		sub := make([]models.RankEntry, len(idx))
		for j, i := range idx {
			sub[j] = entries[i]
		}
		assignRanks(sub, func(e *models.RankEntry) **int { return &e.AgeGroupRank })
		for j, i := range idx {
			entries[i].AgeGroupRank = sub[j].AgeGroupRank
		}
	}
}

// TopN returns the ranked entries with rank <= n.
func TopN(entries []models.RankEntry, n int) []models.RankEntry {
	var top []models.RankEntry
	for _, e := range entries {
		if e.InTop(n) {
			top = append(top, e)
		}
	}
	return top
}

// TopNByAgeGroup returns, per age group, the entries with group rank <= n.
func TopNByAgeGroup(entries []models.RankEntry, n int) map[string][]models.RankEntry {
	out := make(map[string][]models.RankEntry)
	for _, e := range entries {
		if e.AgeGroupRank != nil && *e.AgeGroupRank <= n {
			out[e.AgeGroup] = append(out[e.AgeGroup], e)
		}
	}
	return out
}

// NeighborWindow locates subjectID in ranked entries. It returns ok=false
// when the subject is unranked or already inside the top n. Otherwise it
// returns the subject's entry, the entries within radius positions of it, and
// the first entry past the window that is strictly worse than the window's
// last entry.
func NeighborWindow(entries []models.RankEntry, subjectID string, n, radius int) (self models.RankEntry, window []models.RankEntry, next *models.RankEntry, ok bool) {
	eligible := 0
	for eligible < len(entries) && entries[eligible].Eligible {
		eligible++
	}
	ranked := entries[:eligible]

	idx := slices.IndexFunc(ranked, func(e models.RankEntry) bool { return e.SubjectID == subjectID })
	if idx < 0 || ranked[idx].InTop(n) {
		return models.RankEntry{}, nil, nil, false
	}

	lo := max(0, idx-radius)
	hi := min(len(ranked), idx+radius+1)
	window = slices.Clone(ranked[lo:hi])

	last := ranked[hi-1].Value
	for i := hi; i < len(ranked); i++ {
		if !sameValue(ranked[i].Value, last) {
			e := ranked[i]
			next = &e
			break
		}
	}
	return ranked[idx], window, next, true
}

// BuildLeaderboard runs a full ranking of candidates on one metric.
func BuildLeaderboard(key models.CategoryKey, candidates []models.RankCandidate, metric RankMetric, topN int, now time.Time) *models.Leaderboard {
	entries := DenseRank(candidates, metric)
	RankAgeGroups(entries)
	return &models.Leaderboard{
		Category:    key,
		Metric:      metric.Name,
		Ascending:   metric.Ascending,
		GeneratedAt: now,
		Top:         TopN(entries, topN),
		AgeGroupTop: TopNByAgeGroup(entries, topN),
		Entries:     entries,
	}
}

// NeighborContexts builds the neighbor document of every ranked entry outside
// the top n.
func NeighborContexts(board *models.Leaderboard, n, radius int) []*models.NeighborContext {
	var out []*models.NeighborContext
	for _, e := range board.Entries {
		if !e.Eligible || e.InTop(n) {
			continue
		}
		self, window, next, ok := NeighborWindow(board.Entries, e.SubjectID, n, radius)
		if !ok {
			continue
		}
		out = append(out, &models.NeighborContext{
			SubjectID:   e.SubjectID,
			Category:    board.Category,
			Metric:      board.Metric,
			Self:        self,
			Window:      window,
			NextWorse:   next,
			GeneratedAt: board.GeneratedAt,
		})
	}
	return out
}

// RankingConfig tunes ranking passes.
type RankingConfig struct {
	TopN           int
	NeighborRadius int
	BatchLimit     int
}

type rankingService struct {
	store   DocumentStore
	writer  *BatchWriter
	logger  *zap.SugaredLogger
	tracer  trace.Tracer
	metrics []RankMetric
	cfg     RankingConfig
	now     func() time.Time
}

func NewRankingService(store DocumentStore, logger *zap.SugaredLogger, cfg RankingConfig) RankingService {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.NeighborRadius <= 0 {
		cfg.NeighborRadius = DefaultNeighborRadius
	}
	return &rankingService{
		store:   store,
		writer:  NewBatchWriter(store, cfg.BatchLimit, logger),
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		metrics: DefaultRankMetrics(),
		cfg:     cfg,
		now:     time.Now,
	}
}

// RankPeriod ranks every metric for key and persists the leaderboards and
// neighbor documents. With no candidates supplied, the stored user snapshots
// of key are ranked.
func (s *rankingService) RankPeriod(ctx context.Context, key models.CategoryKey, candidates []models.RankCandidate) (*models.RankPeriodResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RankPeriod", trace.WithAttributes(attribute.String("category", key.String())))
	defer span.End()
	start := time.Now()

	if len(candidates) == 0 {
		loaded, err := s.LoadCandidates(ctx, key)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		candidates = loaded
	}
	now := s.now().UTC()

	boards := make([]*models.Leaderboard, len(s.metrics))
	neighbors := make([][]*models.NeighborContext, len(s.metrics))
	var g errgroup.Group
	for i, metric := range s.metrics {
		g.Go(func() error {
			boards[i] = BuildLeaderboard(key, candidates, metric, s.cfg.TopN, now)
			neighbors[i] = NeighborContexts(boards[i], s.cfg.TopN, s.cfg.NeighborRadius)
			return nil
		})
	}
	_ = g.Wait()

	var docs []models.Document
	fresh := make(map[models.DocRef]struct{})
	neighborCount := 0
	for i, board := range boards {
		body, err := json.Marshal(board)
		if err != nil {
			return nil, err
		}
		docs = append(docs, models.Document{Ref: models.LeaderboardRef(key, board.Metric), Body: body})
		for _, nc := range neighbors[i] {
			body, err := json.Marshal(nc)
			if err != nil {
				return nil, err
			}
			ref := models.NeighborRef(nc.SubjectID, key, nc.Metric)
			docs = append(docs, models.Document{Ref: ref, Body: body})
			fresh[ref] = struct{}{}
			neighborCount++
		}
	}

	stale, err := s.staleNeighbors(ctx, key, fresh, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	docs = append(docs, stale...)

	if err := s.writer.WriteAll(ctx, docs); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("write rankings for %s: %w", key, err)
	}

	rankingDuration.WithLabelValues(key.String()).Observe(time.Since(start).Seconds())
	s.logger.Infow("Ranked period",
		"category", key.String(), "candidates", len(candidates),
		"metrics", len(boards), "neighbors", neighborCount, "stale", len(stale), "documents", len(docs))

	return &models.RankPeriodResponse{Category: key, Leaderboards: boards, Neighbors: neighborCount}, nil
}

// staleNeighbors returns tombstones for the stored neighbor contexts of key
// that this pass did not rewrite, so subjects who entered the top n or lost
// eligibility stop resolving to an old window.
func (s *rankingService) staleNeighbors(ctx context.Context, key models.CategoryKey, fresh map[models.DocRef]struct{}, now time.Time) ([]models.Document, error) {
	existing, err := s.store.Query(ctx, models.CollectionNeighbors, key.String()+"/")
	if err != nil {
		return nil, fmt.Errorf("list neighbors for %s: %w", key, err)
	}

	var out []models.Document
	for _, doc := range existing {
		if _, ok := fresh[doc.Ref]; ok {
			continue
		}
		var old models.NeighborContext
		if err := json.Unmarshal(doc.Body, &old); err == nil && old.Stale {
			continue
		}
		body, err := json.Marshal(models.NeighborContext{
			SubjectID:   old.SubjectID,
			Category:    key,
			Metric:      old.Metric,
			GeneratedAt: now,
			Stale:       true,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, models.Document{Ref: doc.Ref, Body: body})
	}
	return out, nil
}

// LoadCandidates reads every user snapshot of key, with ages from profiles.
// Users without a profile land in the unknown age group.
func (s *rankingService) LoadCandidates(ctx context.Context, key models.CategoryKey) ([]models.RankCandidate, error) {
	prefix := models.SubjectPrefix(key, models.SubjectUser)

	var (
		snapDocs    []models.Document
		profileDocs []models.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapDocs, err = s.store.Query(gctx, models.CollectionSnapshots, prefix)
		return err
	})
	g.Go(func() error {
		var err error
		profileDocs, err = s.store.Query(gctx, models.CollectionProfiles, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load candidates for %s: %w", key, err)
	}

	asOf := s.now()
	ages := make(map[string]*int, len(profileDocs))
	for _, doc := range profileDocs {
		var p models.UserProfile
		if err := json.Unmarshal(doc.Body, &p); err != nil {
			s.logger.Warnw("Skipping unreadable profile", "id", doc.Ref.ID, "error", err)
			continue
		}
		ages[doc.Ref.ID] = p.AgeOn(asOf)
	}

	candidates := make([]models.RankCandidate, 0, len(snapDocs))
	for _, doc := range snapDocs {
		userID := models.SubjectIDFromRef(doc.Ref.ID, prefix)
		snap, err := decodeSnapshot(doc.Body, models.Subject{Kind: models.SubjectUser, ID: userID}, key)
		if err != nil {
			s.logger.Warnw("Skipping unreadable snapshot", "id", doc.Ref.ID, "error", err)
			continue
		}
		candidates = append(candidates, models.RankCandidate{SubjectID: userID, Age: ages[userID], Snapshot: snap})
	}
	return candidates, nil
}

func (s *rankingService) GetLeaderboard(ctx context.Context, key models.CategoryKey, metric string) (*models.Leaderboard, error) {
	var board models.Leaderboard
	if err := s.getJSON(ctx, models.LeaderboardRef(key, metric), &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *rankingService) GetNeighbors(ctx context.Context, subjectID string, key models.CategoryKey, metric string) (*models.NeighborContext, error) {
	var nc models.NeighborContext
	if err := s.getJSON(ctx, models.NeighborRef(subjectID, key, metric), &nc); err != nil {
		return nil, err
	}
	if nc.Stale {
		return nil, models.ErrNotFound
	}
	return &nc, nil
}

// SaveProfile stores the profile used for age-group ranking.
func (s *rankingService) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if err := Validate(profile); err != nil {
		return err
	}
	body, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.store.BatchWrite(ctx, []models.Document{{Ref: models.ProfileRef(profile.UserID), Body: body}})
}

func (s *rankingService) getJSON(ctx context.Context, ref models.DocRef, v any) error {
	body, err := s.store.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("get %s: %w", ref, err)
	}
	return json.Unmarshal(body, v)
}

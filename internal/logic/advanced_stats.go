package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/basestats/stats-engine/internal/models"
	"go.uber.org/zap"
)

// lobHomeRunWeight discounts home runs, which clear the bases, in the
// left-on-base rate.
const lobHomeRunWeight = 1.4

type advancedStatsService struct {
	store  DocumentStore
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewAdvancedStatsService(store DocumentStore, logger *zap.SugaredLogger) AdvancedStatsService {
	return &advancedStatsService{store: store, logger: logger, now: time.Now}
}

// ComputeAdvancedStats reads the (subject, key) snapshot, computes its
// advanced stats and stores them as a side document. A missing snapshot
// yields all-zero stats.
func (s *advancedStatsService) ComputeAdvancedStats(ctx context.Context, subject models.Subject, key models.CategoryKey) (*models.AdvancedStats, error) {
	snap, err := loadSnapshot(ctx, s.store, subject, key)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		snap = models.NewSnapshot(subject, key)
	}

	adv := ComputeAdvanced(snap)
	adv.ComputedAt = s.now().UTC()

	body, err := json.Marshal(adv)
	if err != nil {
		return nil, err
	}
	if err := s.store.BatchWrite(ctx, []models.Document{{Ref: models.AdvancedRef(subject, key), Body: body}}); err != nil {
		return nil, fmt.Errorf("store advanced stats: %w", err)
	}
	return adv, nil
}

// ComputeAdvanced derives the secondary ratios of a finished snapshot. Every
// ratio is 0 when its denominator is not positive.
func ComputeAdvanced(snap *models.StatSnapshot) *models.AdvancedStats {
	adv := &models.AdvancedStats{
		Subject:  snap.Subject,
		Category: snap.Category,
		Batting:  computeBattingAdvanced(&snap.Counters),
	}
	if snap.HasPitching() {
		p := computePitchingAdvanced(&snap.Counters)
		adv.Pitching = &p
	}
	return adv
}

func computeBattingAdvanced(c *models.Counters) models.BattingAdvanced {
	pa := float64(c.TotalBats)
	k := float64(c.Strikeouts)
	bb := float64(c.Walks)
	h := float64(c.Hits)
	hr := float64(c.HomeRuns)
	ab := float64(c.AtBats)

	b := models.BattingAdvanced{
		StrikeoutRate:          safeDiv(k, pa),
		BABIP:                  safeDiv(h-hr, ab-k-hr+float64(c.SacrificeFlies)),
		ISO:                    safeDiv(float64(c.TotalBases), ab) - safeDiv(h, ab),
		WalkToStrikeout:        safeDiv(bb, k),
		WalkRate:               safeDiv(bb, pa),
		HitByPitchRate:         safeDiv(float64(c.HitByPitch), pa),
		SwingRate:              safeDiv(float64(c.SwingCount), float64(c.PitchesSeen)),
		MissSwingRate:          safeDiv(float64(c.MissSwingCount), float64(c.SwingCount)),
		FirstPitchSwingSuccess: safeDiv(float64(c.FirstPitchSwingHits), float64(c.FirstPitchSwings)),
		StealSuccessRate:       safeDiv(float64(c.StolenBases), float64(c.StolenBases+c.CaughtStealing)),
		BuntSuccessRate:        safeDiv(float64(c.SacrificeBunts+c.BuntHits), float64(c.BuntAttempts)),
	}

	b.HitTypes = shares(h, map[string]int{
		"single":   c.Singles,
		"double":   c.Doubles,
		"triple":   c.Triples,
		"home_run": c.HomeRuns,
	})
	b.StrikeoutTypes = shares(k, map[string]int{
		"swinging":      c.SwingingStrikeouts,
		"looking":       c.LookingStrikeouts,
		"dropped_third": c.DroppedThirdStrikes,
		"three_bunt":    c.ThreeBuntFailures,
	})
	b.OutTypes = shares(float64(c.Outs), map[string]int{
		"ground":       c.GroundOuts,
		"fly":          c.FlyOuts,
		"line":         c.LineOuts,
		"foul_fly":     c.FoulFlyOuts,
		"double_play":  c.DoublePlays,
		"interference": c.InterferenceOuts,
		"bunt_failure": c.BuntFailures,
	})

	var hitsWithDirection int
	for _, n := range c.HitDirectionCounts {
		hitsWithDirection += n
	}
	b.Directions = shares(float64(hitsWithDirection), c.HitDirectionCounts)
	return b
}

func computePitchingAdvanced(c *models.Counters) models.PitchingAdvanced {
	ip := InningsFromOuts(c.InningsOuts)
	games := float64(c.PitchingGames)
	bf := float64(c.BattersFaced)
	onBase := float64(c.HitsAllowed + c.WalksAllowed + c.HitByPitchAllowed)

	return models.PitchingAdvanced{
		WHIP:                  safeDiv(float64(c.WalksAllowed+c.HitsAllowed), ip),
		BattingAverageAgainst: safeDiv(float64(c.HitsAllowed), bf-float64(c.WalksAllowed+c.HitByPitchAllowed)),
		StrikeoutsPer7:        safeDiv(float64(c.PitchingStrikeouts)*models.InningsPerGame, ip),
		QualityStartRate:      safeDiv(float64(c.QualityStarts), float64(c.Starts)),
		HomeRunRate:           safeDiv(float64(c.HomeRunsAllowed), bf),
		LeftOnBaseRate:        safeDiv(onBase-float64(c.RunsAllowed), onBase-lobHomeRunWeight*float64(c.HomeRunsAllowed)),

		PitchesPerGame:      safeDiv(float64(c.PitchCount), games),
		WalksPerGame:        safeDiv(float64(c.WalksAllowed), games),
		HitByPitchPerGame:   safeDiv(float64(c.HitByPitchAllowed), games),
		BattersFacedPerGame: safeDiv(bf, games),
		RunsAllowedPerGame:  safeDiv(float64(c.RunsAllowed), games),
	}
}

// shares divides every count by total. Empty maps stay empty.
func shares[K comparable](total float64, counts map[K]int) map[K]float64 {
	out := make(map[K]float64, len(counts))
	for k, n := range counts {
		out[k] = safeDiv(float64(n), total)
	}
	return out
}

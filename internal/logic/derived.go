package logic

import "github.com/basestats/stats-engine/internal/models"

// safeDiv returns 0 when the denominator is not positive.
func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// ComputeDerived recomputes every derived ratio from counters.
func ComputeDerived(c *models.Counters) models.DerivedStats {
	var d models.DerivedStats

	h := float64(c.Hits)
	ab := float64(c.AtBats)
	bb := float64(c.Walks)
	hbp := float64(c.HitByPitch)
	tb := float64(c.TotalBases)

	d.BattingAverage = safeDiv(h, ab)
	d.OnBasePercentage = safeDiv(h+bb+hbp, ab+bb+hbp+float64(c.SacrificeFlies))
	d.SluggingPercentage = safeDiv(tb, ab)
	d.OPS = d.OnBasePercentage + d.SluggingPercentage
	d.RunsCreated = RunsCreated(c)

	po, a := float64(c.Putouts), float64(c.Assists)
	d.FieldingPercentage = safeDiv(po+a, po+a+float64(c.Errors))

	if c.HasPitching() {
		d.InningsPitched = InningsFromOuts(c.InningsOuts)
		d.ERA = safeDiv(float64(c.EarnedRuns)*models.InningsPerGame, d.InningsPitched)
		d.WinRate = safeDiv(float64(c.Wins), float64(c.Wins+c.Losses))
	}
	return d
}

// RunsCreated is the basic runs-created estimate (H+BB)*TB/(PA+BB), used for
// users and teams alike.
func RunsCreated(c *models.Counters) float64 {
	return safeDiv(float64(c.Hits+c.Walks)*float64(c.TotalBases), float64(c.TotalBats+c.Walks))
}

// InningsFromOuts converts recorded outs to innings (17 outs is 5.667).
func InningsFromOuts(outs int) float64 {
	return float64(outs) / 3
}

// refreshDerived recomputes the snapshot's derived ratios in place.
func refreshDerived(s *models.StatSnapshot) {
	s.DerivedStats = ComputeDerived(&s.Counters)
}

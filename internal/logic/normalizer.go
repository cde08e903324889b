package logic

import "github.com/basestats/stats-engine/internal/models"

// qualityStartOuts and qualityStartMaxER define a quality start: six innings
// or more with three earned runs or fewer.
const (
	qualityStartOuts  = 18
	qualityStartMaxER = 3
)

// Normalize converts one game record into its single-game delta. It is pure:
// the same record always yields the same delta.
func Normalize(rec *models.GameRecord) models.StatDelta {
	var d models.StatDelta
	if rec == nil {
		return d
	}
	d.Games = 1

	for i := range rec.AtBats {
		applyAtBat(&d.Counters, &rec.AtBats[i])
	}

	d.StolenBases = rec.StolenBases
	d.CaughtStealing = rec.CaughtStealing
	d.RBIs = rec.RBIs
	d.Runs = rec.Runs

	if p := rec.Pitching; p != nil {
		applyPitching(&d.PitchingCounters, p)
	}
	if f := rec.Fielding; f != nil {
		d.Putouts = f.Putouts
		d.Assists = f.Assists
		d.Errors = f.Errors
		d.StolenBasesAllowed = f.StolenBasesAllowed
		d.CaughtStealingByCatcher = f.CaughtStealing
	}
	return d
}

// applyAtBat folds one plate appearance into c. Swing and pitch counters
// accumulate whatever the result; unknown results and unknown bunt details
// add nothing else.
func applyAtBat(c *models.Counters, ev *models.AtBatEvent) {
	c.SwingCount += ev.SwingCount
	c.MissSwingCount += ev.MissSwingCount
	c.PitchesSeen += ev.BatterPitchCount
	if ev.FirstPitchSwing {
		c.FirstPitchSwings++
	}
	if !ev.Result.Known() {
		return
	}
	hit := false

	switch ev.Result {
	case models.ResultSingle:
		addHit(c, 1)
		c.Singles++
		hit = true
	case models.ResultDouble:
		addHit(c, 2)
		c.Doubles++
		hit = true
	case models.ResultTriple:
		addHit(c, 3)
		c.Triples++
		hit = true
	case models.ResultHomeRun:
		addHit(c, 4)
		c.HomeRuns++
		hit = true

	case models.ResultWalk:
		c.Walks++
		c.TotalOnBase++
	case models.ResultHitByPitch:
		c.HitByPitch++
		c.TotalOnBase++

	case models.ResultSwingingStrikeout:
		c.AtBats++
		c.Strikeouts++
		c.SwingingStrikeouts++
	case models.ResultLookingStrikeout:
		c.AtBats++
		c.Strikeouts++
		c.LookingStrikeouts++
	case models.ResultDroppedThirdStrike:
		c.AtBats++
		c.Strikeouts++
		c.DroppedThirdStrikes++

	case models.ResultGroundOut:
		addOut(c)
		c.GroundOuts++
	case models.ResultFlyOut:
		addOut(c)
		c.FlyOuts++
	case models.ResultLineOut:
		addOut(c)
		c.LineOuts++
	case models.ResultFoulFlyOut:
		addOut(c)
		c.FoulFlyOuts++
	case models.ResultDoublePlay:
		addOut(c)
		c.DoublePlays++
	case models.ResultBatterInterference:
		addOut(c)
		c.InterferenceOuts++

	case models.ResultSacrificeFly:
		c.SacrificeFlies++

	case models.ResultBunt:
		var ok bool
		if hit, ok = applyBunt(c, ev.BuntDetail); !ok {
			return
		}

	case models.ResultReachedOnError:
		c.AtBats++
		c.ReachedOnError++
	case models.ResultFieldersChoice:
		c.AtBats++
		c.FieldersChoices++
	case models.ResultCatcherInterference:
		c.CatcherInterference++
	}

	c.TotalBats++
	if ev.FirstPitchSwing && hit {
		c.FirstPitchSwingHits++
	}

	applyDirection(&c.DirectionCounters, ev, hit)
}

// applyBunt handles the bunt variants. An empty detail is a plain sacrifice.
// It reports whether the bunt was a hit and whether the detail was recognised.
func applyBunt(c *models.Counters, detail models.BuntDetail) (hit, ok bool) {
	switch detail {
	case models.BuntSacrifice, "":
		c.SacrificeBunts++
	case models.BuntSqueeze:
		c.SacrificeBunts++
		c.SqueezeSuccesses++
	case models.BuntThreeBuntSuccess:
		c.SacrificeBunts++
		c.ThreeBuntSuccesses++
	case models.BuntSacrificeFailed:
		addOut(c)
		c.BuntFailures++
	case models.BuntSqueezeFailed:
		addOut(c)
		c.BuntFailures++
		c.SqueezeFailures++
	case models.BuntHit:
		addHit(c, 1)
		c.Singles++
		c.BuntHits++
		hit = true
	case models.BuntThreeBuntFailed:
		c.AtBats++
		c.Strikeouts++
		c.ThreeBuntFailures++
	default:
		return false, false
	}
	c.BuntAttempts++
	return hit, true
}

func addHit(c *models.Counters, bases int) {
	c.AtBats++
	c.Hits++
	c.TotalBases += bases
	c.TotalOnBase++
}

func addOut(c *models.Counters) {
	c.AtBats++
	c.Outs++
}

// applyDirection records the fielding direction when it is legal for the result.
func applyDirection(d *models.DirectionCounters, ev *models.AtBatEvent, hit bool) {
	pos := ev.Position
	if pos == "" || !legalDirection(ev.Result, pos) {
		return
	}

	switch ev.Result {
	case models.ResultSacrificeFly:
		d.SacFlyDirectionCounts = increment(d.SacFlyDirectionCounts, pos)
	case models.ResultBunt:
		d.BuntDirectionCounts = increment(d.BuntDirectionCounts, pos)
	}

	if hit {
		d.HitDirectionCounts = increment(d.HitDirectionCounts, pos)
	}
	if d.HitDirectionDetails == nil {
		d.HitDirectionDetails = make(map[models.Position]map[models.AtBatResult]int)
	}
	d.HitDirectionDetails[pos] = increment(d.HitDirectionDetails[pos], ev.Result)
}

func increment[K comparable](m map[K]int, k K) map[K]int {
	if m == nil {
		m = make(map[K]int)
	}
	m[k]++
	return m
}

func applyPitching(p *models.PitchingCounters, rec *models.PitchingRecord) {
	p.PitchingGames = 1
	switch rec.Appearance {
	case models.AppearanceStarter:
		p.Starts = 1
	case models.AppearanceReliever:
		p.ReliefAppearances = 1
	case models.AppearanceCloser:
		p.CloserAppearances = 1
	}

	p.InningsOuts = rec.Outs()
	p.EarnedRuns = rec.EarnedRuns
	p.RunsAllowed = rec.RunsAllowed
	p.PitchingStrikeouts = rec.Strikeouts
	p.WalksAllowed = rec.Walks
	p.HitByPitchAllowed = rec.HitByPitch
	p.HitsAllowed = rec.HitsAllowed
	p.HomeRunsAllowed = rec.HomeRunsAllowed
	p.BattersFaced = rec.BattersFaced
	p.PitchCount = rec.PitchCount

	switch rec.Decision {
	case models.DecisionWin:
		p.Wins = 1
	case models.DecisionLoss:
		p.Losses = 1
	case models.DecisionHold:
		p.Holds = 1
	case models.DecisionSave:
		p.Saves = 1
	}

	if rec.Appearance == models.AppearanceStarter && p.InningsOuts >= qualityStartOuts && rec.EarnedRuns <= qualityStartMaxER {
		p.QualityStarts = 1
	}
	if rec.CompleteGame {
		p.CompleteGames = 1
		if rec.RunsAllowed == 0 {
			p.Shutouts = 1
		}
	}
}

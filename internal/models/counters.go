package models

// BattingCounters are the plate-appearance and baserunning counters.
type BattingCounters struct {
	TotalBats   int `json:"totalBats"` // plate appearances
	AtBats      int `json:"atBats"`
	Hits        int `json:"hits"`
	Singles     int `json:"singles"`
	Doubles     int `json:"doubles"`
	Triples     int `json:"triples"`
	HomeRuns    int `json:"homeRuns"`
	TotalBases  int `json:"totalBases"`
	TotalOnBase int `json:"totalOnBase"`
	Walks       int `json:"totalFourBalls"`
	HitByPitch  int `json:"totalDeadBalls"`

	Strikeouts          int `json:"totalStrikeouts"`
	SwingingStrikeouts  int `json:"totalSwingingStrikeouts"`
	LookingStrikeouts   int `json:"totalLookingStrikeouts"`
	DroppedThirdStrikes int `json:"droppedThirdStrikes"`

	Outs             int `json:"totalOuts"`
	GroundOuts       int `json:"groundOuts"`
	FlyOuts          int `json:"flyOuts"`
	LineOuts         int `json:"lineOuts"`
	FoulFlyOuts      int `json:"foulFlyOuts"`
	DoublePlays      int `json:"doublePlays"`
	InterferenceOuts int `json:"interferenceOuts"`

	SacrificeFlies     int `json:"sacrificeFlies"`
	SacrificeBunts     int `json:"sacrificeBunts"`
	SqueezeSuccesses   int `json:"squeezeSuccesses"`
	SqueezeFailures    int `json:"squeezeFailures"`
	BuntHits           int `json:"buntHits"`
	BuntFailures       int `json:"buntFailures"`
	ThreeBuntSuccesses int `json:"threeBuntSuccesses"`
	ThreeBuntFailures  int `json:"threeBuntFailures"`
	BuntAttempts       int `json:"buntAttempts"`

	ReachedOnError      int `json:"reachedOnError"`
	FieldersChoices     int `json:"fieldersChoices"`
	CatcherInterference int `json:"catcherInterference"`

	RBIs           int `json:"rbis"`
	Runs           int `json:"runs"`
	StolenBases    int `json:"stolenBases"`
	CaughtStealing int `json:"caughtStealing"`

	SwingCount          int `json:"swingCount"`
	MissSwingCount      int `json:"missSwingCount"`
	PitchesSeen         int `json:"batterPitchCount"`
	FirstPitchSwings    int `json:"firstPitchSwings"`
	FirstPitchSwingHits int `json:"firstPitchSwingHits"`
}

func (b *BattingCounters) add(o BattingCounters) {
	b.TotalBats += o.TotalBats
	b.AtBats += o.AtBats
	b.Hits += o.Hits
	b.Singles += o.Singles
	b.Doubles += o.Doubles
	b.Triples += o.Triples
	b.HomeRuns += o.HomeRuns
	b.TotalBases += o.TotalBases
	b.TotalOnBase += o.TotalOnBase
	b.Walks += o.Walks
	b.HitByPitch += o.HitByPitch

	b.Strikeouts += o.Strikeouts
	b.SwingingStrikeouts += o.SwingingStrikeouts
	b.LookingStrikeouts += o.LookingStrikeouts
	b.DroppedThirdStrikes += o.DroppedThirdStrikes

	b.Outs += o.Outs
	b.GroundOuts += o.GroundOuts
	b.FlyOuts += o.FlyOuts
	b.LineOuts += o.LineOuts
	b.FoulFlyOuts += o.FoulFlyOuts
	b.DoublePlays += o.DoublePlays
	b.InterferenceOuts += o.InterferenceOuts

	b.SacrificeFlies += o.SacrificeFlies
	b.SacrificeBunts += o.SacrificeBunts
	b.SqueezeSuccesses += o.SqueezeSuccesses
	b.SqueezeFailures += o.SqueezeFailures
	b.BuntHits += o.BuntHits
	b.BuntFailures += o.BuntFailures
	b.ThreeBuntSuccesses += o.ThreeBuntSuccesses
	b.ThreeBuntFailures += o.ThreeBuntFailures
	b.BuntAttempts += o.BuntAttempts

	b.ReachedOnError += o.ReachedOnError
	b.FieldersChoices += o.FieldersChoices
	b.CatcherInterference += o.CatcherInterference

	b.RBIs += o.RBIs
	b.Runs += o.Runs
	b.StolenBases += o.StolenBases
	b.CaughtStealing += o.CaughtStealing

	b.SwingCount += o.SwingCount
	b.MissSwingCount += o.MissSwingCount
	b.PitchesSeen += o.PitchesSeen
	b.FirstPitchSwings += o.FirstPitchSwings
	b.FirstPitchSwingHits += o.FirstPitchSwingHits
}

// PitchingCounters accumulate pitching appearances.
type PitchingCounters struct {
	PitchingGames      int `json:"pitchingGames"`
	Starts             int `json:"starts"`
	ReliefAppearances  int `json:"reliefAppearances"`
	CloserAppearances  int `json:"closerAppearances"`
	InningsOuts        int `json:"inningsOuts"`
	EarnedRuns         int `json:"earnedRuns"`
	RunsAllowed        int `json:"runsAllowed"`
	PitchingStrikeouts int `json:"pitchingStrikeouts"`
	WalksAllowed       int `json:"walksAllowed"`
	HitByPitchAllowed  int `json:"hitByPitchAllowed"`
	HitsAllowed        int `json:"hitsAllowed"`
	HomeRunsAllowed    int `json:"homeRunsAllowed"`
	BattersFaced       int `json:"battersFaced"`
	PitchCount         int `json:"pitchCount"`
	Wins               int `json:"wins"`
	Losses             int `json:"losses"`
	Holds              int `json:"holds"`
	Saves              int `json:"saves"`
	QualityStarts      int `json:"qualityStarts"`
	CompleteGames      int `json:"completeGames"`
	Shutouts           int `json:"shutouts"`
}

func (p *PitchingCounters) add(o PitchingCounters) {
	p.PitchingGames += o.PitchingGames
	p.Starts += o.Starts
	p.ReliefAppearances += o.ReliefAppearances
	p.CloserAppearances += o.CloserAppearances
	p.InningsOuts += o.InningsOuts
	p.EarnedRuns += o.EarnedRuns
	p.RunsAllowed += o.RunsAllowed
	p.PitchingStrikeouts += o.PitchingStrikeouts
	p.WalksAllowed += o.WalksAllowed
	p.HitByPitchAllowed += o.HitByPitchAllowed
	p.HitsAllowed += o.HitsAllowed
	p.HomeRunsAllowed += o.HomeRunsAllowed
	p.BattersFaced += o.BattersFaced
	p.PitchCount += o.PitchCount
	p.Wins += o.Wins
	p.Losses += o.Losses
	p.Holds += o.Holds
	p.Saves += o.Saves
	p.QualityStarts += o.QualityStarts
	p.CompleteGames += o.CompleteGames
	p.Shutouts += o.Shutouts
}

// HasPitching reports whether any pitching has been recorded.
func (p PitchingCounters) HasPitching() bool {
	return p.PitchingGames > 0 || p.InningsOuts > 0 || p.BattersFaced > 0
}

// FieldingCounters accumulate defensive lines.
type FieldingCounters struct {
	Putouts                 int `json:"putouts"`
	Assists                 int `json:"assists"`
	Errors                  int `json:"errors"`
	StolenBasesAllowed      int `json:"stolenBasesAllowed"`
	CaughtStealingByCatcher int `json:"caughtStealingByCatcher"`
}

func (f *FieldingCounters) add(o FieldingCounters) {
	f.Putouts += o.Putouts
	f.Assists += o.Assists
	f.Errors += o.Errors
	f.StolenBasesAllowed += o.StolenBasesAllowed
	f.CaughtStealingByCatcher += o.CaughtStealingByCatcher
}

// DirectionCounters count batted balls by fielding direction.
type DirectionCounters struct {
	HitDirectionCounts    map[Position]int                 `json:"hitDirectionCounts,omitempty"`
	HitDirectionDetails   map[Position]map[AtBatResult]int `json:"hitDirectionDetails,omitempty"`
	SacFlyDirectionCounts map[Position]int                 `json:"sacFlyDirectionCounts,omitempty"`
	BuntDirectionCounts   map[Position]int                 `json:"buntDirectionCounts,omitempty"`
}

func (d *DirectionCounters) add(o DirectionCounters) {
	d.HitDirectionCounts = mergeCounts(d.HitDirectionCounts, o.HitDirectionCounts)
	d.SacFlyDirectionCounts = mergeCounts(d.SacFlyDirectionCounts, o.SacFlyDirectionCounts)
	d.BuntDirectionCounts = mergeCounts(d.BuntDirectionCounts, o.BuntDirectionCounts)
	for pos, byResult := range o.HitDirectionDetails {
		if d.HitDirectionDetails == nil {
			d.HitDirectionDetails = make(map[Position]map[AtBatResult]int)
		}
		d.HitDirectionDetails[pos] = mergeCounts(d.HitDirectionDetails[pos], byResult)
	}
}

func mergeCounts[K comparable](dst, src map[K]int) map[K]int {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[K]int, len(src))
	}
	for k, v := range src {
		dst[k] += v
	}
	return dst
}

// Counters is the full counter shape shared by deltas and snapshots. The
// embedded groups flatten into a single JSON object.
type Counters struct {
	Games int `json:"games"`
	BattingCounters
	PitchingCounters
	FieldingCounters
	DirectionCounters
}

// Merge adds o into c. Scalars sum; direction maps merge key-wise.
func (c *Counters) Merge(o Counters) {
	c.Games += o.Games
	c.BattingCounters.add(o.BattingCounters)
	c.PitchingCounters.add(o.PitchingCounters)
	c.FieldingCounters.add(o.FieldingCounters)
	c.DirectionCounters.add(o.DirectionCounters)
}

// MergeBatting adds only the batting, fielding and direction groups of o.
func (c *Counters) MergeBatting(o Counters) {
	c.BattingCounters.add(o.BattingCounters)
	c.FieldingCounters.add(o.FieldingCounters)
	c.DirectionCounters.add(o.DirectionCounters)
}

// MergePitching adds only the pitching group of o.
func (c *Counters) MergePitching(o Counters) {
	c.PitchingCounters.add(o.PitchingCounters)
}

// MergeCounters returns a+b without modifying either argument.
func MergeCounters(a, b Counters) Counters {
	var out Counters
	out.Merge(a)
	out.Merge(b)
	return out
}

// StatDelta is one game's contribution to a snapshot.
type StatDelta struct {
	Counters
}

// HadPlateAppearance reports whether the game contained a counted plate appearance.
func (d StatDelta) HadPlateAppearance() bool { return d.TotalBats > 0 }

// ReachedBase reports whether the subject got on base by hit, walk or HBP.
func (d StatDelta) ReachedBase() bool { return d.TotalOnBase > 0 }

// StruckOut reports whether any plate appearance ended in a strikeout.
func (d StatDelta) StruckOut() bool { return d.Strikeouts > 0 }

// MultiHit reports a game with two or more hits.
func (d StatDelta) MultiHit() bool { return d.Hits >= 2 }

// Cycle reports a game with at least one hit of every type.
func (d StatDelta) Cycle() bool {
	return d.Singles > 0 && d.Doubles > 0 && d.Triples > 0 && d.HomeRuns > 0
}

package logic

import (
	"math"
	"testing"

	"github.com/basestats/stats-engine/internal/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeDerivedZeroDenominators(t *testing.T) {
	d := ComputeDerived(&models.Counters{})
	for name, v := range map[string]float64{
		"battingAverage":     d.BattingAverage,
		"onBasePercentage":   d.OnBasePercentage,
		"sluggingPercentage": d.SluggingPercentage,
		"ops":                d.OPS,
		"runsCreated":        d.RunsCreated,
		"fieldingPercentage": d.FieldingPercentage,
		"era":                d.ERA,
		"winRate":            d.WinRate,
	} {
		if v != 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestComputeDerived(t *testing.T) {
	var c models.Counters
	c.AtBats = 10
	c.Hits = 3
	c.TotalBases = 6
	c.Walks = 2
	c.HitByPitch = 1
	c.SacrificeFlies = 1
	c.TotalBats = 14
	c.Putouts = 8
	c.Assists = 1
	c.Errors = 1

	d := ComputeDerived(&c)

	if !approx(d.BattingAverage, 0.3) {
		t.Errorf("battingAverage = %v, want 0.3", d.BattingAverage)
	}
	// (3+2+1) / (10+2+1+1)
	if !approx(d.OnBasePercentage, 6.0/14.0) {
		t.Errorf("onBasePercentage = %v, want 6/14", d.OnBasePercentage)
	}
	if !approx(d.SluggingPercentage, 0.6) {
		t.Errorf("sluggingPercentage = %v, want 0.6", d.SluggingPercentage)
	}
	if !approx(d.OPS, 6.0/14.0+0.6) {
		t.Errorf("ops = %v", d.OPS)
	}
	// (H+BB)*TB/(PA+BB) = 5*6/16
	if !approx(d.RunsCreated, 30.0/16.0) {
		t.Errorf("runsCreated = %v, want 30/16", d.RunsCreated)
	}
	if !approx(d.FieldingPercentage, 0.9) {
		t.Errorf("fieldingPercentage = %v, want 0.9", d.FieldingPercentage)
	}
	if d.ERA != 0 || d.WinRate != 0 {
		t.Errorf("pitching ratios set without pitching: era=%v winRate=%v", d.ERA, d.WinRate)
	}
}

func TestComputeDerivedPitching(t *testing.T) {
	var c models.Counters
	c.PitchingGames = 3
	c.InningsOuts = 42 // 14 innings
	c.EarnedRuns = 4
	c.Wins = 2
	c.Losses = 1

	d := ComputeDerived(&c)
	if !approx(d.InningsPitched, 14) {
		t.Errorf("inningsPitched = %v, want 14", d.InningsPitched)
	}
	// 4 * 7 / 14
	if !approx(d.ERA, 2) {
		t.Errorf("era = %v, want 2", d.ERA)
	}
	if !approx(d.WinRate, 2.0/3.0) {
		t.Errorf("winRate = %v, want 2/3", d.WinRate)
	}
}

func TestInningsFromOuts(t *testing.T) {
	if got := InningsFromOuts(17); !approx(got, 17.0/3.0) {
		t.Errorf("InningsFromOuts(17) = %v", got)
	}
	if got := InningsFromOuts(0); got != 0 {
		t.Errorf("InningsFromOuts(0) = %v", got)
	}
}

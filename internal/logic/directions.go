package logic

import "github.com/basestats/stats-engine/internal/models"

var (
	infield  = []models.Position{models.PositionFirst, models.PositionSecond, models.PositionThird, models.PositionShortstop}
	outfield = []models.Position{models.PositionLeft, models.PositionCenter, models.PositionRight, models.PositionLeftCenter, models.PositionRightCenter}
	battery  = []models.Position{models.PositionPitcher, models.PositionCatcher}
	anywhere = concat(battery, infield, outfield)
)

// legalDirections is the fixed table of result/position pairs that count
// toward direction counters. Pairs outside it are dropped.
var legalDirections = map[models.AtBatResult]map[models.Position]bool{
	models.ResultSingle:         positionSet(anywhere...),
	models.ResultDouble:         positionSet(concat(outfield, []models.Position{models.PositionFirst, models.PositionThird})...),
	models.ResultTriple:         positionSet(concat(outfield, []models.Position{models.PositionFirst, models.PositionThird})...),
	models.ResultHomeRun:        positionSet(outfield...),
	models.ResultGroundOut:      positionSet(concat(battery, infield)...),
	models.ResultFlyOut:         positionSet(anywhere...),
	models.ResultLineOut:        positionSet(anywhere...),
	models.ResultFoulFlyOut:     positionSet(models.PositionCatcher, models.PositionFirst, models.PositionThird, models.PositionLeft, models.PositionRight),
	models.ResultDoublePlay:     positionSet(concat(battery, infield)...),
	models.ResultFieldersChoice: positionSet(concat(battery, infield)...),
	models.ResultReachedOnError: positionSet(anywhere...),
	models.ResultSacrificeFly:   positionSet(outfield...),
	models.ResultBunt:           positionSet(concat(battery, []models.Position{models.PositionFirst, models.PositionSecond, models.PositionThird})...),
}

// legalDirection reports whether pos may be recorded for result.
func legalDirection(result models.AtBatResult, pos models.Position) bool {
	return legalDirections[result][pos]
}

func positionSet(ps ...models.Position) map[models.Position]bool {
	m := make(map[models.Position]bool, len(ps))
	for _, p := range ps {
		m[p] = true
	}
	return m
}

func concat(groups ...[]models.Position) []models.Position {
	var out []models.Position
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

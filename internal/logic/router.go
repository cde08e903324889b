package logic

import (
	"fmt"
	"time"

	"github.com/basestats/stats-engine/internal/models"
)

// RouteCategories returns the six category keys a game dated date of type gt
// contributes to. Game types outside the known set are routed as unknown.
// Users and teams share the same key set; kind only guards against routing
// games into roll-up documents.
func RouteCategories(date time.Time, gt models.GameType, kind models.SubjectKind) []models.CategoryKey {
	if kind == models.SubjectTeamRollup {
		return nil
	}
	gt = models.ParseGameType(string(gt))
	year, month := date.Year(), int(date.Month())
	return []models.CategoryKey{
		models.AllTimeKey(),
		models.YearMonthKey(year, month),
		models.YearKey(year),
		models.YearMonthTypeKey(year, month, gt),
		models.YearTypeKey(year, gt),
		models.TypeKey(gt),
	}
}

// RouteGame parses the record's date and routes it.
func RouteGame(rec *models.GameRecord) ([]models.CategoryKey, time.Time, error) {
	date, err := rec.PlayedOn()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", models.ErrInvalidGameRecord, err)
	}
	return RouteCategories(date, rec.GameType, rec.Subject.Kind), date, nil
}

// CurrentPeriodCategories lists the categories a periodic job refreshes for
// the period containing now.
func CurrentPeriodCategories(now time.Time) []models.CategoryKey {
	year, month := now.Year(), int(now.Month())
	keys := []models.CategoryKey{
		models.AllTimeKey(),
		models.YearMonthKey(year, month),
		models.YearKey(year),
	}
	for _, gt := range models.GameTypes {
		keys = append(keys,
			models.YearMonthTypeKey(year, month, gt),
			models.YearTypeKey(year, gt),
			models.TypeKey(gt),
		)
	}
	return keys
}

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SubjectKind tells users and teams apart.
type SubjectKind string

const (
	SubjectUser SubjectKind = "user"
	SubjectTeam SubjectKind = "team"
	// SubjectTeamRollup holds the member roll-up of a team. It is rebuilt from
	// member snapshots and never receives games directly.
	SubjectTeamRollup SubjectKind = "team_rollup"
)

// Subject identifies whose statistics a document holds.
type Subject struct {
	Kind SubjectKind `json:"kind" validate:"required,oneof=user team"`
	ID   string      `json:"id" validate:"required"`
}

func (s Subject) String() string {
	return string(s.Kind) + ":" + s.ID
}

// ParseSubjectKind validates a kind taken from a URL or flag.
func ParseSubjectKind(s string) (SubjectKind, error) {
	switch SubjectKind(s) {
	case SubjectUser, SubjectTeam, SubjectTeamRollup:
		return SubjectKind(s), nil
	}
	return "", fmt.Errorf("unknown subject kind %q", s)
}

// CategoryScope selects which dimensions a CategoryKey is scoped by.
type CategoryScope int

const (
	ScopeAllTime CategoryScope = iota
	ScopeYearMonth
	ScopeYear
	ScopeYearMonthType
	ScopeYearType
	ScopeType
)

const (
	allTimeLabel = "all"
	allSuffix    = "all"
)

// CategoryKey identifies one aggregation bucket. Construct it with the helper
// functions below rather than by hand.
type CategoryKey struct {
	Scope    CategoryScope
	Year     int
	Month    int
	GameType GameType
}

func AllTimeKey() CategoryKey { return CategoryKey{Scope: ScopeAllTime} }

func YearMonthKey(year, month int) CategoryKey {
	return CategoryKey{Scope: ScopeYearMonth, Year: year, Month: month}
}

func YearKey(year int) CategoryKey { return CategoryKey{Scope: ScopeYear, Year: year} }

func YearMonthTypeKey(year, month int, gt GameType) CategoryKey {
	return CategoryKey{Scope: ScopeYearMonthType, Year: year, Month: month, GameType: gt}
}

func YearTypeKey(year int, gt GameType) CategoryKey {
	return CategoryKey{Scope: ScopeYearType, Year: year, GameType: gt}
}

func TypeKey(gt GameType) CategoryKey { return CategoryKey{Scope: ScopeType, GameType: gt} }

// String renders the stored form, e.g. "2024_6_official" or "official_all".
func (k CategoryKey) String() string {
	switch k.Scope {
	case ScopeAllTime:
		return allTimeLabel
	case ScopeYearMonth:
		return fmt.Sprintf("%d_%d", k.Year, k.Month)
	case ScopeYear:
		return fmt.Sprintf("%d_%s", k.Year, allSuffix)
	case ScopeYearMonthType:
		return fmt.Sprintf("%d_%d_%s", k.Year, k.Month, k.GameType)
	case ScopeYearType:
		return fmt.Sprintf("%d_%s_%s", k.Year, k.GameType, allSuffix)
	case ScopeType:
		return fmt.Sprintf("%s_%s", k.GameType, allSuffix)
	}
	return ""
}

// ParseCategoryKey is the inverse of String.
func ParseCategoryKey(s string) (CategoryKey, error) {
	if s == allTimeLabel {
		return AllTimeKey(), nil
	}
	parts := strings.Split(s, "_")
	bad := fmt.Errorf("invalid category key %q", s)

	switch len(parts) {
	case 2:
		if parts[1] == allSuffix {
			if year, err := strconv.Atoi(parts[0]); err == nil {
				return validKey(YearKey(year), bad)
			}
			if gt, ok := gameTypeOf(parts[0]); ok {
				return TypeKey(gt), nil
			}
			return CategoryKey{}, bad
		}
		year, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return CategoryKey{}, bad
		}
		return validKey(YearMonthKey(year, month), bad)
	case 3:
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return CategoryKey{}, bad
		}
		if parts[2] == allSuffix {
			gt, ok := gameTypeOf(parts[1])
			if !ok {
				return CategoryKey{}, bad
			}
			return validKey(YearTypeKey(year, gt), bad)
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil {
			return CategoryKey{}, bad
		}
		gt, ok := gameTypeOf(parts[2])
		if !ok {
			return CategoryKey{}, bad
		}
		return validKey(YearMonthTypeKey(year, month, gt), bad)
	}
	return CategoryKey{}, bad
}

func validKey(k CategoryKey, bad error) (CategoryKey, error) {
	if k.Year < 1900 || k.Year > 9999 {
		return CategoryKey{}, bad
	}
	if (k.Scope == ScopeYearMonth || k.Scope == ScopeYearMonthType) && (k.Month < 1 || k.Month > 12) {
		return CategoryKey{}, bad
	}
	return k, nil
}

func gameTypeOf(s string) (GameType, bool) {
	for _, gt := range GameTypes {
		if string(gt) == s {
			return gt, true
		}
	}
	return "", false
}

// MarshalText lets CategoryKey serve as a JSON value and map key.
func (k CategoryKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *CategoryKey) UnmarshalText(b []byte) error {
	parsed, err := ParseCategoryKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

package models

import (
	"encoding/json"
	"testing"
)

func TestCategoryKeyRoundTrip(t *testing.T) {
	keys := []CategoryKey{
		AllTimeKey(),
		YearMonthKey(2024, 6),
		YearKey(2024),
		YearMonthTypeKey(2024, 6, GameTypeOfficial),
		YearTypeKey(2024, GameTypePractice),
		TypeKey(GameTypeUnknown),
	}
	want := []string{"all", "2024_6", "2024_all", "2024_6_official", "2024_practice_all", "unknown_all"}

	for i, k := range keys {
		if got := k.String(); got != want[i] {
			t.Errorf("String() = %q, want %q", got, want[i])
		}
		parsed, err := ParseCategoryKey(want[i])
		if err != nil {
			t.Errorf("ParseCategoryKey(%q): %v", want[i], err)
			continue
		}
		if parsed != k {
			t.Errorf("ParseCategoryKey(%q) = %+v, want %+v", want[i], parsed, k)
		}
	}
}

func TestParseCategoryKeyRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"ALL",
		"2024",
		"2024_13",
		"2024_0_official",
		"2024_6_league",
		"league_all",
		"abc_6",
		"24_all",
		"2024_official_some",
		"2024_6_official_all",
	} {
		if _, err := ParseCategoryKey(s); err == nil {
			t.Errorf("ParseCategoryKey(%q) accepted", s)
		}
	}
}

func TestCategoryKeyJSON(t *testing.T) {
	in := map[CategoryKey]int{YearKey(2023): 1, TypeKey(GameTypeOfficial): 2}
	body, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out map[CategoryKey]int
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[YearKey(2023)] != 1 || out[TypeKey(GameTypeOfficial)] != 2 {
		t.Errorf("round trip = %v", out)
	}

	var k CategoryKey
	if err := json.Unmarshal([]byte(`"2024_99"`), &k); err == nil {
		t.Error("invalid key decoded without error")
	}
}

func TestSubjectPrefixAndRefs(t *testing.T) {
	u := Subject{Kind: SubjectUser, ID: "u1"}
	ref := SnapshotRef(u, YearMonthKey(2024, 6))
	if ref.Collection != CollectionSnapshots || ref.ID != "2024_6/user/u1" {
		t.Errorf("SnapshotRef = %s", ref)
	}
	prefix := SubjectPrefix(YearMonthKey(2024, 6), SubjectUser)
	if got := SubjectIDFromRef(ref.ID, prefix); got != "u1" {
		t.Errorf("SubjectIDFromRef = %q", got)
	}
	if _, err := ParseSubjectKind("coach"); err == nil {
		t.Error("unknown subject kind accepted")
	}
}

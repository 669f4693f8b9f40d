package data

import (
	"testing"
	"time"

	"github.com/codearena/judge/internal/domain"
)

func TestCatalogProblemsParse(t *testing.T) {
	problems := CatalogProblems()
	if len(problems) == 0 {
		t.Fatal("embedded catalog has no problems")
	}

	byID := map[string]domain.Problem{}
	for _, p := range problems {
		byID[p.ID] = p
		if !p.Difficulty.Valid() {
			t.Fatalf("problem %s has difficulty %q", p.ID, p.Difficulty)
		}
		if len(p.TestCases) == 0 {
			t.Fatalf("problem %s has no test cases", p.ID)
		}
	}

	twoSum, ok := byID["cp-1"]
	if !ok {
		t.Fatal("cp-1 missing from catalog")
	}
	if twoSum.Difficulty != domain.DifficultyEasy {
		t.Fatalf("cp-1 difficulty = %s", twoSum.Difficulty)
	}

	hidden := 0
	for _, tc := range twoSum.TestCases {
		if tc.IsHidden {
			hidden++
		}
	}
	if hidden == 0 {
		t.Fatal("cp-1 has no hidden cases; submit would equal run")
	}
	if len(twoSum.VisibleTestCases()) != len(twoSum.TestCases)-hidden {
		t.Fatal("VisibleTestCases does not exclude hidden cases")
	}
}

func TestCatalogContestsAnchorToNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	contests := CatalogContests(now)
	if len(contests) == 0 {
		t.Fatal("embedded catalog has no contests")
	}

	for _, c := range contests {
		wantEnd := c.StartTime.Add(time.Duration(c.DurationMinutes) * time.Minute)
		if !c.EndTime.Equal(wantEnd) {
			t.Fatalf("contest %s window inconsistent: start=%v end=%v duration=%dm",
				c.ID, c.StartTime, c.EndTime, c.DurationMinutes)
		}
		if len(c.ContestProblems) == 0 {
			t.Fatalf("contest %s has no problems", c.ID)
		}
		for i, cp := range c.ContestProblems {
			if cp.Order != i+1 {
				t.Fatalf("contest %s problem %d has order %d", c.ID, i, cp.Order)
			}
		}
	}

	// the same offsets anchored to a different instant shift accordingly
	later := CatalogContests(now.Add(time.Hour))
	if !later[0].StartTime.Equal(contests[0].StartTime.Add(time.Hour)) {
		t.Fatal("contest windows are not anchored to the given instant")
	}
}

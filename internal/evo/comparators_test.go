package evo

import (
	"math"
	"testing"
)

func TestScoreComparatorMaximizing(t *testing.T) {
	cmp := ScoreComparator{}
	hi := newStubGenome("hi", 0, 5)
	lo := newStubGenome("lo", 0, 1)

	if cmp.Compare(hi, lo) >= 0 {
		t.Fatalf("higher score must rank better when maximizing")
	}
	if cmp.Compare(lo, hi) <= 0 {
		t.Fatalf("lower score must rank worse when maximizing")
	}
	if cmp.Compare(hi, newStubGenome("tie", 0, 5)) != 0 {
		t.Fatalf("equal scores must compare equal")
	}
}

func TestScoreComparatorMinimizing(t *testing.T) {
	cmp := ScoreComparator{Minimize: true}
	hi := newStubGenome("hi", 0, 5)
	lo := newStubGenome("lo", 0, 1)

	if cmp.Compare(lo, hi) >= 0 {
		t.Fatalf("lower score must rank better when minimizing")
	}
}

func TestScoreComparatorUnscoredRanksLast(t *testing.T) {
	cmp := ScoreComparator{}
	scored := newStubGenome("scored", 0, -100)
	unscored := newStubGenome("unscored", 0, math.NaN())

	if cmp.Compare(scored, unscored) >= 0 {
		t.Fatalf("any scored genome must outrank an unscored one")
	}
	if cmp.Compare(unscored, scored) <= 0 {
		t.Fatalf("unscored genome must rank behind a scored one")
	}
	if cmp.Compare(unscored, newStubGenome("also", 0, math.Inf(1))) != 0 {
		t.Fatalf("two unscored genomes compare equal")
	}
}

func TestSortGenomesForSpeciesBreaksTiesTowardYounger(t *testing.T) {
	old := newStubGenome("old", 0, 5)
	old.birth = 1
	young := newStubGenome("young", 0, 5)
	young.birth = 7
	worse := newStubGenome("worse", 0, 2)
	worse.birth = 9

	members := []Genome{worse, old, young}
	SortGenomesForSpecies{Comparator: ScoreComparator{}}.Sort(members)

	want := []string{"young", "old", "worse"}
	for i, id := range want {
		if members[i].ID() != id {
			t.Fatalf("position %d: got %s, want %s", i, members[i].ID(), id)
		}
	}
}

func TestSortSpeciesByQualityOrdersLeadersBestFirst(t *testing.T) {
	spLow := NewSpecies(newStubGenome("low", 0, 1))
	spHigh := NewSpecies(newStubGenome("high", 0, 9))
	spMid := NewSpecies(newStubGenome("mid", 0, 5))

	roster := []*Species{spLow, spHigh, spMid}
	sortSpeciesByQuality(roster, ScoreComparator{})

	if roster[0] != spHigh || roster[1] != spMid || roster[2] != spLow {
		t.Fatalf("roster not ordered best first")
	}
}

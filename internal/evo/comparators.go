package evo

import "sort"

// SortGenomesForSpecies orders a species' members best first, so the
// external selection step can truncate from the front. Ties on rank
// break toward younger genomes.
type SortGenomesForSpecies struct {
	Comparator GenomeComparator
}

func (o SortGenomesForSpecies) Sort(members []Genome) {
	sort.SliceStable(members, func(i, j int) bool {
		if c := o.Comparator.Compare(members[i], members[j]); c != 0 {
			return c < 0
		}
		return members[i].BirthGeneration() > members[j].BirthGeneration()
	})
}

// sortSpeciesByQuality orders a roster best species first, judged by
// comparing leaders with the run's selection comparator.
func sortSpeciesByQuality(roster []*Species, cmp GenomeComparator) {
	sort.SliceStable(roster, func(i, j int) bool {
		return cmp.Compare(roster[i].Leader, roster[j].Leader) < 0
	})
}

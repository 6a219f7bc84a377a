package evo

import (
	"fmt"
	"math"
)

const (
	DefaultCompatibilityThreshold = 1.0
	DefaultMaxSpecies             = 40
	DefaultMaxStagnantGenerations = 15
	DefaultThresholdStep          = 0.01
	DefaultMinThreshold           = 0.01

	// Total shares below this are treated as zero and trigger even
	// allocation instead of a divide-by-nothing.
	scoreEpsilon = 1e-10
)

// SpeciationStats captures per-generation partitioning diagnostics.
type SpeciationStats struct {
	SpeciesCount       int
	CreatedSpecies     int
	RemovedSpecies     int
	Threshold          float64
	MaxScore           float64
	TotalShare         float64
	EvenAllocation     bool
	MeanSpeciesSize    float64
	LargestSpeciesSize int
}

// ThresholdSpeciation partitions each generation's genomes into the
// population's species by first-fit compatibility against species
// leaders, then converts relative species fitness into integer
// offspring counts that sum exactly to the population target.
//
// The threshold self-adjusts by ThresholdStep each generation: up when
// the roster exceeds MaxSpecies, down when it shrinks below two
// species, never below MinThreshold. MaxSpecies < 1 disables the
// adjustment entirely.
type ThresholdSpeciation struct {
	CompatibilityThreshold float64
	MaxSpecies             int
	MaxStagnantGenerations int
	ThresholdStep          float64
	MinThreshold           float64

	Metric CompatibilityMetric
	Share  ShareFunc

	owner         RunContext
	population    *Population
	ordering      SortGenomesForSpecies
	bestSpecies   *Species
	removed       int
	baseThreshold float64
	initialized   bool
}

func NewThresholdSpeciation(metric CompatibilityMetric) *ThresholdSpeciation {
	return &ThresholdSpeciation{
		CompatibilityThreshold: DefaultCompatibilityThreshold,
		MaxSpecies:             DefaultMaxSpecies,
		MaxStagnantGenerations: DefaultMaxStagnantGenerations,
		ThresholdStep:          DefaultThresholdStep,
		MinThreshold:           DefaultMinThreshold,
		Metric:                 metric,
		Share:                  MeanAdjustedShare,
	}
}

// Init binds the engine to an evolutionary run. It must be called
// before the first PerformSpeciation; calling it again rebinds the
// engine and discards accumulated threshold drift.
func (s *ThresholdSpeciation) Init(owner RunContext) error {
	if owner == nil {
		return fmt.Errorf("run context is required")
	}
	if owner.Population() == nil {
		return fmt.Errorf("run context population is required")
	}
	if owner.SelectionComparator() == nil {
		return fmt.Errorf("run context selection comparator is required")
	}
	if s.Metric == nil {
		return fmt.Errorf("compatibility metric is required")
	}
	if s.Share == nil {
		s.Share = MeanAdjustedShare
	}

	if s.initialized {
		s.CompatibilityThreshold = s.baseThreshold
	} else {
		s.baseThreshold = s.CompatibilityThreshold
		s.initialized = true
	}

	s.owner = owner
	s.population = owner.Population()
	s.ordering = SortGenomesForSpecies{Comparator: owner.SelectionComparator()}
	s.bestSpecies = nil
	return nil
}

// PerformSpeciation runs one generation of speciation over the new
// generation's genomes. On success every species carries a valid
// offspring count, the counts sum exactly to the population target,
// and every input genome belongs to exactly one surviving species.
func (s *ThresholdSpeciation) PerformSpeciation(genomes []Genome) (SpeciationStats, error) {
	if !s.initialized {
		return SpeciationStats{}, fmt.Errorf("%w: engine is not initialized", ErrSpeciation)
	}
	if len(genomes) == 0 {
		return SpeciationStats{}, fmt.Errorf("%w: genome list is empty", ErrSpeciation)
	}

	s.removed = 0
	s.resolveBestSpecies()
	pool := s.resetSpecies(genomes)
	return s.speciateAndAllocate(pool)
}

// resolveBestSpecies pins the protected species for this call. The
// primary definition is the species of the run's best genome; when
// that genome carries no surviving species, protection falls back to
// the best leader on the roster per the selection comparator.
func (s *ThresholdSpeciation) resolveBestSpecies() {
	s.bestSpecies = nil
	if best := s.owner.BestGenome(); best != nil {
		if sp := best.Species(); sp != nil && s.population.Contains(sp) {
			s.bestSpecies = sp
			return
		}
	}
	cmp := s.owner.SelectionComparator()
	for _, sp := range s.population.Species {
		if sp.Leader == nil {
			continue
		}
		if s.bestSpecies == nil || cmp.Compare(sp.Leader, s.bestSpecies.Leader) < 0 {
			s.bestSpecies = sp
		}
	}
}

// resetSpecies purges every species for reassignment, evicts species
// whose lineage died or stagnated out, and returns the pool of genomes
// still needing assignment. Each surviving species' leader is already
// a member of its own species and is excluded from the pool.
func (s *ThresholdSpeciation) resetSpecies(genomes []Genome) []Genome {
	pool := make([]Genome, len(genomes))
	copy(pool, genomes)

	present := make(map[string]struct{}, len(genomes))
	for _, g := range genomes {
		present[g.ID()] = struct{}{}
	}

	roster := append([]*Species(nil), s.population.Species...)
	for _, sp := range roster {
		sp.Purge()
		_, leaderAlive := present[sp.Leader.ID()]
		if !leaderAlive || sp.GensNoImprovement > s.MaxStagnantGenerations {
			s.removeSpecies(sp)
		}
		if s.population.Contains(sp) {
			pool = removeGenome(pool, sp.Leader)
		}
	}
	return pool
}

// removeSpecies evicts a species unless it is protected: the species
// holding the run's best genome and the last remaining species never
// leave the roster.
func (s *ThresholdSpeciation) removeSpecies(sp *Species) {
	if sp == s.bestSpecies {
		return
	}
	if len(s.population.Species) <= 1 {
		return
	}
	if s.population.Remove(sp) {
		s.removed++
	}
}

func (s *ThresholdSpeciation) speciateAndAllocate(pool []Genome) (SpeciationStats, error) {
	if len(s.population.Species) == 0 {
		return SpeciationStats{}, fmt.Errorf("%w: no species survived the generation reset", ErrSpeciation)
	}
	s.adjustThreshold()

	stats := SpeciationStats{}
	maxScore := 0.0
	for _, g := range pool {
		if score := g.AdjustedScore(); IsValidScore(score) && score > maxScore {
			maxScore = score
		}

		assigned := false
		for _, sp := range s.population.Species {
			// first fit in roster order, not best fit: the scan order
			// decides which species absorbs borderline genomes
			if s.Metric.Distance(g, sp.Leader) <= s.CompatibilityThreshold {
				if err := s.addMember(sp, g); err != nil {
					return stats, err
				}
				assigned = true
				break
			}
		}
		if !assigned {
			s.population.Append(NewSpecies(g))
			stats.CreatedSpecies++
		}
	}

	minimize := s.owner.ShouldMinimize()
	totalShare := 0.0
	for _, sp := range s.population.Species {
		totalShare += s.Share(sp, minimize, maxScore)
	}

	if totalShare < scoreEpsilon {
		stats.EvenAllocation = true
		even := int(math.Round(float64(s.population.TargetSize) / float64(len(s.population.Species))))
		for _, sp := range s.population.Species {
			sp.OffspringCount = even
			s.ordering.Sort(sp.Members)
		}
	} else {
		roster := append([]*Species(nil), s.population.Species...)
		for _, sp := range roster {
			count := int(math.Round(float64(s.population.TargetSize) * sp.OffspringShare / totalShare))
			if sp == s.bestSpecies && count == 0 {
				count = 1
			}
			switch {
			case len(sp.Members) == 0 || count == 0:
				s.removeSpecies(sp)
			case sp.GensNoImprovement > s.MaxStagnantGenerations && sp != s.bestSpecies:
				s.removeSpecies(sp)
			default:
				sp.OffspringCount = count
				s.ordering.Sort(sp.Members)
			}
		}
	}

	if err := s.levelOff(); err != nil {
		return stats, err
	}

	stats.SpeciesCount = len(s.population.Species)
	stats.RemovedSpecies = s.removed
	stats.Threshold = s.CompatibilityThreshold
	stats.MaxScore = maxScore
	stats.TotalShare = totalShare
	totalMembers := 0
	for _, sp := range s.population.Species {
		totalMembers += len(sp.Members)
		if len(sp.Members) > stats.LargestSpeciesSize {
			stats.LargestSpeciesSize = len(sp.Members)
		}
	}
	stats.MeanSpeciesSize = float64(totalMembers) / float64(len(s.population.Species))
	return stats, nil
}

// addMember joins a genome to a compatible species, promoting it to
// leader when it out-ranks the current one.
func (s *ThresholdSpeciation) addMember(sp *Species, g Genome) error {
	if s.owner.ValidationMode() && sp.Contains(g) {
		return fmt.Errorf("%w: species already contains genome %s", ErrSpeciation, g.ID())
	}
	if s.owner.SelectionComparator().Compare(g, sp.Leader) < 0 {
		sp.BestScore = g.AdjustedScore()
		sp.GensNoImprovement = 0
		sp.Leader = g
	}
	sp.Members = append(sp.Members, g)
	g.SetSpecies(sp)
	return nil
}

func (s *ThresholdSpeciation) adjustThreshold() {
	if s.MaxSpecies < 1 {
		return
	}
	switch {
	case len(s.population.Species) > s.MaxSpecies:
		s.CompatibilityThreshold += s.ThresholdStep
	case len(s.population.Species) < 2:
		s.CompatibilityThreshold -= s.ThresholdStep
	}
	if s.CompatibilityThreshold < s.MinThreshold {
		s.CompatibilityThreshold = s.MinThreshold
	}
}

// levelOff corrects rounding error so offspring counts sum exactly to
// the population target. Over-allocation is clawed back from the worst
// species upward, removing any species driven to zero; under-allocation
// goes entirely to the best species. Sorting here intentionally
// reorders the roster best first for the next generation.
func (s *ThresholdSpeciation) levelOff() error {
	roster := s.population.Species
	if len(roster) == 0 {
		return fmt.Errorf("%w: no species left to receive offspring", ErrSpeciation)
	}
	sortSpeciesByQuality(roster, s.owner.SelectionComparator())

	if roster[0].OffspringCount == 0 {
		roster[0].OffspringCount = 1
	}

	total := 0
	for _, sp := range roster {
		total += sp.OffspringCount
	}
	diff := s.population.TargetSize - total
	if diff < 0 {
		for idx := len(roster) - 1; diff != 0 && idx > 0; idx-- {
			sp := roster[idx]
			take := min(sp.OffspringCount, -diff)
			sp.OffspringCount -= take
			diff += take
			if sp.OffspringCount == 0 {
				roster = append(roster[:idx], roster[idx+1:]...)
				s.removed++
			}
		}
	} else if diff > 0 {
		roster[0].OffspringCount += diff
	}
	s.population.Species = roster
	return nil
}

func removeGenome(pool []Genome, g Genome) []Genome {
	for i, candidate := range pool {
		if candidate.ID() == g.ID() {
			return append(pool[:i], pool[i+1:]...)
		}
	}
	return pool
}

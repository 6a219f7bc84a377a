package evo

// SpeciesState describes where a species sits in its lifecycle.
type SpeciesState string

const (
	// StateForming marks a species created this generation.
	StateForming SpeciesState = "forming"
	// StateActive marks a species that has survived at least one
	// generation and is still improving within the stagnation limit.
	StateActive SpeciesState = "active"
	// StateStagnant marks a species past the improvement limit; it is
	// removable unless protected.
	StateStagnant SpeciesState = "stagnant"
)

// Species is a cluster of mutually compatible genomes with one
// designated leader. The leader is the reference point for
// compatibility tests and is always present in Members exactly once.
type Species struct {
	Leader  Genome
	Members []Genome

	// BestScore is the best adjusted score achieved by the leader
	// lineage; GensNoImprovement counts generations since it was last
	// reset by a leader promotion.
	BestScore         float64
	GensNoImprovement int
	Age               int

	// OffspringShare is the normalized fitness contribution computed
	// for the current generation; OffspringCount is the integer
	// reproduction budget derived from it. Both are recomputed every
	// generation.
	OffspringShare float64
	OffspringCount int
}

// NewSpecies creates a species around its founding genome, which
// becomes leader and sole member.
func NewSpecies(leader Genome) *Species {
	s := &Species{
		Leader:    leader,
		Members:   []Genome{leader},
		BestScore: leader.AdjustedScore(),
	}
	leader.SetSpecies(s)
	return s
}

// Purge detaches all members for reassignment, keeping the leader as
// the sole pre-assigned member, and advances the age and stagnation
// counters.
func (s *Species) Purge() {
	s.Members = s.Members[:0]
	if s.Leader != nil {
		s.Members = append(s.Members, s.Leader)
	}
	s.Age++
	s.GensNoImprovement++
}

// Contains reports whether the genome is already a member.
func (s *Species) Contains(g Genome) bool {
	for _, member := range s.Members {
		if member.ID() == g.ID() {
			return true
		}
	}
	return false
}

// State classifies the species against the given stagnation limit.
func (s *Species) State(maxStagnantGenerations int) SpeciesState {
	switch {
	case s.Age == 0:
		return StateForming
	case s.GensNoImprovement > maxStagnantGenerations:
		return StateStagnant
	default:
		return StateActive
	}
}

// ShareFunc converts a species' member scores into its normalized
// fitness contribution for the generation, records it on the species,
// and returns it. maxScore is the best finite adjusted score seen in
// the assignment pool this generation.
type ShareFunc func(s *Species, shouldMinimize bool, maxScore float64) float64

// MeanAdjustedShare is the default share formula: the mean finite
// adjusted score of the members, inverted against maxScore when the
// score function minimizes. Unscored members are skipped; a species
// with no scored members contributes zero.
func MeanAdjustedShare(s *Species, shouldMinimize bool, maxScore float64) float64 {
	total := 0.0
	count := 0
	for _, member := range s.Members {
		score := member.AdjustedScore()
		if !IsValidScore(score) {
			continue
		}
		if shouldMinimize {
			score = maxScore - score
		}
		total += score
		count++
	}
	if count == 0 {
		s.OffspringShare = 0
	} else {
		s.OffspringShare = total / float64(count)
	}
	return s.OffspringShare
}

package evo

import "math"

// Genome is one candidate solution, owned by the surrounding
// evolutionary loop. The engine references genomes; it never copies or
// destroys them. Identity is carried by ID.
type Genome interface {
	ID() string
	// AdjustedScore returns the genome's adjusted fitness. NaN or an
	// infinity means the genome is unscored.
	AdjustedScore() float64
	BirthGeneration() int
	Species() *Species
	SetSpecies(*Species)
}

// GenomeComparator ranks two genomes: a negative result means a ranks
// better than b, positive means worse, zero means equivalent.
type GenomeComparator interface {
	Compare(a, b Genome) int
}

// CompatibilityMetric measures how alike two genomes are; lower is
// more compatible. Symmetry is not required by the contract, but an
// asymmetric metric makes species membership drift with leader churn.
type CompatibilityMetric interface {
	Distance(a, b Genome) float64
}

// MetricFunc adapts a plain function to a CompatibilityMetric.
type MetricFunc func(a, b Genome) float64

func (f MetricFunc) Distance(a, b Genome) float64 {
	return f(a, b)
}

// RunContext binds the engine to one evolutionary run. The engine has
// exclusive mutation access to the population's roster for the
// duration of each PerformSpeciation call.
type RunContext interface {
	Population() *Population
	BestGenome() Genome
	SelectionComparator() GenomeComparator
	ShouldMinimize() bool
	// ValidationMode enables strict integrity checks, such as refusing
	// duplicate membership within a species.
	ValidationMode() bool
}

// ScoreComparator ranks genomes by adjusted score. Unscored genomes
// rank behind every scored genome.
type ScoreComparator struct {
	Minimize bool
}

func (c ScoreComparator) Compare(a, b Genome) int {
	sa, sb := a.AdjustedScore(), b.AdjustedScore()
	va, vb := IsValidScore(sa), IsValidScore(sb)
	switch {
	case !va && !vb:
		return 0
	case !va:
		return 1
	case !vb:
		return -1
	}
	if sa == sb {
		return 0
	}
	better := sa > sb
	if c.Minimize {
		better = sa < sb
	}
	if better {
		return -1
	}
	return 1
}

// IsValidScore reports whether s is a usable adjusted score.
func IsValidScore(s float64) bool {
	return !math.IsNaN(s) && !math.IsInf(s, 0)
}

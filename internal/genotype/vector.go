// Package genotype provides a real-vector genome and its compatibility
// metric. It is the concrete collaborator the speciation engine is
// exercised with; the engine itself only ever sees the evo interfaces.
package genotype

import (
	"fmt"
	"math"
	"math/rand"

	"speciator/internal/evo"
)

// VectorGenome is a candidate solution encoded as a point in R^n.
type VectorGenome struct {
	id      string
	Values  []float64
	score   float64
	birth   int
	species *evo.Species
}

// NewVectorGenome creates an unscored genome.
func NewVectorGenome(id string, birth int, values []float64) *VectorGenome {
	return &VectorGenome{
		id:     id,
		Values: append([]float64(nil), values...),
		score:  math.NaN(),
		birth:  birth,
	}
}

func (g *VectorGenome) ID() string                 { return g.id }
func (g *VectorGenome) AdjustedScore() float64     { return g.score }
func (g *VectorGenome) BirthGeneration() int       { return g.birth }
func (g *VectorGenome) Species() *evo.Species      { return g.species }
func (g *VectorGenome) SetSpecies(s *evo.Species)  { g.species = s }
func (g *VectorGenome) SetAdjustedScore(s float64) { g.score = s }

// Clone copies the genome under a new identity and birth generation.
// The clone starts unscored and carries no species reference.
func (g *VectorGenome) Clone(id string, birth int) *VectorGenome {
	return NewVectorGenome(id, birth, g.Values)
}

// Mutate perturbs every coordinate with Gaussian noise of the given
// deviation.
func (g *VectorGenome) Mutate(rng *rand.Rand, sigma float64) {
	for i := range g.Values {
		g.Values[i] += rng.NormFloat64() * sigma
	}
}

// RandomVectorGenome draws a genome uniformly from [-bound, bound]^dim.
func RandomVectorGenome(id string, dim int, bound float64, rng *rand.Rand) *VectorGenome {
	values := make([]float64, dim)
	for i := range values {
		values[i] = (rng.Float64()*2 - 1) * bound
	}
	return NewVectorGenome(id, 0, values)
}

// EuclideanMetric measures compatibility as the Euclidean distance
// between two vector genomes. Genomes of mismatched dimension are
// maximally incompatible.
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b evo.Genome) float64 {
	va, okA := a.(*VectorGenome)
	vb, okB := b.(*VectorGenome)
	if !okA || !okB || len(va.Values) != len(vb.Values) {
		return math.Inf(1)
	}
	total := 0.0
	for i := range va.Values {
		d := va.Values[i] - vb.Values[i]
		total += d * d
	}
	return math.Sqrt(total)
}

// Sphere is the evaluation used by the demo runs: sum of squared
// coordinates, minimized at the origin.
func Sphere(g *VectorGenome) float64 {
	total := 0.0
	for _, v := range g.Values {
		total += v * v
	}
	return total
}

// ChildID derives a deterministic identity for offspring: the run,
// the birth generation, and the genome's index within it.
func ChildID(runID string, generation, index int) string {
	return fmt.Sprintf("%s-g%d-i%d", runID, generation, index)
}

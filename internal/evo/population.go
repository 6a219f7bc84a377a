package evo

// Population holds the mutable species roster and the fixed
// reproduction target. The roster preserves insertion order; the
// engine's first-fit compatibility scan depends on it, so callers must
// not reorder it between generations.
type Population struct {
	Species    []*Species
	TargetSize int
}

func NewPopulation(targetSize int) *Population {
	return &Population{TargetSize: targetSize}
}

// Append adds a species at the end of the roster.
func (p *Population) Append(s *Species) {
	p.Species = append(p.Species, s)
}

// Remove evicts a species, preserving the order of the rest. It
// reports whether the species was present.
func (p *Population) Remove(s *Species) bool {
	for i, candidate := range p.Species {
		if candidate == s {
			p.Species = append(p.Species[:i], p.Species[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the species is on the roster.
func (p *Population) Contains(s *Species) bool {
	for _, candidate := range p.Species {
		if candidate == s {
			return true
		}
	}
	return false
}

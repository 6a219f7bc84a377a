package evo

import "errors"

// ErrSpeciation marks fatal speciation failures. These abort the
// generation: the engine cannot degrade from them without corrupting
// the reproduction budget.
var ErrSpeciation = errors.New("speciation failed")

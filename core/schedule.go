package core

import "github.com/kestrel-rl/kestrel/util"

// EpsilonSchedule is the multiplicative-decay exploration schedule of
// the value-greedy family. The rate starts at 1 and is clamped to the
// configured floor on every decay.
type EpsilonSchedule struct {
	rate  float64
	min   float64
	decay float64
}

func NewEpsilonSchedule(min, decay float64) *EpsilonSchedule {
	return &EpsilonSchedule{rate: 1, min: min, decay: decay}
}

// Decay applies one decay step and returns the clamped rate.
func (e *EpsilonSchedule) Decay() float64 {
	e.rate = util.MaxFloat(e.rate*e.decay, e.min)
	return e.rate
}

// Rate is the current exploration rate.
func (e *EpsilonSchedule) Rate() float64 {
	return e.rate
}

// Package policies implements the trainable algorithm variants behind
// the uniform agent contract, and the closed registry that resolves
// algorithm identifiers at configuration time.
package policies

import (
	"fmt"
	"sort"

	"github.com/kestrel-rl/kestrel/compute"
	"github.com/kestrel-rl/kestrel/core"
)

// Constructor builds a variant for the given dimensions and flat
// hyperparameters. actionDim is the number of discrete actions for
// value-based variants and the action dimensionality otherwise.
type Constructor func(obsDim, actionDim int, hp core.Hyperparameters, cctx *compute.Context, seed uint64) (core.Agent, error)

// Entry pairs a variant constructor with its family tag. The family
// decides the action-selection and training-cadence pair the trainer
// binds, once, at construction.
type Entry struct {
	Family core.Family
	New    Constructor
}

var registry = map[string]Entry{
	"DQN": {
		Family: core.FamilyValueGreedy,
		New: func(obs, act int, hp core.Hyperparameters, cctx *compute.Context, seed uint64) (core.Agent, error) {
			return NewDQN(obs, act, hp, cctx, seed)
		},
	},
	"DDPG": {
		Family: core.FamilyOffPolicy,
		New: func(obs, act int, hp core.Hyperparameters, cctx *compute.Context, seed uint64) (core.Agent, error) {
			return NewDDPG(obs, act, hp, cctx, seed)
		},
	},
	"SAC": {
		Family: core.FamilyOffPolicy,
		New: func(obs, act int, hp core.Hyperparameters, cctx *compute.Context, seed uint64) (core.Agent, error) {
			return NewSAC(obs, act, hp, cctx, seed)
		},
	},
}

// Resolve looks an algorithm identifier up in the closed registry.
func Resolve(name string) (Entry, error) {
	entry, ok := registry[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: unknown algorithm %q (known: %v)", core.ErrConfiguration, name, Names())
	}
	return entry, nil
}

// Names lists the registered algorithm identifiers, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package core

// Agent is the uniform contract every trainable policy implements.
type Agent interface {
	// SelectAction picks an action for the given state. With evaluation
	// set, variants that define a deterministic evaluation mode disable
	// stochastic sampling.
	SelectAction(state []float64, evaluation bool) []float64

	// TrainStep runs one gradient update from experiences in memory.
	TrainStep(memory Memory, batchSize int) error

	// Save persists the agent's parameter sets under path, one file per
	// network role named {name}_{role}.
	Save(name, path string) error

	// Load restores previously saved parameter sets. It fails if any
	// expected file is absent.
	Load(name, path string) error
}

// BatchAgent is implemented by variants of the batch-policy family:
// action selection also yields an auxiliary value (a log-probability)
// that is stored alongside the transition, and training consumes the
// full accumulated batch.
type BatchAgent interface {
	Agent

	// SelectActionWithAux returns the action and its auxiliary value.
	SelectActionWithAux(state []float64) (action []float64, aux []float64)
}

// Family identifies the action-selection and training-cadence pairing
// of a variant. It is resolved once at configuration time, never
// re-derived inside the loop.
type Family int

const (
	// FamilyBatchPolicy accumulates transitions with auxiliary values
	// and trains once every MaxStepsPerBatch steps on the full batch.
	FamilyBatchPolicy Family = iota

	// FamilyValueGreedy samples randomly during exploration, then
	// follows a decayed epsilon-greedy schedule over the policy argmax.
	FamilyValueGreedy

	// FamilyOffPolicy samples randomly during exploration, then follows
	// the policy, training G times per step.
	FamilyOffPolicy
)

func (f Family) String() string {
	switch f {
	case FamilyBatchPolicy:
		return "batch-policy"
	case FamilyValueGreedy:
		return "value-greedy"
	case FamilyOffPolicy:
		return "off-policy"
	}
	return "unknown"
}

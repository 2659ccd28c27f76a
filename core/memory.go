package core

// Batch holds sampled transitions as aligned, equal-length slices.
type Batch struct {
	States     [][]float64
	Actions    [][]float64
	Rewards    []float64
	NextStates [][]float64
	Dones      []float64
	Aux        [][]float64
}

// Len is the number of transitions in the batch.
func (b Batch) Len() int {
	return len(b.States)
}

// Memory is the replay store contract. The trainer is the only writer
// and the only reader; implementations need no internal locking.
type Memory interface {
	// AddExperience appends one transition. aux carries optional
	// per-transition values such as a log-probability.
	AddExperience(state, action []float64, reward float64, next []float64, done bool, aux ...float64)

	// SampleExperience draws batchSize transitions uniformly at random.
	SampleExperience(batchSize int) (Batch, error)

	// Size is the number of stored transitions.
	Size() int
}

// BatchMemory extends Memory for the batch-policy family, which drains
// the full accumulated batch at every update.
type BatchMemory interface {
	Memory

	// SampleAll returns every stored transition in insertion order.
	SampleAll() (Batch, error)

	// Clear discards all stored transitions.
	Clear()
}

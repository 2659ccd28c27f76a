package core

// Environment is the simulation contract the trainer drives. Actions
// are float vectors; environments with a discrete action set interpret
// element 0 as the action index.
type Environment interface {
	// Reset starts a new episode and returns the initial observation.
	Reset() ([]float64, error)

	// Step advances the simulation by one action. truncated reports an
	// episode cut short by a step limit rather than a terminal state.
	Step(action []float64) (next []float64, reward float64, done, truncated bool, err error)

	// SampleAction draws a uniformly random action from the action space.
	SampleAction() []float64

	// ObservationSpace is the observation dimensionality.
	ObservationSpace() int

	// ActionNum is the action dimensionality, or the number of discrete
	// actions for environments with a discrete action set.
	ActionNum() int
}

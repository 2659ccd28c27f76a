package core

import "fmt"

// Hyperparameters is the flat per-algorithm key-value object.
type Hyperparameters map[string]float64

// Float returns the value for a required key, or ErrConfiguration.
func (h Hyperparameters) Float(key string) (float64, error) {
	v, ok := h[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing hyperparameter %q", ErrConfiguration, key)
	}
	return v, nil
}

// FloatOr returns the value for key, or def when absent.
func (h Hyperparameters) FloatOr(key string, def float64) float64 {
	if v, ok := h[key]; ok {
		return v
	}
	return def
}

// Int returns the value for a required key as an int.
func (h Hyperparameters) Int(key string) (int, error) {
	v, err := h.Float(key)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// IntOr returns the value for key as an int, or def when absent.
func (h Hyperparameters) IntOr(key string, def int) int {
	if v, ok := h[key]; ok {
		return int(v)
	}
	return def
}

// Config is the flat training configuration.
type Config struct {
	Algorithm   string `json:"algorithm"`
	Platform    string `json:"platform"`
	Environment string `json:"environment"`

	Seed uint64 `json:"seed"`

	TrainingSteps      int `json:"training_steps"`
	ExplorationSteps   int `json:"exploration_steps"`
	BatchSize          int `json:"batch_size"`
	EvaluationInterval int `json:"evaluation_interval"`
	EvaluationEpisodes int `json:"evaluation_episodes"`
	LogInterval        int `json:"log_interval"`

	// G is the number of gradient updates per environment step.
	G int `json:"g"`

	// MaxStepsPerBatch is the update period of the batch-policy family.
	MaxStepsPerBatch int `json:"max_steps_per_batch"`

	Hyperparameters Hyperparameters `json:"hyperparameters"`
}

// Validate checks the configuration before the loop starts.
func (c *Config) Validate() error {
	if c.Algorithm == "" {
		return fmt.Errorf("%w: no algorithm", ErrConfiguration)
	}
	if c.TrainingSteps <= 0 {
		return fmt.Errorf("%w: training steps must be positive, got %d", ErrConfiguration, c.TrainingSteps)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrConfiguration, c.BatchSize)
	}
	if c.EvaluationInterval <= 0 {
		return fmt.Errorf("%w: evaluation interval must be positive, got %d", ErrConfiguration, c.EvaluationInterval)
	}
	if c.EvaluationEpisodes <= 0 {
		return fmt.Errorf("%w: evaluation episodes must be positive, got %d", ErrConfiguration, c.EvaluationEpisodes)
	}
	if c.LogInterval <= 0 {
		return fmt.Errorf("%w: log interval must be positive, got %d", ErrConfiguration, c.LogInterval)
	}
	if c.ExplorationSteps < 0 {
		return fmt.Errorf("%w: exploration steps must not be negative, got %d", ErrConfiguration, c.ExplorationSteps)
	}
	if c.G <= 0 {
		return fmt.Errorf("%w: G must be positive, got %d", ErrConfiguration, c.G)
	}
	return nil
}

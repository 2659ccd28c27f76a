package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-rl/kestrel/core"
)

func TestHyperparameters(t *testing.T) {
	hp := core.Hyperparameters{"gamma": 0.99, "target_update_freq": 200}

	v, err := hp.Float("gamma")
	require.NoError(t, err)
	assert.Equal(t, 0.99, v)

	_, err = hp.Float("tau")
	require.ErrorIs(t, err, core.ErrConfiguration)

	assert.Equal(t, 0.005, hp.FloatOr("tau", 0.005))
	assert.Equal(t, 0.99, hp.FloatOr("gamma", 0.5))

	n, err := hp.Int("target_update_freq")
	require.NoError(t, err)
	assert.Equal(t, 200, n)

	assert.Equal(t, 1, hp.IntOr("policy_update_freq", 1))
}

func TestConfigValidate(t *testing.T) {
	valid := func() *core.Config {
		return &core.Config{
			Algorithm:          "DQN",
			TrainingSteps:      1000,
			ExplorationSteps:   100,
			BatchSize:          32,
			EvaluationInterval: 100,
			EvaluationEpisodes: 5,
			LogInterval:        100,
			G:                  1,
		}
	}
	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(*core.Config)
	}{
		{"no algorithm", func(c *core.Config) { c.Algorithm = "" }},
		{"zero training steps", func(c *core.Config) { c.TrainingSteps = 0 }},
		{"zero batch size", func(c *core.Config) { c.BatchSize = 0 }},
		{"zero evaluation interval", func(c *core.Config) { c.EvaluationInterval = 0 }},
		{"zero evaluation episodes", func(c *core.Config) { c.EvaluationEpisodes = 0 }},
		{"zero log interval", func(c *core.Config) { c.LogInterval = 0 }},
		{"negative exploration", func(c *core.Config) { c.ExplorationSteps = -1 }},
		{"zero updates per step", func(c *core.Config) { c.G = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), core.ErrConfiguration)
		})
	}
}

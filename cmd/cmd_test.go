package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-rl/kestrel/core"
)

func parseFlags(t *testing.T, args ...string) {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	AddFlags(c)
	require.NoError(t, c.ParseFlags(args))
}

func TestBuildConfigDefaults(t *testing.T) {
	parseFlags(t)
	cfg, err := BuildConfig()
	require.NoError(t, err)

	assert.Equal(t, "DQN", cfg.Algorithm)
	assert.Equal(t, "classic", cfg.Platform)
	assert.Equal(t, "CartPole", cfg.Environment)
	assert.Equal(t, uint64(42), cfg.Seed)
	require.NoError(t, cfg.Validate())
}

func TestBuildConfigParsesHyperparameters(t *testing.T) {
	parseFlags(t,
		"--algorithm", "SAC",
		"--environment", "Pendulum",
		"--training-steps", "5000",
		"--hp", "gamma=0.99,tau=0.005,actor_lr=0.0003",
	)
	cfg, err := BuildConfig()
	require.NoError(t, err)

	assert.Equal(t, "SAC", cfg.Algorithm)
	assert.Equal(t, 5000, cfg.TrainingSteps)
	assert.Equal(t, 0.99, cfg.Hyperparameters["gamma"])
	assert.Equal(t, 0.005, cfg.Hyperparameters["tau"])
	assert.Equal(t, 0.0003, cfg.Hyperparameters["actor_lr"])
}

func TestBuildConfigRejectsBadHyperparameter(t *testing.T) {
	parseFlags(t, "--hp", "gamma=fast")
	_, err := BuildConfig()
	require.ErrorIs(t, err, core.ErrConfiguration)
}

func TestRootCommandHasTrainSubcommand(t *testing.T) {
	root := RootCommand()
	sub, _, err := root.Find([]string{"train"})
	require.NoError(t, err)
	assert.Equal(t, "train", sub.Name())
}

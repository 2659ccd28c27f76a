package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kestrel-rl/kestrel/core"
	"github.com/kestrel-rl/kestrel/envs"
)

var (
	savePath    string
	algorithm   string
	platform    string
	environment string
	seed        uint64

	trainingSteps      int
	explorationSteps   int
	batchSize          int
	evaluationInterval int
	evaluationEpisodes int
	logInterval        int
	gValue             int
	maxStepsPerBatch   int
	memoryCapacity     int
	wsAddr             string

	hyperparameters map[string]string
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&savePath, "save-path", "results", "Path to save logs and checkpoints")
	cmd.PersistentFlags().StringVar(&algorithm, "algorithm", "DQN", "Algorithm identifier")
	cmd.PersistentFlags().StringVar(&platform, "platform", envs.PlatformClassic, "Environment platform")
	cmd.PersistentFlags().StringVar(&environment, "environment", "CartPole", "Environment name")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", 42, "Training seed (evaluation uses seed+1)")

	cmd.PersistentFlags().IntVar(&trainingSteps, "training-steps", 100000, "Step budget")
	cmd.PersistentFlags().IntVar(&explorationSteps, "exploration-steps", 1000, "Steps of uniform random exploration")
	cmd.PersistentFlags().IntVar(&batchSize, "batch-size", 32, "Gradient batch size")
	cmd.PersistentFlags().IntVar(&evaluationInterval, "evaluation-interval", 1000, "Steps between evaluations")
	cmd.PersistentFlags().IntVar(&evaluationEpisodes, "evaluation-episodes", 10, "Episodes per evaluation")
	cmd.PersistentFlags().IntVar(&logInterval, "log-interval", 1000, "Steps between checkpoints")
	cmd.PersistentFlags().IntVar(&gValue, "g", 1, "Gradient updates per environment step")
	cmd.PersistentFlags().IntVar(&maxStepsPerBatch, "max-steps-per-batch", 0, "Update period of the batch-policy family")
	cmd.PersistentFlags().IntVar(&memoryCapacity, "memory-capacity", 1000000, "Replay memory capacity")
	cmd.PersistentFlags().StringVar(&wsAddr, "ws-addr", "", "Optional address for the websocket observer")

	cmd.PersistentFlags().StringToStringVar(&hyperparameters, "hp", nil,
		"Per-algorithm hyperparameters as key=value pairs")
}

// BuildConfig assembles the flat configuration from the parsed flags.
func BuildConfig() (*core.Config, error) {
	hp := make(core.Hyperparameters, len(hyperparameters))
	for key, raw := range hyperparameters {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: hyperparameter %q is not a number: %q", core.ErrConfiguration, key, raw)
		}
		hp[key] = v
	}
	return &core.Config{
		Algorithm:          algorithm,
		Platform:           platform,
		Environment:        environment,
		Seed:               seed,
		TrainingSteps:      trainingSteps,
		ExplorationSteps:   explorationSteps,
		BatchSize:          batchSize,
		EvaluationInterval: evaluationInterval,
		EvaluationEpisodes: evaluationEpisodes,
		LogInterval:        logInterval,
		G:                  gValue,
		MaxStepsPerBatch:   maxStepsPerBatch,
		Hyperparameters:    hp,
	}, nil
}

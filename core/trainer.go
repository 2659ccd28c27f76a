package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/exp/rand"

	"github.com/kestrel-rl/kestrel/util"
)

// ActionSelector picks the action for one training step. One selector
// is bound per run, from the variant's family, and invoked every
// iteration; the loop never re-checks the algorithm name.
type ActionSelector interface {
	// Select returns the action and an optional auxiliary value stored
	// with the transition.
	Select(step int, state []float64) (action, aux []float64)
}

// TrainCadence decides, after each environment step, how many gradient
// updates to run. Bound once per run alongside the selector.
type TrainCadence interface {
	AfterStep(step int) error
}

// Trainer drives the training loop: environment stepping, replay
// writes, the bound selector/cadence pair, episode bookkeeping,
// periodic evaluation and progress reporting.
type Trainer struct {
	cfg      *Config
	agent    Agent
	env      Environment
	evalEnv  Environment
	memory   Memory
	observer Observer
	recorder Recorder
	logger   *slog.Logger

	selector ActionSelector
	cadence  TrainCadence

	evalRecords []EvalRecord
}

// NewTrainer validates the configuration and binds the
// selector/cadence pair for the given family. All configuration
// failures surface here, before the loop starts.
func NewTrainer(
	cfg *Config,
	agent Agent,
	family Family,
	env, evalEnv Environment,
	memory Memory,
	observer Observer,
	recorder Recorder,
	logger *slog.Logger,
) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &Trainer{
		cfg:      cfg,
		agent:    agent,
		env:      env,
		evalEnv:  evalEnv,
		memory:   memory,
		observer: observer,
		recorder: recorder,
		logger:   logger,
	}

	switch family {
	case FamilyBatchPolicy:
		batchAgent, ok := agent.(BatchAgent)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a batch-policy agent", ErrConfiguration, cfg.Algorithm)
		}
		if _, ok := memory.(BatchMemory); !ok {
			return nil, fmt.Errorf("%w: the batch-policy family needs a drainable memory", ErrConfiguration)
		}
		if cfg.MaxStepsPerBatch <= 0 {
			return nil, fmt.Errorf("%w: max steps per batch must be positive, got %d", ErrConfiguration, cfg.MaxStepsPerBatch)
		}
		t.selector = &batchSelector{agent: batchAgent}
		t.cadence = &batchCadence{agent: agent, memory: memory, batchSize: cfg.BatchSize, period: cfg.MaxStepsPerBatch}

	case FamilyValueGreedy:
		epsilonMin, err := cfg.Hyperparameters.Float("epsilon_min")
		if err != nil {
			return nil, err
		}
		epsilonDecay, err := cfg.Hyperparameters.Float("epsilon_decay")
		if err != nil {
			return nil, err
		}
		t.selector = &epsilonGreedySelector{
			agent:            agent,
			env:              env,
			explorationSteps: cfg.ExplorationSteps,
			schedule:         NewEpsilonSchedule(epsilonMin, epsilonDecay),
			rng:              rand.New(rand.NewSource(cfg.Seed)),
		}
		t.cadence = &greedyValueCadence{
			agent: agent, memory: memory,
			batchSize: cfg.BatchSize, g: cfg.G,
		}

	case FamilyOffPolicy:
		t.selector = &offPolicySelector{
			agent: agent, env: env,
			explorationSteps: cfg.ExplorationSteps,
		}
		t.cadence = &offPolicyCadence{
			agent: agent, memory: memory,
			batchSize: cfg.BatchSize, g: cfg.G,
			explorationSteps: cfg.ExplorationSteps,
		}

	default:
		return nil, fmt.Errorf("%w: unknown family %v", ErrConfiguration, family)
	}

	return t, nil
}

// Run executes the training loop until the step budget is exhausted or
// ctx is cancelled. Cancellation is a normal alternate termination
// path: logs are still flushed and the post-training verification
// rollout still runs. The returned flag is true iff the full budget was
// consumed.
func (t *Trainer) Run(ctx context.Context) (bool, error) {
	state, err := t.env.Reset()
	if err != nil {
		return false, err
	}
	if err := CheckObservation(t.env, state); err != nil {
		return false, err
	}

	completed := true
	episodeSteps := 0
	episodeNum := 0
	episodeReward := 0.0
	episodeStart := time.Now()
	totalEpisodeTime := time.Duration(0)

StepLoop:
	for step := 0; step < t.cfg.TrainingSteps; step++ {
		select {
		case <-ctx.Done():
			t.logger.Info("training interrupted", "step", step, "episode", episodeNum+1)
			completed = false
			break StepLoop
		default:
		}

		episodeSteps++

		action, aux := t.selector.Select(step, state)
		next, reward, done, truncated, err := t.env.Step(action)
		if err != nil {
			return false, err
		}
		if err := CheckObservation(t.env, next); err != nil {
			return false, err
		}

		t.memory.AddExperience(state, action, reward, next, done, aux...)
		state = next
		episodeReward += reward

		if err := t.cadence.AfterStep(step); err != nil {
			return false, err
		}

		if done || truncated {
			episodeTime := time.Since(episodeStart)
			totalEpisodeTime += episodeTime
			averageEpisodeTime := totalEpisodeTime / time.Duration(episodeNum+1)
			remainingEpisodes := (t.cfg.TrainingSteps - step - 1) / episodeSteps
			estimate := averageEpisodeTime * time.Duration(remainingEpisodes)

			t.observer.EpisodeDone(EpisodeEvent{
				Episode:       episodeNum + 1,
				Reward:        episodeReward,
				Steps:         episodeSteps,
				TimeRemaining: util.FormatDuration(estimate),
			})
			t.recorder.LogTraining(episodeNum+1, episodeReward, episodeSteps, step+1, episodeTime)
			t.logger.Info("episode done",
				"episode", episodeNum+1, "reward", episodeReward,
				"steps", episodeSteps, "total_steps", step+1)

			if (step+1)%t.cfg.LogInterval == 0 {
				if err := t.recorder.SaveCheckpoint(); err != nil {
					return false, err
				}
			}

			state, err = t.env.Reset()
			if err != nil {
				return false, err
			}
			if err := CheckObservation(t.env, state); err != nil {
				return false, err
			}
			episodeSteps = 0
			episodeNum++
			episodeReward = 0
			episodeStart = time.Now()
		}

		if (step+1)%t.cfg.EvaluationInterval == 0 {
			records, err := EvaluatePolicy(t.evalEnv, t.agent, t.cfg.EvaluationEpisodes, step+1)
			if err != nil {
				return false, err
			}
			t.evalRecords = append(t.evalRecords, records...)
			t.recorder.LogEvaluation(records)
			t.observer.Evaluated(SummarizeEval(DedupEvalRecords(t.evalRecords)))
		}

		t.observer.Progress(ProgressEvent{
			Percent: float64(step+1) / float64(t.cfg.TrainingSteps) * 100,
			Step:    step + 1,
		})
	}

	if err := t.recorder.SaveLogs(); err != nil {
		return completed, err
	}
	if err := t.verifyPolicy(); err != nil {
		return completed, err
	}
	t.observer.Completed(completed)
	return completed, nil
}

// verifyPolicy runs one exploitation rollout against the training
// environment after the loop ends, on both termination paths.
func (t *Trainer) verifyPolicy() error {
	records, err := EvaluatePolicy(t.env, t.agent, 1, t.cfg.TrainingSteps)
	if err != nil {
		return err
	}
	t.logger.Info("policy verification rollout",
		"reward", records[0].Reward, "steps", records[0].Steps)
	return nil
}

type batchSelector struct {
	agent BatchAgent
}

func (s *batchSelector) Select(_ int, state []float64) ([]float64, []float64) {
	return s.agent.SelectActionWithAux(state)
}

type batchCadence struct {
	agent     Agent
	memory    Memory
	batchSize int
	period    int
}

func (c *batchCadence) AfterStep(step int) error {
	if (step+1)%c.period != 0 {
		return nil
	}
	// the variant drains and clears the accumulated batch itself
	return c.agent.TrainStep(c.memory, c.batchSize)
}

type epsilonGreedySelector struct {
	agent            Agent
	env              Environment
	explorationSteps int
	schedule         *EpsilonSchedule
	rng              *rand.Rand
}

func (s *epsilonGreedySelector) Select(step int, state []float64) ([]float64, []float64) {
	if step < s.explorationSteps {
		return s.env.SampleAction(), nil
	}
	if s.rng.Float64() < s.schedule.Decay() {
		return s.env.SampleAction(), nil
	}
	return s.agent.SelectAction(state, false), nil
}

type greedyValueCadence struct {
	agent     Agent
	memory    Memory
	batchSize int
	g         int
}

func (c *greedyValueCadence) AfterStep(step int) error {
	if step <= c.batchSize || c.memory.Size() < c.batchSize {
		return nil
	}
	for i := 0; i < c.g; i++ {
		if err := c.agent.TrainStep(c.memory, c.batchSize); err != nil {
			return err
		}
	}
	return nil
}

type offPolicySelector struct {
	agent            Agent
	env              Environment
	explorationSteps int
}

func (s *offPolicySelector) Select(step int, state []float64) ([]float64, []float64) {
	if step < s.explorationSteps {
		return s.env.SampleAction(), nil
	}
	return s.agent.SelectAction(state, false), nil
}

type offPolicyCadence struct {
	agent            Agent
	memory           Memory
	batchSize        int
	g                int
	explorationSteps int
}

func (c *offPolicyCadence) AfterStep(step int) error {
	if step < c.explorationSteps || c.memory.Size() < c.batchSize {
		return nil
	}
	for i := 0; i < c.g; i++ {
		if err := c.agent.TrainStep(c.memory, c.batchSize); err != nil {
			return err
		}
	}
	return nil
}

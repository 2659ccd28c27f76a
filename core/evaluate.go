package core

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EvaluatePolicy runs a fixed number of episodes against env with the
// evaluation flag set, so variants with a deterministic evaluation mode
// disable stochastic sampling. Records are keyed by totalSteps, the
// training step at which the evaluation was triggered.
func EvaluatePolicy(env Environment, agent Agent, episodes, totalSteps int) ([]EvalRecord, error) {
	records := make([]EvalRecord, 0, episodes)
	for ep := 0; ep < episodes; ep++ {
		state, err := env.Reset()
		if err != nil {
			return nil, err
		}
		if err := CheckObservation(env, state); err != nil {
			return nil, err
		}

		reward := 0.0
		steps := 0
		for {
			action := agent.SelectAction(state, true)
			next, r, done, truncated, err := env.Step(action)
			if err != nil {
				return nil, err
			}
			if err := CheckObservation(env, next); err != nil {
				return nil, err
			}
			reward += r
			steps++
			state = next
			if done || truncated {
				break
			}
		}

		records = append(records, EvalRecord{
			TotalSteps: totalSteps,
			Episode:    ep + 1,
			Reward:     reward,
			Steps:      steps,
		})
	}
	return records, nil
}

// DedupEvalRecords keeps, for each distinct global timestep, only the
// most recently observed record, ordered by timestep.
func DedupEvalRecords(records []EvalRecord) []EvalRecord {
	latest := make(map[int]EvalRecord)
	steps := make([]int, 0)
	for _, rec := range records {
		if _, seen := latest[rec.TotalSteps]; !seen {
			steps = append(steps, rec.TotalSteps)
		}
		latest[rec.TotalSteps] = rec
	}
	sort.Ints(steps)
	out := make([]EvalRecord, 0, len(steps))
	for _, s := range steps {
		out = append(out, latest[s])
	}
	return out
}

// SummarizeEval aggregates deduplicated records into the table reported
// to the observer.
func SummarizeEval(records []EvalRecord) EvalSummary {
	rewards := make([]float64, len(records))
	for i, rec := range records {
		rewards[i] = rec.Reward
	}
	summary := EvalSummary{Records: records}
	if len(rewards) > 0 {
		summary.MeanReward = stat.Mean(rewards, nil)
	}
	if len(rewards) > 1 {
		summary.StdReward = stat.StdDev(rewards, nil)
	}
	return summary
}

// CheckObservation verifies an environment result against the declared
// observation dimensionality.
func CheckObservation(env Environment, obs []float64) error {
	if len(obs) != env.ObservationSpace() {
		return fmt.Errorf("%w: observation has %d dimensions, environment declares %d",
			ErrEnvironmentContract, len(obs), env.ObservationSpace())
	}
	return nil
}

package core

import "time"

// Recorder persists training progress: tabular training records,
// evaluation records, parameter checkpoints and the final log flush.
type Recorder interface {
	LogTraining(episode int, reward float64, steps, totalSteps int, elapsed time.Duration)
	LogEvaluation(records []EvalRecord)
	SaveCheckpoint() error
	SaveLogs() error
}

// NopRecorder discards everything.
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

func (NopRecorder) LogTraining(int, float64, int, int, time.Duration) {}
func (NopRecorder) LogEvaluation([]EvalRecord)                        {}
func (NopRecorder) SaveCheckpoint() error                             { return nil }
func (NopRecorder) SaveLogs() error                                   { return nil }

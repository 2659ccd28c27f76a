package core

// ProgressEvent is emitted once per training step.
type ProgressEvent struct {
	Percent float64 `json:"percent"`
	Step    int     `json:"step"`
}

// EpisodeEvent is emitted at every episode boundary.
type EpisodeEvent struct {
	Episode       int     `json:"episode"`
	Reward        float64 `json:"reward"`
	Steps         int     `json:"steps"`
	TimeRemaining string  `json:"time_remaining"`
}

// EvalRecord is one evaluation-episode return, keyed by the training
// step at which the evaluation was triggered.
type EvalRecord struct {
	TotalSteps int     `json:"total_steps"`
	Episode    int     `json:"episode"`
	Reward     float64 `json:"reward"`
	Steps      int     `json:"steps"`
}

// EvalSummary aggregates the deduplicated evaluation records.
type EvalSummary struct {
	Records    []EvalRecord `json:"records"`
	MeanReward float64      `json:"mean_reward"`
	StdReward  float64      `json:"std_reward"`
}

// Observer receives one-way progress notifications from the trainer.
// Implementations must not block the training loop.
type Observer interface {
	Progress(ProgressEvent)
	EpisodeDone(EpisodeEvent)
	Evaluated(EvalSummary)
	Completed(bool)
}

// NopObserver discards all events.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) Progress(ProgressEvent)   {}
func (NopObserver) EpisodeDone(EpisodeEvent) {}
func (NopObserver) Evaluated(EvalSummary)    {}
func (NopObserver) Completed(bool)           {}

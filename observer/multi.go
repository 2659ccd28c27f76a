package observer

import "github.com/kestrel-rl/kestrel/core"

// Multi fans events out to several observers in order.
type Multi []core.Observer

var _ core.Observer = Multi{}

func (m Multi) Progress(ev core.ProgressEvent) {
	for _, o := range m {
		o.Progress(ev)
	}
}

func (m Multi) EpisodeDone(ev core.EpisodeEvent) {
	for _, o := range m {
		o.EpisodeDone(ev)
	}
}

func (m Multi) Evaluated(ev core.EvalSummary) {
	for _, o := range m {
		o.Evaluated(ev)
	}
}

func (m Multi) Completed(completed bool) {
	for _, o := range m {
		o.Completed(completed)
	}
}

// Package observer provides sinks for the trainer's one-way progress
// notifications: an updating terminal line, a websocket broadcaster
// for out-of-process consumers, and a fan-out multiplexer.
package observer

import (
	"fmt"

	"github.com/gosuri/uilive"

	"github.com/kestrel-rl/kestrel/core"
)

// Terminal renders training progress as updating terminal lines.
type Terminal struct {
	writer *uilive.Writer

	step    int
	percent float64
	episode core.EpisodeEvent
	eval    string
}

var _ core.Observer = &Terminal{}

func NewTerminal() *Terminal {
	w := uilive.New()
	w.Start()
	return &Terminal{writer: w}
}

// Stop flushes and releases the terminal writer.
func (t *Terminal) Stop() {
	t.writer.Stop()
}

func (t *Terminal) Progress(ev core.ProgressEvent) {
	t.step = ev.Step
	t.percent = ev.Percent
	t.render()
}

func (t *Terminal) EpisodeDone(ev core.EpisodeEvent) {
	t.episode = ev
	t.render()
}

func (t *Terminal) Evaluated(summary core.EvalSummary) {
	t.eval = fmt.Sprintf("eval mean %.2f ± %.2f over %d records",
		summary.MeanReward, summary.StdReward, len(summary.Records))
	t.render()
}

func (t *Terminal) Completed(completed bool) {
	status := "completed"
	if !completed {
		status = "interrupted"
	}
	fmt.Fprintf(t.writer, "Training %s at step %d\n", status, t.step)
	t.writer.Flush()
}

func (t *Terminal) render() {
	fmt.Fprintf(t.writer,
		"Step %d (%.1f%%), Episode %d, Reward %.2f, Episode Steps %d, Remaining %s\n%s\n",
		t.step, t.percent, t.episode.Episode, t.episode.Reward,
		t.episode.Steps, t.episode.TimeRemaining, t.eval,
	)
	t.writer.Flush()
}

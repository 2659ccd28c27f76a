// Package analysis persists what a run produces: tabular training and
// evaluation records, a JSON run summary and parameter checkpoints,
// all under a per-run directory.
package analysis

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-rl/kestrel/core"
	"github.com/kestrel-rl/kestrel/util"
)

// TrainRecord is one row of the training table, written at every
// episode boundary.
type TrainRecord struct {
	Episode        int     `json:"episode"`
	Reward         float64 `json:"reward"`
	Steps          int     `json:"steps"`
	TotalSteps     int     `json:"total_steps"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Recorder accumulates records in memory and flushes them on demand.
// It owns its run directory, named {algorithm}-{environment}-{run id}.
type Recorder struct {
	dir    string
	name   string
	agent  core.Agent
	logger *slog.Logger

	train []TrainRecord
	eval  []core.EvalRecord
}

var _ core.Recorder = &Recorder{}

func NewRecorder(baseDir, algorithm, environment string, agent core.Agent, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()[:8]
	dir := filepath.Join(baseDir, fmt.Sprintf("%s-%s-%s", algorithm, environment, runID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Recorder{
		dir:    dir,
		name:   algorithm,
		agent:  agent,
		logger: logger,
	}, nil
}

// Dir is the run directory.
func (r *Recorder) Dir() string { return r.dir }

func (r *Recorder) LogTraining(episode int, reward float64, steps, totalSteps int, elapsed time.Duration) {
	r.train = append(r.train, TrainRecord{
		Episode:        episode,
		Reward:         reward,
		Steps:          steps,
		TotalSteps:     totalSteps,
		ElapsedSeconds: elapsed.Seconds(),
	})
}

func (r *Recorder) LogEvaluation(records []core.EvalRecord) {
	r.eval = append(r.eval, records...)
}

// TrainRecords returns the accumulated training rows.
func (r *Recorder) TrainRecords() []TrainRecord { return r.train }

// SaveCheckpoint persists the agent's parameter sets under the run's
// models directory.
func (r *Recorder) SaveCheckpoint() error {
	return r.agent.Save(r.name, filepath.Join(r.dir, "models"))
}

// SaveLogs writes the training and evaluation tables and a JSON
// summary of the deduplicated evaluation records.
func (r *Recorder) SaveLogs() error {
	if err := r.writeTrainCSV(); err != nil {
		return err
	}
	if err := r.writeEvalCSV(); err != nil {
		return err
	}
	summary := core.SummarizeEval(core.DedupEvalRecords(r.eval))
	if err := util.SaveJson(filepath.Join(r.dir, "summary.json"), summary); err != nil {
		return err
	}
	r.logger.Info("logs saved", "dir", r.dir,
		"train_records", len(r.train), "eval_records", len(r.eval))
	return nil
}

func (r *Recorder) writeTrainCSV() error {
	file, err := os.Create(filepath.Join(r.dir, "train.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"episode", "reward", "steps", "total_steps", "elapsed_seconds"}); err != nil {
		return err
	}
	for _, rec := range r.train {
		row := []string{
			strconv.Itoa(rec.Episode),
			strconv.FormatFloat(rec.Reward, 'f', -1, 64),
			strconv.Itoa(rec.Steps),
			strconv.Itoa(rec.TotalSteps),
			strconv.FormatFloat(rec.ElapsedSeconds, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (r *Recorder) writeEvalCSV() error {
	file, err := os.Create(filepath.Join(r.dir, "eval.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"total_steps", "episode", "reward", "steps"}); err != nil {
		return err
	}
	for _, rec := range r.eval {
		row := []string{
			strconv.Itoa(rec.TotalSteps),
			strconv.Itoa(rec.Episode),
			strconv.FormatFloat(rec.Reward, 'f', -1, 64),
			strconv.Itoa(rec.Steps),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

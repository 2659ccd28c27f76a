package policies

import (
	"fmt"
	"path/filepath"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/kestrel-rl/kestrel/compute"
	"github.com/kestrel-rl/kestrel/core"
	"github.com/kestrel-rl/kestrel/nn"
)

// DQN is the discrete-action value-based variant: a single network
// estimating one value per action, trained against a hard-synchronized
// target copy.
type DQN struct {
	net    *nn.MLP
	target *nn.MLP
	opt    *nn.Adam

	gamma            float64
	targetUpdateFreq int
	learnCounter     int

	actionNum int
	cctx      *compute.Context
}

var _ core.Agent = &DQN{}

func NewDQN(obsDim, actionNum int, hp core.Hyperparameters, cctx *compute.Context, seed uint64) (*DQN, error) {
	gamma, err := hp.Float("gamma")
	if err != nil {
		return nil, err
	}
	lr, err := hp.Float("lr")
	if err != nil {
		return nil, err
	}
	targetUpdateFreq, err := hp.Int("target_update_freq")
	if err != nil {
		return nil, err
	}
	if targetUpdateFreq <= 0 {
		return nil, fmt.Errorf("%w: target_update_freq must be positive, got %d", core.ErrConfiguration, targetUpdateFreq)
	}

	rng := rand.New(rand.NewSource(seed))
	net := nn.NewMLP([]int{obsDim, 256, 256, actionNum}, nn.ActReLU, nn.ActNone, rng)
	return &DQN{
		net:              net,
		target:           net.Clone(),
		opt:              nn.NewAdam(net.Params(), lr),
		gamma:            gamma,
		targetUpdateFreq: targetUpdateFreq,
		actionNum:        actionNum,
		cctx:             cctx,
	}, nil
}

// SelectAction returns the argmax action. The variant has no
// stochastic mode; exploration is the caller's schedule.
func (d *DQN) SelectAction(state []float64, evaluation bool) []float64 {
	q := d.net.Forward(nn.BatchMatrix([][]float64{state}))
	best := 0
	for j := 1; j < d.actionNum; j++ {
		if q.At(0, j) > q.At(0, best) {
			best = j
		}
	}
	return []float64{float64(best)}
}

func (d *DQN) TrainStep(memory core.Memory, batchSize int) error {
	batch, err := memory.SampleExperience(batchSize)
	if err != nil {
		return err
	}
	m := batch.Len()
	states := nn.BatchMatrix(batch.States)
	nextStates := nn.BatchMatrix(batch.NextStates)

	var q, nextQ *mat.Dense
	d.cctx.Parallel(
		func() { q = d.net.Forward(states) },
		func() { nextQ = d.target.Forward(nextStates) },
	)

	// MSE on the taken action against r + γ(1-done)·max_a' Q_target(s',a')
	grad := mat.NewDense(m, d.actionNum, nil)
	for i := 0; i < m; i++ {
		best := nextQ.At(i, 0)
		for j := 1; j < d.actionNum; j++ {
			if v := nextQ.At(i, j); v > best {
				best = v
			}
		}
		y := batch.Rewards[i] + d.gamma*(1-batch.Dones[i])*best
		taken := int(batch.Actions[i][0])
		grad.Set(i, taken, 2*(q.At(i, taken)-y)/float64(m))
	}

	d.net.ZeroGrads()
	d.net.Backward(grad)
	d.opt.Step(d.net.Grads())

	// The learning counter ticks once per TrainStep call, regardless of
	// how many environment steps or update repetitions surround it.
	d.learnCounter++
	if d.learnCounter%d.targetUpdateFreq == 0 {
		return nn.HardUpdate(d.target.Params(), d.net.Params())
	}
	return nil
}

// LearnCounter reports how many gradient updates have run.
func (d *DQN) LearnCounter() int { return d.learnCounter }

// TargetParams exposes the target-network parameters for inspection.
func (d *DQN) TargetParams() []*mat.Dense { return d.target.Params() }

// Params exposes the online-network parameters for inspection.
func (d *DQN) Params() []*mat.Dense { return d.net.Params() }

func (d *DQN) Save(name, path string) error {
	return nn.SaveParams(filepath.Join(path, name+"_net.json"), d.net.Params())
}

func (d *DQN) Load(name, path string) error {
	if err := nn.LoadParams(filepath.Join(path, name+"_net.json"), d.net.Params()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	return nn.HardUpdate(d.target.Params(), d.net.Params())
}

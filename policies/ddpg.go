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

// DDPG is the deterministic continuous-control variant: a tanh-bounded
// actor and a single critic, each with a soft-synchronized target copy.
type DDPG struct {
	actor        *nn.MLP
	critic       *nn.MLP
	targetActor  *nn.MLP
	targetCritic *nn.MLP

	actorOpt  *nn.Adam
	criticOpt *nn.Adam

	gamma float64
	tau   float64

	obsDim    int
	actionDim int
	cctx      *compute.Context
}

var _ core.Agent = &DDPG{}

func NewDDPG(obsDim, actionDim int, hp core.Hyperparameters, cctx *compute.Context, seed uint64) (*DDPG, error) {
	gamma, err := hp.Float("gamma")
	if err != nil {
		return nil, err
	}
	tau, err := hp.Float("tau")
	if err != nil {
		return nil, err
	}
	actorLr, err := hp.Float("actor_lr")
	if err != nil {
		return nil, err
	}
	criticLr, err := hp.Float("critic_lr")
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	actor := nn.NewMLP([]int{obsDim, 256, 256, actionDim}, nn.ActReLU, nn.ActTanh, rng)
	critic := nn.NewMLP([]int{obsDim + actionDim, 256, 256, 1}, nn.ActReLU, nn.ActNone, rng)
	return &DDPG{
		actor:        actor,
		critic:       critic,
		targetActor:  actor.Clone(),
		targetCritic: critic.Clone(),
		actorOpt:     nn.NewAdam(actor.Params(), actorLr),
		criticOpt:    nn.NewAdam(critic.Params(), criticLr),
		gamma:        gamma,
		tau:          tau,
		obsDim:       obsDim,
		actionDim:    actionDim,
		cctx:         cctx,
	}, nil
}

// SelectAction returns the actor output; the variant is deterministic,
// so the evaluation flag changes nothing.
func (d *DDPG) SelectAction(state []float64, evaluation bool) []float64 {
	out := d.actor.Forward(nn.BatchMatrix([][]float64{state}))
	action := make([]float64, d.actionDim)
	for j := 0; j < d.actionDim; j++ {
		action[j] = out.At(0, j)
	}
	return action
}

func (d *DDPG) TrainStep(memory core.Memory, batchSize int) error {
	batch, err := memory.SampleExperience(batchSize)
	if err != nil {
		return err
	}
	m := batch.Len()
	states := nn.BatchMatrix(batch.States)
	actions := nn.BatchMatrix(batch.Actions)
	nextStates := nn.BatchMatrix(batch.NextStates)

	// critic: MSE against r + γ(1-done)·Q_t(s', actor_t(s'))
	nextActions := d.targetActor.Forward(nextStates)
	targetQ := d.targetCritic.Forward(nn.Concat(nextStates, nextActions))
	q := d.critic.Forward(nn.Concat(states, actions))
	grad := mat.NewDense(m, 1, nil)
	for i := 0; i < m; i++ {
		y := batch.Rewards[i] + d.gamma*(1-batch.Dones[i])*targetQ.At(i, 0)
		grad.Set(i, 0, 2*(q.At(i, 0)-y)/float64(m))
	}
	d.critic.ZeroGrads()
	d.critic.Backward(grad)
	d.criticOpt.Step(d.critic.Grads())

	// actor: -mean(Q(s, actor(s))) with the critic held fixed
	actorActions := d.actor.Forward(states)
	d.critic.Forward(nn.Concat(states, actorActions))
	gradQ := mat.NewDense(m, 1, nil)
	for i := 0; i < m; i++ {
		gradQ.Set(i, 0, -1/float64(m))
	}
	d.critic.ZeroGrads()
	gradIn := d.critic.Backward(gradQ)
	gradActions := nn.SliceCols(gradIn, d.obsDim, d.obsDim+d.actionDim)
	d.actor.ZeroGrads()
	d.actor.Backward(gradActions)
	d.actorOpt.Step(d.actor.Grads())
	d.critic.ZeroGrads()

	var actorErr, criticErr error
	d.cctx.Parallel(
		func() { actorErr = nn.SoftUpdate(d.targetActor.Params(), d.actor.Params(), d.tau) },
		func() { criticErr = nn.SoftUpdate(d.targetCritic.Params(), d.critic.Params(), d.tau) },
	)
	if actorErr != nil {
		return actorErr
	}
	return criticErr
}

// Params exposes the online parameters (actor then critic) for
// inspection.
func (d *DDPG) Params() []*mat.Dense {
	return append(d.actor.Params(), d.critic.Params()...)
}

// TargetParams exposes the target parameters (actor then critic).
func (d *DDPG) TargetParams() []*mat.Dense {
	return append(d.targetActor.Params(), d.targetCritic.Params()...)
}

func (d *DDPG) Save(name, path string) error {
	if err := nn.SaveParams(filepath.Join(path, name+"_actor.json"), d.actor.Params()); err != nil {
		return err
	}
	return nn.SaveParams(filepath.Join(path, name+"_critic.json"), d.critic.Params())
}

func (d *DDPG) Load(name, path string) error {
	if err := nn.LoadParams(filepath.Join(path, name+"_actor.json"), d.actor.Params()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	if err := nn.LoadParams(filepath.Join(path, name+"_critic.json"), d.critic.Params()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	if err := nn.HardUpdate(d.targetActor.Params(), d.actor.Params()); err != nil {
		return err
	}
	return nn.HardUpdate(d.targetCritic.Params(), d.critic.Params())
}

package policies

import (
	"fmt"
	"math"
	"path/filepath"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/kestrel-rl/kestrel/compute"
	"github.com/kestrel-rl/kestrel/core"
	"github.com/kestrel-rl/kestrel/nn"
)

// SAC is the entropy-regularized stochastic continuous-control variant:
// a squashed-gaussian actor, twin critics with soft-synchronized target
// copies, and an adaptive temperature. The actor has no target network.
type SAC struct {
	actor   *nn.GaussianPolicy
	critic1 *nn.MLP
	critic2 *nn.MLP
	target1 *nn.MLP
	target2 *nn.MLP

	actorOpt  *nn.Adam
	criticOpt *nn.Adam
	alphaOpt  *nn.ScalarAdam

	logAlpha      float64
	targetEntropy float64

	gamma       float64
	tau         float64
	rewardScale float64

	learnCounter     int
	policyUpdateFreq int

	obsDim    int
	actionDim int
	cctx      *compute.Context
}

var _ core.Agent = &SAC{}

func NewSAC(obsDim, actionDim int, hp core.Hyperparameters, cctx *compute.Context, seed uint64) (*SAC, error) {
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
	alphaLr, err := hp.Float("alpha_lr")
	if err != nil {
		return nil, err
	}
	policyUpdateFreq := hp.IntOr("policy_update_freq", 1)
	if policyUpdateFreq <= 0 {
		return nil, fmt.Errorf("%w: policy_update_freq must be positive, got %d", core.ErrConfiguration, policyUpdateFreq)
	}

	rng := rand.New(rand.NewSource(seed))
	actor := nn.NewGaussianPolicy(obsDim, actionDim, []int{256, 256}, rng)
	critic1 := nn.NewMLP([]int{obsDim + actionDim, 256, 256, 1}, nn.ActReLU, nn.ActNone, rng)
	critic2 := nn.NewMLP([]int{obsDim + actionDim, 256, 256, 1}, nn.ActReLU, nn.ActNone, rng)

	criticParams := append(critic1.Params(), critic2.Params()...)
	return &SAC{
		actor:            actor,
		critic1:          critic1,
		critic2:          critic2,
		target1:          critic1.Clone(),
		target2:          critic2.Clone(),
		actorOpt:         nn.NewAdam(actor.Params(), actorLr),
		criticOpt:        nn.NewAdam(criticParams, criticLr),
		alphaOpt:         nn.NewScalarAdam(alphaLr),
		logAlpha:         math.Log(1.0),
		targetEntropy:    -float64(actionDim),
		gamma:            gamma,
		tau:              tau,
		rewardScale:      hp.FloatOr("reward_scale", 1.0),
		policyUpdateFreq: policyUpdateFreq,
		obsDim:           obsDim,
		actionDim:        actionDim,
		cctx:             cctx,
	}, nil
}

// Alpha is the current temperature exp(logAlpha).
func (s *SAC) Alpha() float64 { return math.Exp(s.logAlpha) }

// SelectAction samples the policy; with evaluation set it returns the
// distribution mean instead, without consuming randomness.
func (s *SAC) SelectAction(state []float64, evaluation bool) []float64 {
	x := nn.BatchMatrix([][]float64{state})
	var out *mat.Dense
	if evaluation {
		out = s.actor.MeanAction(x)
	} else {
		out = s.actor.Sample(x).Action
	}
	action := make([]float64, s.actionDim)
	for j := 0; j < s.actionDim; j++ {
		action[j] = out.At(0, j)
	}
	return action
}

func (s *SAC) TrainStep(memory core.Memory, batchSize int) error {
	s.learnCounter++

	batch, err := memory.SampleExperience(batchSize)
	if err != nil {
		return err
	}
	m := batch.Len()
	states := nn.BatchMatrix(batch.States)
	actions := nn.BatchMatrix(batch.Actions)
	nextStates := nn.BatchMatrix(batch.NextStates)
	alpha := s.Alpha()

	// critic target: next actions resampled from the current actor
	nextSample := s.actor.Sample(nextStates)
	nextSA := nn.Concat(nextStates, nextSample.Action)
	var tq1, tq2 *mat.Dense
	s.cctx.Parallel(
		func() { tq1 = s.target1.Forward(nextSA) },
		func() { tq2 = s.target2.Forward(nextSA) },
	)
	target := make([]float64, m)
	for i := 0; i < m; i++ {
		tq := math.Min(tq1.At(i, 0), tq2.At(i, 0)) - alpha*nextSample.LogProb.At(i, 0)
		target[i] = batch.Rewards[i]*s.rewardScale + s.gamma*(1-batch.Dones[i])*tq
	}

	// joint twin-critic MSE step
	sa := nn.Concat(states, actions)
	var q1, q2 *mat.Dense
	s.cctx.Parallel(
		func() { q1 = s.critic1.Forward(sa) },
		func() { q2 = s.critic2.Forward(sa) },
	)
	grad1 := mat.NewDense(m, 1, nil)
	grad2 := mat.NewDense(m, 1, nil)
	for i := 0; i < m; i++ {
		grad1.Set(i, 0, 2*(q1.At(i, 0)-target[i])/float64(m))
		grad2.Set(i, 0, 2*(q2.At(i, 0)-target[i])/float64(m))
	}
	s.critic1.ZeroGrads()
	s.critic2.ZeroGrads()
	s.cctx.Parallel(
		func() { s.critic1.Backward(grad1) },
		func() { s.critic2.Backward(grad2) },
	)
	s.criticOpt.Step(append(s.critic1.Grads(), s.critic2.Grads()...))

	// actor: mean(α·logπ - min(Q1,Q2)) via reparameterized samples
	sample := s.actor.Sample(states)
	saPi := nn.Concat(states, sample.Action)
	var q1Pi, q2Pi *mat.Dense
	s.cctx.Parallel(
		func() { q1Pi = s.critic1.Forward(saPi) },
		func() { q2Pi = s.critic2.Forward(saPi) },
	)
	gradOut1 := mat.NewDense(m, 1, nil)
	gradOut2 := mat.NewDense(m, 1, nil)
	for i := 0; i < m; i++ {
		// -mean(minQ): the gradient flows through the smaller critic
		if q1Pi.At(i, 0) <= q2Pi.At(i, 0) {
			gradOut1.Set(i, 0, -1/float64(m))
		} else {
			gradOut2.Set(i, 0, -1/float64(m))
		}
	}
	s.critic1.ZeroGrads()
	s.critic2.ZeroGrads()
	var gradIn1, gradIn2 *mat.Dense
	s.cctx.Parallel(
		func() { gradIn1 = s.critic1.Backward(gradOut1) },
		func() { gradIn2 = s.critic2.Backward(gradOut2) },
	)
	gradIn1.Add(gradIn1, gradIn2)
	gradActions := nn.SliceCols(gradIn1, s.obsDim, s.obsDim+s.actionDim)
	gradLogProb := mat.NewDense(m, 1, nil)
	for i := 0; i < m; i++ {
		gradLogProb.Set(i, 0, alpha/float64(m))
	}
	s.actor.ZeroGrads()
	s.actor.Backward(sample, gradActions, gradLogProb)
	s.actorOpt.Step(s.actor.Grads())
	s.critic1.ZeroGrads()
	s.critic2.ZeroGrads()

	// temperature: gradient of -logα·(logπ + targetEntropy), logπ detached
	meanLogProb := 0.0
	for i := 0; i < m; i++ {
		meanLogProb += sample.LogProb.At(i, 0)
	}
	meanLogProb /= float64(m)
	s.alphaOpt.Step(&s.logAlpha, -(meanLogProb + s.targetEntropy))

	if s.learnCounter%s.policyUpdateFreq == 0 {
		var err1, err2 error
		s.cctx.Parallel(
			func() { err1 = nn.SoftUpdate(s.target1.Params(), s.critic1.Params(), s.tau) },
			func() { err2 = nn.SoftUpdate(s.target2.Params(), s.critic2.Params(), s.tau) },
		)
		if err1 != nil {
			return err1
		}
		return err2
	}
	return nil
}

// LearnCounter reports how many gradient updates have run.
func (s *SAC) LearnCounter() int { return s.learnCounter }

// Params exposes the online parameters (actor, then both critics).
func (s *SAC) Params() []*mat.Dense {
	out := s.actor.Params()
	out = append(out, s.critic1.Params()...)
	return append(out, s.critic2.Params()...)
}

// TargetParams exposes the twin target-critic parameters.
func (s *SAC) TargetParams() []*mat.Dense {
	return append(s.target1.Params(), s.target2.Params()...)
}

func (s *SAC) Save(name, path string) error {
	if err := nn.SaveParams(filepath.Join(path, name+"_actor.json"), s.actor.Params()); err != nil {
		return err
	}
	criticParams := append(s.critic1.Params(), s.critic2.Params()...)
	return nn.SaveParams(filepath.Join(path, name+"_critic.json"), criticParams)
}

func (s *SAC) Load(name, path string) error {
	if err := nn.LoadParams(filepath.Join(path, name+"_actor.json"), s.actor.Params()); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	criticParams := append(s.critic1.Params(), s.critic2.Params()...)
	if err := nn.LoadParams(filepath.Join(path, name+"_critic.json"), criticParams); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	if err := nn.HardUpdate(s.target1.Params(), s.critic1.Params()); err != nil {
		return err
	}
	return nn.HardUpdate(s.target2.Params(), s.critic2.Params())
}

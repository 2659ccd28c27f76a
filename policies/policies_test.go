package policies_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/kestrel-rl/kestrel/compute"
	"github.com/kestrel-rl/kestrel/core"
	"github.com/kestrel-rl/kestrel/policies"
	"github.com/kestrel-rl/kestrel/replay"
)

const (
	testObsDim    = 3
	testActionDim = 2
	testBatchSize = 4
)

// filledBuffer builds a replay buffer with n deterministic transitions.
// discrete switches the action encoding between an index and a vector.
func filledBuffer(n int, seed uint64, discrete bool) *replay.Buffer {
	buf := replay.NewBuffer(n, seed)
	rng := rand.New(rand.NewSource(seed + 1000))
	for i := 0; i < n; i++ {
		state := randVec(rng, testObsDim)
		next := randVec(rng, testObsDim)
		var action []float64
		if discrete {
			action = []float64{float64(rng.Intn(testActionDim))}
		} else {
			action = randVec(rng, testActionDim)
		}
		buf.AddExperience(state, action, rng.Float64()*2-1, next, i%5 == 4)
	}
	return buf
}

func randVec(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func requireParamsEqual(t *testing.T, want, got []*mat.Dense) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].RawMatrix().Data, got[i].RawMatrix().Data, "parameter %d differs", i)
	}
}

func requireParamsDiffer(t *testing.T, a, b []*mat.Dense) {
	t.Helper()
	for i := range a {
		if !mat.Equal(a[i], b[i]) {
			return
		}
	}
	t.Fatal("parameter collections are identical")
}

func snapshot(params []*mat.Dense) []*mat.Dense {
	out := make([]*mat.Dense, len(params))
	for i, p := range params {
		out[i] = mat.DenseCopyOf(p)
	}
	return out
}

func dqnHyperparameters() core.Hyperparameters {
	return core.Hyperparameters{"gamma": 0.99, "lr": 1e-3, "target_update_freq": 3}
}

func ddpgHyperparameters() core.Hyperparameters {
	return core.Hyperparameters{"gamma": 0.99, "tau": 0.01, "actor_lr": 1e-3, "critic_lr": 1e-3}
}

func sacHyperparameters() core.Hyperparameters {
	return core.Hyperparameters{
		"gamma": 0.99, "tau": 0.01,
		"actor_lr": 1e-3, "critic_lr": 1e-3, "alpha_lr": 1e-3,
	}
}

func TestResolve(t *testing.T) {
	entry, err := policies.Resolve("DQN")
	require.NoError(t, err)
	assert.Equal(t, core.FamilyValueGreedy, entry.Family)

	entry, err = policies.Resolve("SAC")
	require.NoError(t, err)
	assert.Equal(t, core.FamilyOffPolicy, entry.Family)

	_, err = policies.Resolve("PPO")
	require.ErrorIs(t, err, core.ErrConfiguration)

	assert.Equal(t, []string{"DDPG", "DQN", "SAC"}, policies.Names())
}

func TestConstructorsRejectMissingHyperparameters(t *testing.T) {
	cctx := compute.Single()

	_, err := policies.NewDQN(testObsDim, testActionDim, core.Hyperparameters{"gamma": 0.99}, cctx, 1)
	require.ErrorIs(t, err, core.ErrConfiguration)

	_, err = policies.NewDQN(testObsDim, testActionDim,
		core.Hyperparameters{"gamma": 0.99, "lr": 1e-3, "target_update_freq": 0}, cctx, 1)
	require.ErrorIs(t, err, core.ErrConfiguration)

	_, err = policies.NewDDPG(testObsDim, testActionDim, core.Hyperparameters{"gamma": 0.99, "tau": 0.01}, cctx, 1)
	require.ErrorIs(t, err, core.ErrConfiguration)

	_, err = policies.NewSAC(testObsDim, testActionDim, core.Hyperparameters{"gamma": 0.99}, cctx, 1)
	require.ErrorIs(t, err, core.ErrConfiguration)

	hp := sacHyperparameters()
	hp["policy_update_freq"] = -1
	_, err = policies.NewSAC(testObsDim, testActionDim, hp, cctx, 1)
	require.ErrorIs(t, err, core.ErrConfiguration)
}

func TestDQNTrainingIsDeterministic(t *testing.T) {
	run := func() *policies.DQN {
		agent, err := policies.NewDQN(testObsDim, testActionDim, dqnHyperparameters(), compute.Single(), 7)
		require.NoError(t, err)
		buf := filledBuffer(16, 21, true)
		for i := 0; i < 5; i++ {
			require.NoError(t, agent.TrainStep(buf, testBatchSize))
		}
		return agent
	}

	a, b := run(), run()
	requireParamsEqual(t, a.Params(), b.Params())
	requireParamsEqual(t, a.TargetParams(), b.TargetParams())
}

func TestDQNHardSyncCadence(t *testing.T) {
	agent, err := policies.NewDQN(testObsDim, testActionDim, dqnHyperparameters(), compute.Single(), 7)
	require.NoError(t, err)
	buf := filledBuffer(16, 21, true)

	initial := snapshot(agent.TargetParams())

	// the counter ticks per gradient update; no sync before the third
	for i := 1; i <= 2; i++ {
		require.NoError(t, agent.TrainStep(buf, testBatchSize))
		assert.Equal(t, i, agent.LearnCounter())
		requireParamsEqual(t, initial, agent.TargetParams())
		requireParamsDiffer(t, agent.Params(), agent.TargetParams())
	}

	require.NoError(t, agent.TrainStep(buf, testBatchSize))
	assert.Equal(t, 3, agent.LearnCounter())
	requireParamsEqual(t, agent.Params(), agent.TargetParams())

	// and the target freezes again until the next multiple
	frozen := snapshot(agent.TargetParams())
	require.NoError(t, agent.TrainStep(buf, testBatchSize))
	requireParamsEqual(t, frozen, agent.TargetParams())
}

func TestDQNSelectsValidAction(t *testing.T) {
	agent, err := policies.NewDQN(testObsDim, testActionDim, dqnHyperparameters(), compute.Single(), 7)
	require.NoError(t, err)

	state := []float64{0.1, -0.2, 0.3}
	action := agent.SelectAction(state, false)
	require.Len(t, action, 1)
	idx := int(action[0])
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, testActionDim)

	// argmax selection ignores the evaluation flag
	assert.Equal(t, action, agent.SelectAction(state, true))
}

func TestDQNSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	agent, err := policies.NewDQN(testObsDim, testActionDim, dqnHyperparameters(), compute.Single(), 7)
	require.NoError(t, err)
	buf := filledBuffer(16, 21, true)
	require.NoError(t, agent.TrainStep(buf, testBatchSize))
	require.NoError(t, agent.Save("checkpoint", dir))

	restored, err := policies.NewDQN(testObsDim, testActionDim, dqnHyperparameters(), compute.Single(), 99)
	require.NoError(t, err)
	require.NoError(t, restored.Load("checkpoint", dir))

	requireParamsEqual(t, agent.Params(), restored.Params())
	// loading hard-syncs the target to the restored network
	requireParamsEqual(t, restored.Params(), restored.TargetParams())
}

func TestDQNLoadMissingCheckpoint(t *testing.T) {
	agent, err := policies.NewDQN(testObsDim, testActionDim, dqnHyperparameters(), compute.Single(), 7)
	require.NoError(t, err)
	require.ErrorIs(t, agent.Load("absent", t.TempDir()), core.ErrPersistence)
}

func TestDDPGTrainingIsDeterministic(t *testing.T) {
	run := func() *policies.DDPG {
		agent, err := policies.NewDDPG(testObsDim, testActionDim, ddpgHyperparameters(), compute.Single(), 11)
		require.NoError(t, err)
		buf := filledBuffer(16, 33, false)
		for i := 0; i < 5; i++ {
			require.NoError(t, agent.TrainStep(buf, testBatchSize))
		}
		return agent
	}

	a, b := run(), run()
	requireParamsEqual(t, a.Params(), b.Params())
	requireParamsEqual(t, a.TargetParams(), b.TargetParams())
}

func TestDDPGTargetsTrackOnlineNetworks(t *testing.T) {
	agent, err := policies.NewDDPG(testObsDim, testActionDim, ddpgHyperparameters(), compute.Single(), 11)
	require.NoError(t, err)
	buf := filledBuffer(16, 33, false)

	initial := snapshot(agent.TargetParams())
	require.NoError(t, agent.TrainStep(buf, testBatchSize))

	// soft updates move every target matrix a little every step
	requireParamsDiffer(t, initial, agent.TargetParams())
	requireParamsDiffer(t, agent.Params(), agent.TargetParams())
}

func TestDDPGActionsAreBounded(t *testing.T) {
	agent, err := policies.NewDDPG(testObsDim, testActionDim, ddpgHyperparameters(), compute.Single(), 11)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 20; i++ {
		action := agent.SelectAction(randVec(rng, testObsDim), false)
		require.Len(t, action, testActionDim)
		for _, a := range action {
			assert.LessOrEqual(t, math.Abs(a), 1.0)
		}
	}
}

func TestDDPGSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	agent, err := policies.NewDDPG(testObsDim, testActionDim, ddpgHyperparameters(), compute.Single(), 11)
	require.NoError(t, err)
	buf := filledBuffer(16, 33, false)
	require.NoError(t, agent.TrainStep(buf, testBatchSize))
	require.NoError(t, agent.Save("checkpoint", dir))

	restored, err := policies.NewDDPG(testObsDim, testActionDim, ddpgHyperparameters(), compute.Single(), 99)
	require.NoError(t, err)
	require.NoError(t, restored.Load("checkpoint", dir))

	requireParamsEqual(t, agent.Params(), restored.Params())
	requireParamsEqual(t, restored.Params(), restored.TargetParams())
}

func TestSACTrainingIsDeterministic(t *testing.T) {
	run := func() *policies.SAC {
		agent, err := policies.NewSAC(testObsDim, testActionDim, sacHyperparameters(), compute.Single(), 13)
		require.NoError(t, err)
		buf := filledBuffer(16, 55, false)
		for i := 0; i < 5; i++ {
			require.NoError(t, agent.TrainStep(buf, testBatchSize))
		}
		return agent
	}

	a, b := run(), run()
	requireParamsEqual(t, a.Params(), b.Params())
	requireParamsEqual(t, a.TargetParams(), b.TargetParams())
	assert.Equal(t, a.Alpha(), b.Alpha())
}

func TestSACTemperatureAdapts(t *testing.T) {
	agent, err := policies.NewSAC(testObsDim, testActionDim, sacHyperparameters(), compute.Single(), 13)
	require.NoError(t, err)
	assert.Equal(t, 1.0, agent.Alpha())

	buf := filledBuffer(16, 55, false)
	for i := 0; i < 3; i++ {
		require.NoError(t, agent.TrainStep(buf, testBatchSize))
	}
	assert.NotEqual(t, 1.0, agent.Alpha())
	assert.False(t, math.IsNaN(agent.Alpha()))
	assert.Greater(t, agent.Alpha(), 0.0)
}

func TestSACEvaluationModeIsDeterministic(t *testing.T) {
	agent, err := policies.NewSAC(testObsDim, testActionDim, sacHyperparameters(), compute.Single(), 13)
	require.NoError(t, err)

	state := []float64{0.1, -0.2, 0.3}
	a := agent.SelectAction(state, true)
	b := agent.SelectAction(state, true)
	assert.Equal(t, a, b)

	// the training-mode action is a fresh stochastic sample
	c := agent.SelectAction(state, false)
	d := agent.SelectAction(state, false)
	assert.NotEqual(t, c, d)
	for _, v := range c {
		assert.LessOrEqual(t, math.Abs(v), 1.0)
	}
}

func TestSACTargetSyncFollowsPolicyUpdateFreq(t *testing.T) {
	hp := sacHyperparameters()
	hp["policy_update_freq"] = 2
	agent, err := policies.NewSAC(testObsDim, testActionDim, hp, compute.Single(), 13)
	require.NoError(t, err)
	buf := filledBuffer(16, 55, false)

	initial := snapshot(agent.TargetParams())
	require.NoError(t, agent.TrainStep(buf, testBatchSize))
	assert.Equal(t, 1, agent.LearnCounter())
	requireParamsEqual(t, initial, agent.TargetParams())

	require.NoError(t, agent.TrainStep(buf, testBatchSize))
	assert.Equal(t, 2, agent.LearnCounter())
	requireParamsDiffer(t, initial, agent.TargetParams())
}

func TestSACSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	agent, err := policies.NewSAC(testObsDim, testActionDim, sacHyperparameters(), compute.Single(), 13)
	require.NoError(t, err)
	buf := filledBuffer(16, 55, false)
	require.NoError(t, agent.TrainStep(buf, testBatchSize))
	require.NoError(t, agent.Save("checkpoint", dir))

	restored, err := policies.NewSAC(testObsDim, testActionDim, sacHyperparameters(), compute.Single(), 99)
	require.NoError(t, err)
	require.NoError(t, restored.Load("checkpoint", dir))

	requireParamsEqual(t, agent.Params(), restored.Params())
	// both restored critics are hard-synced into their targets
	requireParamsEqual(t, restored.Params()[len(restored.Params())-12:], restored.TargetParams())
}

func TestSACLoadMissingCheckpoint(t *testing.T) {
	agent, err := policies.NewSAC(testObsDim, testActionDim, sacHyperparameters(), compute.Single(), 13)
	require.NoError(t, err)
	require.ErrorIs(t, agent.Load("absent", t.TempDir()), core.ErrPersistence)
}

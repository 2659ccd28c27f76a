package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	logStdMin = -20.0
	logStdMax = 2.0
	squashEps = 1e-6

	halfLog2Pi = 0.9189385332046727 // 0.5*ln(2*pi)
)

// GaussianPolicy is a tanh-squashed gaussian actor head: a shared trunk
// feeding separate mean and log-std layers. Sampling is reparameterized
// so gradients flow through both the action and its log-probability.
type GaussianPolicy struct {
	trunk  *MLP
	mean   *Dense
	logStd *Dense

	noise distuv.Normal
}

func NewGaussianPolicy(obsDim, actionDim int, hidden []int, rng *rand.Rand) *GaussianPolicy {
	sizes := append([]int{obsDim}, hidden...)
	return &GaussianPolicy{
		trunk:  NewMLP(sizes, ActReLU, ActReLU, rng),
		mean:   NewDense(hidden[len(hidden)-1], actionDim, ActNone, rng),
		logStd: NewDense(hidden[len(hidden)-1], actionDim, ActNone, rng),
		noise:  distuv.Normal{Mu: 0, Sigma: 1, Src: rng},
	}
}

// GaussianSample holds a reparameterized draw plus the caches Backward
// needs. Mean is the deterministic evaluation action tanh(mu).
type GaussianSample struct {
	Action  *mat.Dense // m×n, tanh-squashed
	LogProb *mat.Dense // m×1
	Mean    *mat.Dense // m×n

	sigma *mat.Dense
	eps   *mat.Dense
	raw   *mat.Dense // log-std before clamping
}

func (g *GaussianPolicy) Sample(x *mat.Dense) *GaussianSample {
	h := g.trunk.Forward(x)
	mu := g.mean.Forward(h)
	raw := g.logStd.Forward(h)

	m, n := mu.Dims()
	sigma := mat.NewDense(m, n, nil)
	eps := mat.NewDense(m, n, nil)
	action := mat.NewDense(m, n, nil)
	meanAction := mat.NewDense(m, n, nil)
	logProb := mat.NewDense(m, 1, nil)

	for i := 0; i < m; i++ {
		lp := 0.0
		for j := 0; j < n; j++ {
			cl := clamp(raw.At(i, j), logStdMin, logStdMax)
			sig := math.Exp(cl)
			e := g.noise.Rand()
			u := mu.At(i, j) + sig*e
			a := math.Tanh(u)

			sigma.Set(i, j, sig)
			eps.Set(i, j, e)
			action.Set(i, j, a)
			meanAction.Set(i, j, math.Tanh(mu.At(i, j)))

			lp += -0.5*e*e - cl - halfLog2Pi - math.Log(1-a*a+squashEps)
		}
		logProb.Set(i, 0, lp)
	}

	return &GaussianSample{
		Action:  action,
		LogProb: logProb,
		Mean:    meanAction,
		sigma:   sigma,
		eps:     eps,
		raw:     raw,
	}
}

// MeanAction returns tanh(mu) without consuming randomness.
func (g *GaussianPolicy) MeanAction(x *mat.Dense) *mat.Dense {
	h := g.trunk.Forward(x)
	mu := g.mean.Forward(h)
	m, n := mu.Dims()
	out := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, math.Tanh(mu.At(i, j)))
		}
	}
	return out
}

// Backward accumulates parameter gradients for a loss with per-element
// action gradients gradAction (m×n) and per-sample log-probability
// gradients gradLogProb (m×1). Must be called on the most recent
// Sample of this policy.
func (g *GaussianPolicy) Backward(s *GaussianSample, gradAction, gradLogProb *mat.Dense) {
	m, n := s.Action.Dims()
	gradMu := mat.NewDense(m, n, nil)
	gradLS := mat.NewDense(m, n, nil)

	for i := 0; i < m; i++ {
		gLP := gradLogProb.At(i, 0)
		for j := 0; j < n; j++ {
			a := s.Action.At(i, j)
			oneMinusA2 := 1 - a*a
			// d(logProb)/du through the squash correction term.
			dLogPdU := 2 * a * oneMinusA2 / (oneMinusA2 + squashEps)
			// du/dmu = 1, da/du = 1-a².
			dU := gradAction.At(i, j)*oneMinusA2 + gLP*dLogPdU
			gradMu.Set(i, j, dU)
			// du/dlogstd = sigma*eps; logProb also depends on logstd directly.
			gls := dU*s.sigma.At(i, j)*s.eps.At(i, j) - gLP
			// the clamp passes no gradient outside its bounds
			if raw := s.raw.At(i, j); raw < logStdMin || raw > logStdMax {
				gls = 0
			}
			gradLS.Set(i, j, gls)
		}
	}

	gradH := g.mean.Backward(gradMu)
	gradH2 := g.logStd.Backward(gradLS)
	gradH.Add(gradH, gradH2)
	g.trunk.Backward(gradH)
}

func (g *GaussianPolicy) Params() []*mat.Dense {
	out := g.trunk.Params()
	out = append(out, g.mean.W, g.mean.B, g.logStd.W, g.logStd.B)
	return out
}

func (g *GaussianPolicy) Grads() []*mat.Dense {
	out := g.trunk.Grads()
	out = append(out, g.mean.gradW, g.mean.gradB, g.logStd.gradW, g.logStd.gradB)
	return out
}

func (g *GaussianPolicy) ZeroGrads() {
	g.trunk.ZeroGrads()
	g.mean.ZeroGrads()
	g.logStd.ZeroGrads()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

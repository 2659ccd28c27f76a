package envs

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/kestrel-rl/kestrel/core"
)

const (
	pdGravity   = 10.0
	pdMass      = 1.0
	pdLength    = 1.0
	pdDt        = 0.05
	pdMaxTorque = 2.0
	pdMaxSpeed  = 8.0
	pdMaxSteps  = 200
)

// Pendulum is the swing-up task: 3-dim observation [cos θ, sin θ, θ̇],
// one continuous torque in [-2, 2], shaped cost reward. Episodes never
// terminate; they truncate at the step limit.
type Pendulum struct {
	theta, thetaDot float64
	steps           int
	rng             *rand.Rand
}

var _ core.Environment = &Pendulum{}

func NewPendulum(seed uint64) *Pendulum {
	return &Pendulum{rng: rand.New(rand.NewSource(seed))}
}

func (e *Pendulum) Reset() ([]float64, error) {
	e.theta = e.rng.Float64()*2*math.Pi - math.Pi
	e.thetaDot = e.rng.Float64()*2 - 1
	e.steps = 0
	return e.observation(), nil
}

func (e *Pendulum) Step(action []float64) ([]float64, float64, bool, bool, error) {
	torque := clampFloat(action[0], -pdMaxTorque, pdMaxTorque)

	angle := normalizeAngle(e.theta)
	cost := angle*angle + 0.1*e.thetaDot*e.thetaDot + 0.001*torque*torque

	acc := 3*pdGravity/(2*pdLength)*math.Sin(e.theta) +
		3/(pdMass*pdLength*pdLength)*torque
	e.thetaDot = clampFloat(e.thetaDot+acc*pdDt, -pdMaxSpeed, pdMaxSpeed)
	e.theta += e.thetaDot * pdDt
	e.steps++

	truncated := e.steps >= pdMaxSteps
	return e.observation(), -cost, false, truncated, nil
}

func (e *Pendulum) SampleAction() []float64 {
	return []float64{e.rng.Float64()*2*pdMaxTorque - pdMaxTorque}
}

func (e *Pendulum) ObservationSpace() int { return 3 }

func (e *Pendulum) ActionNum() int { return 1 }

func (e *Pendulum) observation() []float64 {
	return []float64{math.Cos(e.theta), math.Sin(e.theta), e.thetaDot}
}

func normalizeAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta < -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

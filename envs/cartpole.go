// Package envs holds the built-in classic-control simulators and the
// platform registry that resolves configuration identifiers to
// environment instances.
package envs

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/kestrel-rl/kestrel/core"
)

const (
	cpGravity        = 9.81
	cpMassCart       = 1.0
	cpMassPole       = 0.1
	cpLength         = 0.5
	cpTotalMass      = cpMassCart + cpMassPole
	cpPoleMassLength = cpMassPole * cpLength
	cpForceMax       = 10.0
	cpTau            = 0.02

	cpXThreshold     = 2.4
	cpThetaThreshold = 12.0 * math.Pi / 180.0
	cpMaxSteps       = 500
)

// CartPole is the pole-balancing task: 4-dim observation, two discrete
// actions (push left, push right), reward 1 per surviving step.
type CartPole struct {
	x, xDot, theta, thetaDot float64
	steps                    int
	rng                      *rand.Rand
}

var _ core.Environment = &CartPole{}

func NewCartPole(seed uint64) *CartPole {
	return &CartPole{rng: rand.New(rand.NewSource(seed))}
}

func (e *CartPole) Reset() ([]float64, error) {
	e.x = e.rng.Float64()*0.1 - 0.05
	e.xDot = e.rng.Float64()*0.1 - 0.05
	e.theta = e.rng.Float64()*0.1 - 0.05
	e.thetaDot = e.rng.Float64()*0.1 - 0.05
	e.steps = 0
	return e.observation(), nil
}

func (e *CartPole) Step(action []float64) ([]float64, float64, bool, bool, error) {
	force := cpForceMax
	if int(action[0]) == 0 {
		force = -cpForceMax
	}

	cosTheta := math.Cos(e.theta)
	sinTheta := math.Sin(e.theta)

	temp := (force + cpPoleMassLength*e.thetaDot*e.thetaDot*sinTheta) / cpTotalMass
	thetaAcc := (cpGravity*sinTheta - cosTheta*temp) /
		(cpLength * (4.0/3.0 - cpMassPole*cosTheta*cosTheta/cpTotalMass))
	xAcc := temp - cpPoleMassLength*thetaAcc*cosTheta/cpTotalMass

	e.x += cpTau * e.xDot
	e.xDot += cpTau * xAcc
	e.theta += cpTau * e.thetaDot
	e.thetaDot += cpTau * thetaAcc
	e.steps++

	done := e.x < -cpXThreshold || e.x > cpXThreshold ||
		e.theta < -cpThetaThreshold || e.theta > cpThetaThreshold
	truncated := e.steps >= cpMaxSteps

	return e.observation(), 1.0, done, truncated, nil
}

func (e *CartPole) SampleAction() []float64 {
	return []float64{float64(e.rng.Intn(2))}
}

func (e *CartPole) ObservationSpace() int { return 4 }

func (e *CartPole) ActionNum() int { return 2 }

func (e *CartPole) observation() []float64 {
	return []float64{e.x, e.xDot, e.theta, e.thetaDot}
}

package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// Adam updates a fixed set of parameter matrices in place.
type Adam struct {
	lr     float64
	t      int
	params []*mat.Dense
	m      []*mat.Dense
	v      []*mat.Dense
}

func NewAdam(params []*mat.Dense, lr float64) *Adam {
	m := make([]*mat.Dense, len(params))
	v := make([]*mat.Dense, len(params))
	for i, p := range params {
		r, c := p.Dims()
		m[i] = mat.NewDense(r, c, nil)
		v[i] = mat.NewDense(r, c, nil)
	}
	return &Adam{lr: lr, params: params, m: m, v: v}
}

// Step applies one update from grads, which must be index-aligned with
// the parameters the optimizer was built over.
func (a *Adam) Step(grads []*mat.Dense) {
	a.t++
	bc1 := 1 - math.Pow(adamBeta1, float64(a.t))
	bc2 := 1 - math.Pow(adamBeta2, float64(a.t))
	for i, p := range a.params {
		g := grads[i].RawMatrix().Data
		pd := p.RawMatrix().Data
		md := a.m[i].RawMatrix().Data
		vd := a.v[i].RawMatrix().Data
		for k := range pd {
			md[k] = adamBeta1*md[k] + (1-adamBeta1)*g[k]
			vd[k] = adamBeta2*vd[k] + (1-adamBeta2)*g[k]*g[k]
			mHat := md[k] / bc1
			vHat := vd[k] / bc2
			pd[k] -= a.lr * mHat / (math.Sqrt(vHat) + adamEps)
		}
	}
}

// ScalarAdam is an Adam optimizer over a single scalar, used for the
// SAC temperature.
type ScalarAdam struct {
	lr   float64
	t    int
	m, v float64
}

func NewScalarAdam(lr float64) *ScalarAdam {
	return &ScalarAdam{lr: lr}
}

func (a *ScalarAdam) Step(param *float64, grad float64) {
	a.t++
	a.m = adamBeta1*a.m + (1-adamBeta1)*grad
	a.v = adamBeta2*a.v + (1-adamBeta2)*grad*grad
	mHat := a.m / (1 - math.Pow(adamBeta1, float64(a.t)))
	vHat := a.v / (1 - math.Pow(adamBeta2, float64(a.t)))
	*param -= a.lr * mHat / (math.Sqrt(vHat) + adamEps)
}

// Package nn implements the small feed-forward networks the algorithm
// variants train: dense layers with hand-written backward passes, an
// Adam optimizer, target-parameter synchronization and parameter
// persistence. Matrices are gonum dense matrices with one sample per
// row.
package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

type Activation int

const (
	ActNone Activation = iota
	ActReLU
	ActTanh
)

// Dense is one fully-connected layer. W is in×out, B is 1×out.
// Backward accumulates gradients until ZeroGrads.
type Dense struct {
	W *mat.Dense
	B *mat.Dense

	act Activation
	in  int
	out int

	gradW *mat.Dense
	gradB *mat.Dense

	// forward caches
	x   *mat.Dense
	val *mat.Dense
}

// NewDense initializes W and B uniformly in ±1/sqrt(in).
func NewDense(in, out int, act Activation, rng *rand.Rand) *Dense {
	bound := 1.0 / math.Sqrt(float64(in))
	w := mat.NewDense(in, out, nil)
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			w.Set(i, j, rng.Float64()*2*bound-bound)
		}
	}
	b := mat.NewDense(1, out, nil)
	for j := 0; j < out; j++ {
		b.Set(0, j, rng.Float64()*2*bound-bound)
	}
	return &Dense{
		W:     w,
		B:     b,
		act:   act,
		in:    in,
		out:   out,
		gradW: mat.NewDense(in, out, nil),
		gradB: mat.NewDense(1, out, nil),
	}
}

func (d *Dense) Forward(x *mat.Dense) *mat.Dense {
	m, _ := x.Dims()
	z := mat.NewDense(m, d.out, nil)
	z.Mul(x, d.W)
	for i := 0; i < m; i++ {
		for j := 0; j < d.out; j++ {
			z.Set(i, j, z.At(i, j)+d.B.At(0, j))
		}
	}
	switch d.act {
	case ActReLU:
		z.Apply(func(_, _ int, v float64) float64 {
			if v < 0 {
				return 0
			}
			return v
		}, z)
	case ActTanh:
		z.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, z)
	}
	d.x = x
	d.val = z
	return z
}

// Backward takes the loss gradient with respect to this layer's output
// and returns the gradient with respect to its input. Parameter
// gradients accumulate into gradW and gradB.
func (d *Dense) Backward(grad *mat.Dense) *mat.Dense {
	m, _ := grad.Dims()

	dz := mat.NewDense(m, d.out, nil)
	switch d.act {
	case ActReLU:
		for i := 0; i < m; i++ {
			for j := 0; j < d.out; j++ {
				if d.val.At(i, j) > 0 {
					dz.Set(i, j, grad.At(i, j))
				}
			}
		}
	case ActTanh:
		for i := 0; i < m; i++ {
			for j := 0; j < d.out; j++ {
				v := d.val.At(i, j)
				dz.Set(i, j, grad.At(i, j)*(1-v*v))
			}
		}
	default:
		dz.Copy(grad)
	}

	var gw mat.Dense
	gw.Mul(d.x.T(), dz)
	d.gradW.Add(d.gradW, &gw)

	for j := 0; j < d.out; j++ {
		sum := d.gradB.At(0, j)
		for i := 0; i < m; i++ {
			sum += dz.At(i, j)
		}
		d.gradB.Set(0, j, sum)
	}

	gradIn := mat.NewDense(m, d.in, nil)
	gradIn.Mul(dz, d.W.T())
	return gradIn
}

func (d *Dense) ZeroGrads() {
	d.gradW.Zero()
	d.gradB.Zero()
}

// Clone copies the layer's parameters into a fresh layer with empty
// gradients and caches.
func (d *Dense) Clone() *Dense {
	w := mat.DenseCopyOf(d.W)
	b := mat.DenseCopyOf(d.B)
	return &Dense{
		W:     w,
		B:     b,
		act:   d.act,
		in:    d.in,
		out:   d.out,
		gradW: mat.NewDense(d.in, d.out, nil),
		gradB: mat.NewDense(1, d.out, nil),
	}
}

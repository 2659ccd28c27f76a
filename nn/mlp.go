package nn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// MLP chains dense layers. All hidden layers share one activation; the
// last layer has its own.
type MLP struct {
	layers []*Dense
}

// NewMLP builds a network with the given layer sizes, e.g.
// [obs, 256, 256, actions].
func NewMLP(sizes []int, hidden, out Activation, rng *rand.Rand) *MLP {
	layers := make([]*Dense, 0, len(sizes)-1)
	for i := 0; i < len(sizes)-1; i++ {
		act := hidden
		if i == len(sizes)-2 {
			act = out
		}
		layers = append(layers, NewDense(sizes[i], sizes[i+1], act, rng))
	}
	return &MLP{layers: layers}
}

func (m *MLP) Forward(x *mat.Dense) *mat.Dense {
	for _, l := range m.layers {
		x = l.Forward(x)
	}
	return x
}

// Backward propagates the output gradient through every layer and
// returns the gradient with respect to the network input.
func (m *MLP) Backward(grad *mat.Dense) *mat.Dense {
	for i := len(m.layers) - 1; i >= 0; i-- {
		grad = m.layers[i].Backward(grad)
	}
	return grad
}

// Params returns the parameter matrices in a fixed order,
// index-aligned with Grads.
func (m *MLP) Params() []*mat.Dense {
	out := make([]*mat.Dense, 0, 2*len(m.layers))
	for _, l := range m.layers {
		out = append(out, l.W, l.B)
	}
	return out
}

func (m *MLP) Grads() []*mat.Dense {
	out := make([]*mat.Dense, 0, 2*len(m.layers))
	for _, l := range m.layers {
		out = append(out, l.gradW, l.gradB)
	}
	return out
}

func (m *MLP) ZeroGrads() {
	for _, l := range m.layers {
		l.ZeroGrads()
	}
}

// Clone deep-copies the network for use as a target copy.
func (m *MLP) Clone() *MLP {
	layers := make([]*Dense, len(m.layers))
	for i, l := range m.layers {
		layers[i] = l.Clone()
	}
	return &MLP{layers: layers}
}

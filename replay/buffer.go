// Package replay provides the in-memory transition store the trainer
// samples gradient batches from.
package replay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/kestrel-rl/kestrel/core"
	"github.com/kestrel-rl/kestrel/util"
)

// Buffer is a fixed-capacity ring of transitions. Transitions are
// copied on insert; the buffer owns its records. Sampling is uniform
// with a seeded source.
type Buffer struct {
	capacity int
	size     int
	pos      int

	states     [][]float64
	actions    [][]float64
	rewards    []float64
	nextStates [][]float64
	dones      []float64
	aux        [][]float64

	rng *rand.Rand
}

var (
	_ core.Memory      = &Buffer{}
	_ core.BatchMemory = &Buffer{}
)

func NewBuffer(capacity int, seed uint64) *Buffer {
	return &Buffer{
		capacity:   capacity,
		states:     make([][]float64, capacity),
		actions:    make([][]float64, capacity),
		rewards:    make([]float64, capacity),
		nextStates: make([][]float64, capacity),
		dones:      make([]float64, capacity),
		aux:        make([][]float64, capacity),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (b *Buffer) AddExperience(state, action []float64, reward float64, next []float64, done bool, aux ...float64) {
	b.states[b.pos] = util.CopyFloatSlice(state)
	b.actions[b.pos] = util.CopyFloatSlice(action)
	b.rewards[b.pos] = reward
	b.nextStates[b.pos] = util.CopyFloatSlice(next)
	if done {
		b.dones[b.pos] = 1
	} else {
		b.dones[b.pos] = 0
	}
	if len(aux) > 0 {
		b.aux[b.pos] = util.CopyFloatSlice(aux)
	} else {
		b.aux[b.pos] = nil
	}

	b.pos = (b.pos + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

func (b *Buffer) SampleExperience(batchSize int) (core.Batch, error) {
	if batchSize > b.size {
		return core.Batch{}, fmt.Errorf("replay: requested %d transitions, buffer holds %d", batchSize, b.size)
	}
	batch := newBatch(batchSize)
	for i := 0; i < batchSize; i++ {
		idx := b.rng.Intn(b.size)
		b.copyInto(&batch, i, idx)
	}
	return batch, nil
}

func (b *Buffer) SampleAll() (core.Batch, error) {
	if b.size == 0 {
		return core.Batch{}, fmt.Errorf("replay: buffer is empty")
	}
	batch := newBatch(b.size)
	start := 0
	if b.size == b.capacity {
		start = b.pos
	}
	for i := 0; i < b.size; i++ {
		b.copyInto(&batch, i, (start+i)%b.capacity)
	}
	return batch, nil
}

func (b *Buffer) Clear() {
	b.size = 0
	b.pos = 0
}

func (b *Buffer) Size() int {
	return b.size
}

func newBatch(n int) core.Batch {
	return core.Batch{
		States:     make([][]float64, n),
		Actions:    make([][]float64, n),
		Rewards:    make([]float64, n),
		NextStates: make([][]float64, n),
		Dones:      make([]float64, n),
		Aux:        make([][]float64, n),
	}
}

func (b *Buffer) copyInto(batch *core.Batch, dst, src int) {
	batch.States[dst] = util.CopyFloatSlice(b.states[src])
	batch.Actions[dst] = util.CopyFloatSlice(b.actions[src])
	batch.Rewards[dst] = b.rewards[src]
	batch.NextStates[dst] = util.CopyFloatSlice(b.nextStates[src])
	batch.Dones[dst] = b.dones[src]
	if b.aux[src] != nil {
		batch.Aux[dst] = util.CopyFloatSlice(b.aux[src])
	}
}

package replay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-rl/kestrel/replay"
)

func addN(buf *replay.Buffer, n int, offset float64) {
	for i := 0; i < n; i++ {
		v := offset + float64(i)
		buf.AddExperience([]float64{v}, []float64{0}, v, []float64{v + 1}, false)
	}
}

func TestBufferGrowsToCapacity(t *testing.T) {
	buf := replay.NewBuffer(4, 1)
	assert.Equal(t, 0, buf.Size())

	addN(buf, 3, 0)
	assert.Equal(t, 3, buf.Size())

	addN(buf, 3, 3)
	assert.Equal(t, 4, buf.Size())
}

func TestBufferEvictsOldestFirst(t *testing.T) {
	buf := replay.NewBuffer(4, 1)
	addN(buf, 6, 0)

	batch, err := buf.SampleAll()
	require.NoError(t, err)
	require.Equal(t, 4, batch.Len())

	// rewards 0 and 1 were overwritten; insertion order is preserved
	assert.Equal(t, []float64{2, 3, 4, 5}, batch.Rewards)
}

func TestBufferSampleRequiresEnoughTransitions(t *testing.T) {
	buf := replay.NewBuffer(8, 1)
	addN(buf, 3, 0)

	_, err := buf.SampleExperience(4)
	require.Error(t, err)

	batch, err := buf.SampleExperience(3)
	require.NoError(t, err)
	assert.Equal(t, 3, batch.Len())
}

func TestBufferSamplingIsSeeded(t *testing.T) {
	a := replay.NewBuffer(16, 7)
	b := replay.NewBuffer(16, 7)
	addN(a, 16, 0)
	addN(b, 16, 0)

	ba, err := a.SampleExperience(8)
	require.NoError(t, err)
	bb, err := b.SampleExperience(8)
	require.NoError(t, err)
	assert.Equal(t, ba.Rewards, bb.Rewards)
}

func TestBufferCopiesOnInsert(t *testing.T) {
	buf := replay.NewBuffer(4, 1)
	state := []float64{1, 2}
	buf.AddExperience(state, []float64{0}, 0, []float64{3, 4}, false)

	state[0] = 99
	batch, err := buf.SampleAll()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, batch.States[0])
}

func TestBufferStoresDonesAndAux(t *testing.T) {
	buf := replay.NewBuffer(4, 1)
	buf.AddExperience([]float64{0}, []float64{0}, 0, []float64{1}, true, 0.25)
	buf.AddExperience([]float64{1}, []float64{0}, 0, []float64{2}, false)

	batch, err := buf.SampleAll()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, batch.Dones)
	assert.Equal(t, []float64{0.25}, batch.Aux[0])
	assert.Nil(t, batch.Aux[1])
}

func TestBufferClear(t *testing.T) {
	buf := replay.NewBuffer(4, 1)
	addN(buf, 4, 0)
	buf.Clear()
	assert.Equal(t, 0, buf.Size())

	_, err := buf.SampleAll()
	require.Error(t, err)

	// reusable after a clear
	addN(buf, 2, 10)
	batch, err := buf.SampleAll()
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11}, batch.Rewards)
}

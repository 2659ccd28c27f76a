package compute_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-rl/kestrel/compute"
)

func TestDetect(t *testing.T) {
	cctx := compute.Detect()
	assert.Equal(t, "cpu", cctx.Device)
	assert.GreaterOrEqual(t, cctx.Workers, 1)
}

func TestSingleNeverParallelizes(t *testing.T) {
	cctx := compute.Single()
	require.Equal(t, 1, cctx.Workers)

	// with one worker the closures run in order on the calling goroutine
	order := make([]int, 0, 3)
	cctx.Parallel(
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
		func() { order = append(order, 3) },
	)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestParallelRunsEveryClosure(t *testing.T) {
	cctx := &compute.Context{Device: "cpu", Workers: 4}

	var count int64
	fns := make([]func(), 10)
	for i := range fns {
		fns[i] = func() { atomic.AddInt64(&count, 1) }
	}
	cctx.Parallel(fns...)
	assert.Equal(t, int64(10), count)
}

func TestParallelWritesDisjointOutputs(t *testing.T) {
	cctx := &compute.Context{Device: "cpu", Workers: 8}

	out := make([]int, 16)
	fns := make([]func(), 16)
	for i := range fns {
		i := i
		fns[i] = func() { out[i] = i * i }
	}
	cctx.Parallel(fns...)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

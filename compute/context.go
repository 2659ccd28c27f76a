// Package compute detects the numeric capabilities of the host and
// exposes them as an explicit context that is threaded into every
// algorithm constructor. Nothing in this package is a global: callers
// own the Context they detect.
package compute

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

type Context struct {
	// Device names the compute backend. Only "cpu" exists; the field is
	// explicit so numeric code never assumes a hidden default.
	Device string

	// Features lists the detected SIMD capabilities, most capable first.
	Features []string

	// Workers bounds how many independent numeric closures Parallel
	// runs at once.
	Workers int
}

// Detect inspects the host CPU and returns a context describing it.
func Detect() *Context {
	features := make([]string, 0)
	if cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ) {
		features = append(features, "avx512")
	}
	if cpuid.CPU.Supports(cpuid.AVX2) {
		features = append(features, "avx2")
	}
	if cpuid.CPU.Supports(cpuid.SSE4) {
		features = append(features, "sse4")
	}

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	return &Context{
		Device:   "cpu",
		Features: features,
		Workers:  workers,
	}
}

// Single returns a context that never parallelizes. Useful for tests
// that need a fixed execution order.
func Single() *Context {
	return &Context{Device: "cpu", Workers: 1}
}

// Parallel runs the given closures, at most Workers at a time, and
// waits for all of them. Each closure writes only to its own outputs so
// results are independent of scheduling order.
func (c *Context) Parallel(fns ...func()) {
	if c.Workers <= 1 || len(fns) <= 1 {
		for _, fn := range fns {
			fn()
		}
		return
	}

	sem := make(chan struct{}, c.Workers)
	wg := new(sync.WaitGroup)
	for _, fn := range fns {
		wg.Add(1)
		sem <- struct{}{}
		go func(fn func()) {
			defer wg.Done()
			fn()
			<-sem
		}(fn)
	}
	wg.Wait()
}

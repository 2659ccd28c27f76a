package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SoftUpdate moves target parameters toward source parameters:
// target ← tau*source + (1-tau)*target. The two collections must be
// index-aligned and equally shaped; nothing is aliased.
func SoftUpdate(target, source []*mat.Dense, tau float64) error {
	if err := checkAligned(target, source); err != nil {
		return err
	}
	for i := range target {
		td := target[i].RawMatrix().Data
		sd := source[i].RawMatrix().Data
		for k := range td {
			td[k] = tau*sd[k] + (1-tau)*td[k]
		}
	}
	return nil
}

// HardUpdate overwrites target parameters with source parameters.
func HardUpdate(target, source []*mat.Dense) error {
	if err := checkAligned(target, source); err != nil {
		return err
	}
	for i := range target {
		target[i].Copy(source[i])
	}
	return nil
}

func checkAligned(target, source []*mat.Dense) error {
	if len(target) != len(source) {
		return fmt.Errorf("parameter collections differ in length: %d vs %d", len(target), len(source))
	}
	for i := range target {
		tr, tc := target[i].Dims()
		sr, sc := source[i].Dims()
		if tr != sr || tc != sc {
			return fmt.Errorf("parameter %d shape mismatch: %dx%d vs %dx%d", i, tr, tc, sr, sc)
		}
	}
	return nil
}

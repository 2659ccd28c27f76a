package nn

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/kestrel-rl/kestrel/util"
)

type paramSnapshot struct {
	Shapes [][2]int    `json:"shapes"`
	Data   [][]float64 `json:"data"`
}

// SaveParams writes a parameter collection to one JSON file, creating
// missing directories.
func SaveParams(path string, params []*mat.Dense) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	snap := paramSnapshot{
		Shapes: make([][2]int, len(params)),
		Data:   make([][]float64, len(params)),
	}
	for i, p := range params {
		r, c := p.Dims()
		snap.Shapes[i] = [2]int{r, c}
		data := make([]float64, r*c)
		copy(data, p.RawMatrix().Data)
		snap.Data[i] = data
	}
	return util.SaveJson(path, snap)
}

// LoadParams restores a parameter collection saved by SaveParams into
// an equally-shaped collection. A missing file or a shape mismatch is
// an error; parameters are never silently left at their initial values.
func LoadParams(path string, params []*mat.Dense) error {
	var snap paramSnapshot
	if err := util.LoadJson(path, &snap); err != nil {
		return err
	}
	if len(snap.Shapes) != len(params) {
		return fmt.Errorf("parameter file %s holds %d matrices, want %d", path, len(snap.Shapes), len(params))
	}
	for i, p := range params {
		r, c := p.Dims()
		if snap.Shapes[i][0] != r || snap.Shapes[i][1] != c {
			return fmt.Errorf("parameter %d in %s has shape %dx%d, want %dx%d",
				i, path, snap.Shapes[i][0], snap.Shapes[i][1], r, c)
		}
		if len(snap.Data[i]) != r*c {
			return fmt.Errorf("parameter %d in %s has %d values, want %d", i, path, len(snap.Data[i]), r*c)
		}
		copy(p.RawMatrix().Data, snap.Data[i])
	}
	return nil
}

// BatchMatrix packs row slices into a dense matrix, one sample per row.
func BatchMatrix(rows [][]float64) *mat.Dense {
	m := len(rows)
	n := len(rows[0])
	out := mat.NewDense(m, n, nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out
}

// ColumnVector packs values into an m×1 matrix.
func ColumnVector(vals []float64) *mat.Dense {
	out := mat.NewDense(len(vals), 1, nil)
	for i, v := range vals {
		out.Set(i, 0, v)
	}
	return out
}

// SliceCols copies columns [from, to) into a new matrix.
func SliceCols(m *mat.Dense, from, to int) *mat.Dense {
	r, _ := m.Dims()
	out := mat.NewDense(r, to-from, nil)
	for i := 0; i < r; i++ {
		for j := from; j < to; j++ {
			out.Set(i, j-from, m.At(i, j))
		}
	}
	return out
}

// Concat joins two matrices column-wise; rows must match.
func Concat(a, b *mat.Dense) *mat.Dense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br {
		panic(fmt.Sprintf("nn: concat row mismatch %d vs %d", ar, br))
	}
	out := mat.NewDense(ar, ac+bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			out.Set(i, j, a.At(i, j))
		}
		for j := 0; j < bc; j++ {
			out.Set(i, ac+j, b.At(i, j))
		}
	}
	return out
}

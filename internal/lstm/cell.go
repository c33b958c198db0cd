package lstm

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Cell is a single LSTM layer. The four gates are stacked row-wise in the
// weight matrices in the order input, forget, output, candidate.
type Cell struct {
	In, Hidden int

	Wx *mat.Dense    // [4*Hidden x In]
	Wh *mat.Dense    // [4*Hidden x Hidden]
	B  *mat.VecDense // [4*Hidden]
}

// NewCell returns a cell with weights drawn from U(-1/sqrt(hidden), 1/sqrt(hidden)).
// The forget-gate bias starts at 1.
func NewCell(in, hidden int, rng *rand.Rand) *Cell {
	c := &Cell{
		In:     in,
		Hidden: hidden,
		Wx:     mat.NewDense(4*hidden, in, uniform(rng, 4*hidden*in, hidden)),
		Wh:     mat.NewDense(4*hidden, hidden, uniform(rng, 4*hidden*hidden, hidden)),
		B:      mat.NewVecDense(4*hidden, nil),
	}
	for i := hidden; i < 2*hidden; i++ {
		c.B.SetVec(i, 1)
	}
	return c
}

// Step computes one time step from input x and the previous state (h, cell).
// The inputs are not modified; fresh slices are returned.
func (c *Cell) Step(x, h, cell []float64) (hOut, cellOut []float64) {
	gates := mat.NewVecDense(4*c.Hidden, nil)
	gates.MulVec(c.Wx, mat.NewVecDense(c.In, x))
	var rec mat.VecDense
	rec.MulVec(c.Wh, mat.NewVecDense(c.Hidden, h))
	gates.AddVec(gates, &rec)
	gates.AddVec(gates, c.B)

	g := gates.RawVector().Data
	n := c.Hidden
	hOut = make([]float64, n)
	cellOut = make([]float64, n)
	for k := 0; k < n; k++ {
		i := sigmoid(g[k])
		f := sigmoid(g[n+k])
		o := sigmoid(g[2*n+k])
		cand := math.Tanh(g[3*n+k])
		cellOut[k] = f*cell[k] + i*cand
		hOut[k] = o * math.Tanh(cellOut[k])
	}
	return hOut, cellOut
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// uniform returns n samples from U(-1/sqrt(fan), 1/sqrt(fan)).
func uniform(rng *rand.Rand, n, fan int) []float64 {
	bound := 1 / math.Sqrt(float64(fan))
	out := make([]float64, n)
	for i := range out {
		out[i] = (2*rng.Float64() - 1) * bound
	}
	return out
}

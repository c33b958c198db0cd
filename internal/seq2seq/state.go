package seq2seq

import "slices"

// BeamState is the private decoding state of one hypothesis: the history of
// hidden/cell states appended by each decoder step and the tokens fed in.
//
// A BeamState is owned by exactly one search slot. When a hypothesis forks,
// the fork receives a Clone; two slots never share one BeamState.
type BeamState struct {
	Hiddens [][]float64
	Cells   [][]float64
	Tokens  []int
}

// Seed creates width fresh beam states. They all start from the same encoder
// state, which is read through the EncoderState passed to every step and never
// copied into the beams.
func Seed(width int) []*BeamState {
	beams := make([]*BeamState, width)
	for i := range beams {
		beams[i] = &BeamState{}
	}
	return beams
}

// Len returns the number of decoder steps applied to the state.
func (s *BeamState) Len() int {
	return len(s.Hiddens)
}

// Append records the state produced by one decoder step.
func (s *BeamState) Append(hidden, cell []float64) {
	s.Hiddens = append(s.Hiddens, hidden)
	s.Cells = append(s.Cells, cell)
}

// Last returns the most recent hidden/cell pair. ok is false before the
// first step, in which case the caller should start from the encoder state.
func (s *BeamState) Last() (hidden, cell []float64, ok bool) {
	n := len(s.Hiddens)
	if n == 0 {
		return nil, nil, false
	}
	return s.Hiddens[n-1], s.Cells[n-1], true
}

// Clone returns a deep copy: every slice, including each stored vector, is
// duplicated so that stepping the copy never touches the original.
func (s *BeamState) Clone() *BeamState {
	c := &BeamState{
		Hiddens: make([][]float64, len(s.Hiddens)),
		Cells:   make([][]float64, len(s.Cells)),
		Tokens:  slices.Clone(s.Tokens),
	}
	for i, h := range s.Hiddens {
		c.Hiddens[i] = slices.Clone(h)
	}
	for i, v := range s.Cells {
		c.Cells[i] = slices.Clone(v)
	}
	return c
}

package seq2seq

// mapVocab looks words up by id; unknown ids map to "".
type mapVocab map[int]string

func (v mapVocab) Word(id int) string { return v[id] }

// abcVocab is {"a":0, "b":1, "</s>":2}.
var abcVocab = mapVocab{0: "a", 1: "b", 2: DefaultStopSymbol}

// stepCall records one Decoder.Step invocation.
type stepCall struct {
	state *BeamState
	step  int
	prev  int
}

// scriptDecoder returns scores from a function of the step index and the
// previous token. The hidden and cell vectors it appends hold prev so tests
// can check what each beam was fed.
type scriptDecoder struct {
	scores func(step, prev int) []float64
	calls  []stepCall
}

func (d *scriptDecoder) Step(_ *EncoderState, st *BeamState, prev int) []float64 {
	step := st.Len()
	d.calls = append(d.calls, stepCall{state: st, step: step, prev: prev})
	st.Append([]float64{float64(prev)}, []float64{float64(prev)})
	return d.scores(step, prev)
}

// callsAt returns the calls made at the given step index.
func (d *scriptDecoder) callsAt(step int) []stepCall {
	var out []stepCall
	for _, c := range d.calls {
		if c.step == step {
			out = append(out, c)
		}
	}
	return out
}

// constant returns a score function that ignores its inputs.
func constant(scores ...float64) func(int, int) []float64 {
	return func(int, int) []float64 { return append([]float64(nil), scores...) }
}

// modedDecoder wraps a decoder with a fixed mode.
type modedDecoder struct {
	Decoder
	mode Mode
}

func (m modedDecoder) Mode() Mode { return m.mode }

// lazyDecoder violates the step contract by never appending state.
type lazyDecoder struct{}

func (lazyDecoder) Step(*EncoderState, *BeamState, int) []float64 { return []float64{0, 0, 0} }

// silentDecoder appends state but returns no scores.
type silentDecoder struct{}

func (silentDecoder) Step(_ *EncoderState, st *BeamState, _ int) []float64 {
	st.Append(nil, nil)
	return nil
}

var testEnc = &EncoderState{Hidden: []float64{0.5}, Cell: []float64{0.25}}

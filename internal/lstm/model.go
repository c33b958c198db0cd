// Package lstm is a small encoder-decoder LSTM that plugs into the seq2seq
// search engine. Weights are derived from a seed; there is no training or
// weight file support.
package lstm

import (
	"math/rand/v2"
	"sync"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/parley/internal/config"
	"github.com/samcharles93/parley/internal/metrics"
	"github.com/samcharles93/parley/internal/seq2seq"
)

// Params are the read-only weights shared by every copy of a Model.
type Params struct {
	VocabSize int
	WordDim   int
	HiddenDim int

	// Embedding is the word lookup table [VocabSize x WordDim]. It is tied:
	// the same table projects decoder word vectors back to vocabulary scores.
	Embedding *mat.Dense
	Encoder   *Cell
	Decoder   *Cell
	// ToWord maps a decoder hidden state to a word vector [WordDim x HiddenDim].
	ToWord     *mat.Dense
	ToWordBias *mat.VecDense
}

// Model implements seq2seq.Encoder, seq2seq.Decoder and seq2seq.Moded.
//
// A Model is safe for concurrent use: parameters are never written after
// New, and all per-hypothesis state lives in the seq2seq.BeamState passed to
// Step. Dropout sampling is guarded by a mutex.
type Model struct {
	*Params
	dropout float64
	mode    seq2seq.Mode

	mu  *sync.Mutex
	rng *rand.Rand
}

// New builds a model for a vocabulary of vocabSize words, in inference mode.
func New(vocabSize int, hp config.HyperParams) *Model {
	if vocabSize <= 0 {
		exceptions.Panicf("lstm.New: vocabulary size must be positive, got %d", vocabSize)
	}
	if err := hp.Validate(); err != nil {
		exceptions.Panicf("lstm.New: %v", err)
	}
	rng := rand.New(rand.NewPCG(hp.Seed, hp.Seed+1))
	p := &Params{
		VocabSize:  vocabSize,
		WordDim:    hp.WordDim,
		HiddenDim:  hp.HiddenDim,
		Embedding:  mat.NewDense(vocabSize, hp.WordDim, uniform(rng, vocabSize*hp.WordDim, hp.WordDim)),
		Encoder:    NewCell(hp.WordDim, hp.HiddenDim, rng),
		Decoder:    NewCell(hp.WordDim, hp.HiddenDim, rng),
		ToWord:     mat.NewDense(hp.WordDim, hp.HiddenDim, uniform(rng, hp.WordDim*hp.HiddenDim, hp.HiddenDim)),
		ToWordBias: mat.NewVecDense(hp.WordDim, nil),
	}
	return &Model{
		Params:  p,
		dropout: hp.Dropout,
		mode:    seq2seq.ModeInfer,
		mu:      &sync.Mutex{},
		rng:     rand.New(rand.NewPCG(hp.Seed^0x5bd1e995, hp.Seed)),
	}
}

// WithMode returns a copy of m in the given mode. The copy shares weights
// with m.
func (m *Model) WithMode(mode seq2seq.Mode) *Model {
	c := *m
	c.mode = mode
	return &c
}

// Mode reports whether the model runs in training or inference mode.
func (m *Model) Mode() seq2seq.Mode { return m.mode }

// Encode runs the encoder over tokens starting from a zero state. Inputs
// get dropout in training mode.
func (m *Model) Encode(tokens []int) *seq2seq.EncoderState {
	h := make([]float64, m.HiddenDim)
	c := make([]float64, m.HiddenDim)
	for _, id := range tokens {
		x := m.lookup(id)
		if m.mode == seq2seq.ModeTrain && m.dropout > 0 {
			m.applyDropout(x)
		}
		h, c = m.Encoder.Step(x, h, c)
	}
	metrics.RecordEncode(len(tokens))
	return &seq2seq.EncoderState{Hidden: h, Cell: c}
}

// Step advances one hypothesis. The decoder starts from the encoder state
// and feeds a zero word vector on the first step.
func (m *Model) Step(enc *seq2seq.EncoderState, st *seq2seq.BeamState, prev int) []float64 {
	var x []float64
	if prev == seq2seq.StartToken {
		x = make([]float64, m.WordDim)
	} else {
		x = m.lookup(prev)
	}
	h0, c0, ok := st.Last()
	if !ok {
		h0, c0 = enc.Hidden, enc.Cell
	}
	h, c := m.Decoder.Step(x, h0, c0)
	st.Append(h, c)
	return m.scores(h)
}

// scores projects a decoder hidden state to one raw score per word.
func (m *Model) scores(h []float64) []float64 {
	var word mat.VecDense
	word.MulVec(m.ToWord, mat.NewVecDense(m.HiddenDim, h))
	word.AddVec(&word, m.ToWordBias)

	out := mat.NewVecDense(m.VocabSize, nil)
	out.MulVec(m.Embedding, &word)
	return out.RawVector().Data
}

// lookup returns a copy of the embedding row for id.
func (m *Model) lookup(id int) []float64 {
	if id < 0 || id >= m.VocabSize {
		exceptions.Panicf("lstm: token id %d outside vocabulary of %d", id, m.VocabSize)
	}
	return mat.Row(nil, id, m.Embedding)
}

// applyDropout zeroes each element with probability dropout and rescales
// the rest.
func (m *Model) applyDropout(x []float64) {
	keep := 1 - m.dropout
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range x {
		if m.rng.Float64() < m.dropout {
			x[i] = 0
		} else {
			x[i] /= keep
		}
	}
}

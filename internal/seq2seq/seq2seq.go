// Package seq2seq drives an encoder-decoder recurrent network one token at a
// time. It offers two entry points that share a single decoder-step contract:
// BeamSearch for inference and TeacherForcing for scoring known answers.
//
// The package knows nothing about tensors or recurrent cells. A model plugs in
// by implementing Encoder and Decoder; the end-of-sequence symbol is detected
// by value through a Vocabulary.
package seq2seq

import (
	"fmt"
	"math"

	"github.com/gomlx/exceptions"
)

// StartToken is passed to Decoder.Step in place of a previous token on the
// first step of every hypothesis.
const StartToken = -1

// DefaultMaxSteps is the hard ceiling on hypothesis length.
const DefaultMaxSteps = 100

// DefaultStopSymbol marks a finished hypothesis.
const DefaultStopSymbol = "</s>"

// Token is one generated vocabulary entry together with its conditional
// probability at the step it was chosen.
type Token struct {
	ID          int     `json:"id"`
	Probability float64 `json:"probability"`
}

// Candidate is a proposed one-token extension of an active beam. Beam is the
// index of the originating beam in the round that produced the candidate.
type Candidate struct {
	Beam    int
	Path    []Token
	LogProb float64
}

// Last returns the most recently appended token.
func (c Candidate) Last() Token {
	return c.Path[len(c.Path)-1]
}

// Probability returns exp(LogProb).
func (c Candidate) Probability() float64 {
	return math.Exp(c.LogProb)
}

// Result is the outcome of a beam search.
type Result struct {
	// Tokens is the best finished hypothesis, in generation order.
	Tokens []Token
	// LogProb is the cumulative log-probability of Tokens.
	LogProb float64
	// Probability is exp(LogProb).
	Probability float64
	// Rounds is the number of decoder rounds that were run.
	Rounds int
	// Finished holds every retired hypothesis in retirement order.
	Finished []Candidate
}

// IDs returns the token ids of the result.
func (r Result) IDs() []int {
	ids := make([]int, len(r.Tokens))
	for i, t := range r.Tokens {
		ids[i] = t.ID
	}
	return ids
}

// EncoderState is the final hidden/cell pair produced by the encoder. It is
// shared read-only by every beam as the initial condition for step 0.
type EncoderState struct {
	Hidden []float64
	Cell   []float64
}

// Encoder runs the recurrent encoder over an input sentence.
type Encoder interface {
	Encode(tokens []int) *EncoderState
}

// Decoder advances one hypothesis by one step.
//
// Step must append exactly one hidden/cell pair to state and return a raw
// score vector over the whole vocabulary. prev is the token chosen on the
// previous step, or StartToken on step 0.
type Decoder interface {
	Step(enc *EncoderState, state *BeamState, prev int) []float64
}

// Vocabulary maps token ids back to words.
type Vocabulary interface {
	Word(id int) string
}

// Mode reports whether a model is configured for training or inference.
type Mode int

const (
	ModeInfer Mode = iota
	ModeTrain
)

func (m Mode) String() string {
	switch m {
	case ModeInfer:
		return "infer"
	case ModeTrain:
		return "train"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Moded is implemented by decoders that distinguish training from inference.
// Decoders that do not implement it are accepted by both entry points.
type Moded interface {
	Mode() Mode
}

func requireMode(d Decoder, want Mode, entry string) {
	m, ok := d.(Moded)
	if !ok {
		return
	}
	if got := m.Mode(); got != want {
		exceptions.Panicf("%s: decoder is in %s mode, want %s", entry, got, want)
	}
}

// advance feeds prev into the decoder for one hypothesis and checks that the
// decoder honoured the step contract.
func advance(d Decoder, enc *EncoderState, st *BeamState, prev int) []float64 {
	before := st.Len()
	if prev != StartToken {
		st.Tokens = append(st.Tokens, prev)
	}
	scores := d.Step(enc, st, prev)
	if st.Len() != before+1 {
		exceptions.Panicf("decoder step %d: state history grew from %d to %d entries, want exactly one new entry",
			before, before, st.Len())
	}
	if len(scores) == 0 {
		exceptions.Panicf("decoder step %d: empty score vector", before)
	}
	return scores
}

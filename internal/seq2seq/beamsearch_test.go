package seq2seq

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/parley/internal/logger"
)

func TestSearchStopOnFirstStep(t *testing.T) {
	dec := &scriptDecoder{scores: constant(0, 0, 10)}
	res := NewBeamSearch(dec, abcVocab, 1).WithMaxSteps(3).Search(testEnc)

	require.Len(t, res.Tokens, 1)
	assert.Equal(t, 2, res.Tokens[0].ID)
	assert.Equal(t, 1, res.Rounds)
	assert.InDelta(t, math.Exp(res.LogProb), res.Probability, 1e-12)
	assert.InDelta(t, res.Tokens[0].Probability, res.Probability, 1e-12)
	assert.Len(t, res.Finished, 1)
}

func TestSearchCeilingTerminatesAll(t *testing.T) {
	dec := &scriptDecoder{scores: constant(1, 2, 0)}
	res := NewBeamSearch(dec, abcVocab, 2).WithMaxSteps(1).Search(testEnc)

	assert.Equal(t, 1, res.Rounds)
	require.Len(t, res.Finished, 2)
	for _, c := range res.Finished {
		assert.Len(t, c.Path, 1)
	}
	assert.Len(t, dec.calls, 2)
}

func TestSearchForkedBeamsEvolveIndependently(t *testing.T) {
	// Step 0: tokens a and b tie for best, so the top two candidates both
	// extend beam 0. Step 1: every beam stops.
	dec := &scriptDecoder{scores: func(step, _ int) []float64 {
		if step == 0 {
			return []float64{0, 0, -10}
		}
		return []float64{-10, -10, 0}
	}}
	res := NewBeamSearch(dec, abcVocab, 2).Search(testEnc)

	assert.Equal(t, 2, res.Rounds)
	require.Len(t, res.Finished, 2)

	second := dec.callsAt(1)
	require.Len(t, second, 2)
	a, b := second[0].state, second[1].state
	require.NotSame(t, a, b)
	assert.ElementsMatch(t, []int{0, 1}, []int{second[0].prev, second[1].prev})
	assert.Equal(t, []int{second[0].prev}, a.Tokens)
	assert.Equal(t, []int{second[1].prev}, b.Tokens)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())

	// The shared step-0 history was deep-copied.
	a.Hiddens[0][0] = 42
	assert.NotEqual(t, 42.0, b.Hiddens[0][0])

	firsts := map[int]bool{}
	for _, c := range res.Finished {
		require.Len(t, c.Path, 2)
		assert.Less(t, c.Beam, 2)
		firsts[c.Path[0].ID] = true
		assert.Equal(t, 2, c.Last().ID)
	}
	assert.Equal(t, map[int]bool{0: true, 1: true}, firsts)
}

func TestSearchFinishedCountMatchesWidth(t *testing.T) {
	for _, width := range []int{1, 2, 3, 5, 8} {
		rng := rand.New(rand.NewPCG(uint64(width), 7))
		dec := &scriptDecoder{scores: randomScores(rng, 6)}
		vocab := mapVocab{0: DefaultStopSymbol, 1: "x", 2: "y", 3: "z", 4: "w", 5: "v"}
		res := NewBeamSearch(dec, vocab, width).WithMaxSteps(12).Search(testEnc)
		assert.Len(t, res.Finished, width, "width %d", width)
	}
}

func TestSearchTerminatesWithinCeiling(t *testing.T) {
	// Stop is never preferred, so every hypothesis runs to the ceiling.
	dec := &scriptDecoder{scores: constant(1, 1, -50)}
	res := NewBeamSearch(dec, abcVocab, 3).WithMaxSteps(5).Search(testEnc)

	assert.Equal(t, 5, res.Rounds)
	assert.LessOrEqual(t, res.Rounds, 5+1)
	for _, c := range res.Finished {
		assert.Len(t, c.Path, 5)
	}
	assert.Len(t, res.Tokens, 5)
}

func TestSearchDefaultCeiling(t *testing.T) {
	dec := &scriptDecoder{scores: constant(1, 0, -50)}
	bs := NewBeamSearch(dec, abcVocab, 1)
	assert.Equal(t, DefaultMaxSteps, bs.MaxSteps())
	assert.Equal(t, 1, bs.Width())

	res := bs.Search(testEnc)
	assert.Len(t, res.Tokens, DefaultMaxSteps)
	assert.Equal(t, DefaultMaxSteps, res.Rounds)
}

func TestSearchScoresDecayAndBestIsMax(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 11))
	dec := &scriptDecoder{scores: randomScores(rng, 5)}
	vocab := mapVocab{0: "p", 1: "q", 2: "r", 3: DefaultStopSymbol, 4: "s"}
	res := NewBeamSearch(dec, vocab, 4).WithMaxSteps(8).Search(testEnc)

	for _, c := range res.Finished {
		assert.LessOrEqual(t, len(c.Path), 8)
		var running float64
		for _, tok := range c.Path {
			require.Greater(t, tok.Probability, 0.0)
			require.LessOrEqual(t, tok.Probability, 1.0)
			next := running + math.Log(tok.Probability)
			assert.LessOrEqual(t, next, running+1e-12)
			running = next
		}
		assert.InDelta(t, c.LogProb, running, 1e-9)
		assert.LessOrEqual(t, c.LogProb, res.LogProb)
	}
}

func TestSearchFeedsChosenToken(t *testing.T) {
	// Always prefer "b" until step 2, then stop.
	dec := &scriptDecoder{scores: func(step, _ int) []float64 {
		if step < 2 {
			return []float64{0, 5, -5}
		}
		return []float64{-5, -5, 5}
	}}
	res := NewBeamSearch(dec, abcVocab, 1).Search(testEnc)

	assert.Equal(t, []int{1, 1, 2}, res.IDs())
	require.Len(t, dec.calls, 3)
	assert.Equal(t, StartToken, dec.calls[0].prev)
	assert.Equal(t, 1, dec.calls[1].prev)
	assert.Equal(t, 1, dec.calls[2].prev)
}

func TestSearchCustomStopSymbol(t *testing.T) {
	dec := &scriptDecoder{scores: constant(0, 10, 0)}
	res := NewBeamSearch(dec, abcVocab, 1).WithStopSymbol("b").Search(testEnc)
	assert.Equal(t, []int{1}, res.IDs())
}

func TestSearchLogsRounds(t *testing.T) {
	var buf bytes.Buffer
	dec := &scriptDecoder{scores: constant(0, 0, 10)}
	NewBeamSearch(dec, abcVocab, 1).
		WithLogger(logger.JSON(&buf, zerolog.DebugLevel)).
		Search(testEnc)

	out := buf.String()
	assert.Contains(t, out, `"beam.round":1`)
	assert.Contains(t, out, `"beam.phase":"done"`)
}

func TestSearchModeCheck(t *testing.T) {
	dec := &scriptDecoder{scores: constant(0, 0, 10)}

	require.Panics(t, func() {
		NewBeamSearch(modedDecoder{Decoder: dec, mode: ModeTrain}, abcVocab, 1).Search(testEnc)
	})
	require.NotPanics(t, func() {
		NewBeamSearch(modedDecoder{Decoder: dec, mode: ModeInfer}, abcVocab, 1).Search(testEnc)
	})
}

func TestSearchStepContractPanics(t *testing.T) {
	require.Panics(t, func() {
		NewBeamSearch(lazyDecoder{}, abcVocab, 1).Search(testEnc)
	})
	require.Panics(t, func() {
		NewBeamSearch(silentDecoder{}, abcVocab, 1).Search(testEnc)
	})
}

func TestNewBeamSearchRejectsBadConfig(t *testing.T) {
	dec := &scriptDecoder{scores: constant(0)}
	require.Panics(t, func() { NewBeamSearch(dec, abcVocab, 0) })
	require.Panics(t, func() { NewBeamSearch(dec, abcVocab, 1).WithMaxSteps(0) })
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "seeded", PhaseSeeded.String())
	assert.Equal(t, "stepping", PhaseStepping.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
}

func randomScores(rng *rand.Rand, vocab int) func(int, int) []float64 {
	return func(int, int) []float64 {
		s := make([]float64, vocab)
		for i := range s {
			s[i] = rng.NormFloat64() * 2
		}
		return s
	}
}

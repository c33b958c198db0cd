package seq2seq

import (
	"fmt"
	"time"

	"github.com/gomlx/exceptions"

	"github.com/samcharles93/parley/internal/logger"
	"github.com/samcharles93/parley/internal/metrics"
)

// Phase is the lifecycle of one search.
type Phase int

const (
	// PhaseSeeded: beams initialised from the encoder state, no step taken.
	PhaseSeeded Phase = iota
	// PhaseStepping: active beams are advanced and re-ranked each round.
	PhaseStepping
	// PhaseDone: no active beams remain.
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseSeeded:
		return "seeded"
	case PhaseStepping:
		return "stepping"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// BeamSearch decodes the most likely response for an encoded input.
//
// A BeamSearch holds configuration only; every call to Search owns its beams,
// so one BeamSearch may be used from several goroutines when its Decoder is
// safe for concurrent use.
type BeamSearch struct {
	decoder  Decoder
	vocab    Vocabulary
	width    int
	maxSteps int
	stop     string
	log      logger.Logger
}

// NewBeamSearch creates a beam search over decoder with the given width.
// Defaults: step ceiling DefaultMaxSteps, end-of-sequence DefaultStopSymbol,
// no logging.
//
//	bs := seq2seq.NewBeamSearch(model, vocab, 4).WithMaxSteps(30)
//	result := bs.Search(model.Encode(ids))
func NewBeamSearch(decoder Decoder, vocab Vocabulary, width int) *BeamSearch {
	if width <= 0 {
		exceptions.Panicf("NewBeamSearch: beam width must be positive, got %d", width)
	}
	return &BeamSearch{
		decoder:  decoder,
		vocab:    vocab,
		width:    width,
		maxSteps: DefaultMaxSteps,
		stop:     DefaultStopSymbol,
		log:      logger.Nop(),
	}
}

// WithMaxSteps sets the hard ceiling on hypothesis length.
func (b *BeamSearch) WithMaxSteps(n int) *BeamSearch {
	if n <= 0 {
		exceptions.Panicf("BeamSearch.WithMaxSteps: step ceiling must be positive, got %d", n)
	}
	b.maxSteps = n
	return b
}

// WithStopSymbol sets the word that ends a hypothesis.
func (b *BeamSearch) WithStopSymbol(word string) *BeamSearch {
	b.stop = word
	return b
}

// WithLogger sets the logger used for per-round debug output.
func (b *BeamSearch) WithLogger(l logger.Logger) *BeamSearch {
	b.log = l
	return b
}

// Width returns the configured beam width.
func (b *BeamSearch) Width() int { return b.width }

// MaxSteps returns the configured step ceiling.
func (b *BeamSearch) MaxSteps() int { return b.maxSteps }

// Search runs beam search from enc and returns the finished hypothesis with
// the highest cumulative log-probability.
//
// Each round every active beam is stepped once, SelectTopK ranks all
// extensions, and candidates ending in the stop symbol or reaching the step
// ceiling are retired. Survivors carry their origin beam's state forward;
// when one origin has several survivors, all but the first get a deep copy.
// The search ends when no beam is left, which takes at most MaxSteps rounds.
func (b *BeamSearch) Search(enc *EncoderState) Result {
	requireMode(b.decoder, ModeInfer, "BeamSearch.Search")
	start := time.Now()
	log := b.log.WithGroup("beam")

	phase := PhaseSeeded
	beams := Seed(b.width)
	prevTokens := make([]int, b.width)
	for i := range prevTokens {
		prevTokens[i] = StartToken
	}
	log.Debug("search seeded", "phase", phase.String(), "width", b.width, "max_steps", b.maxSteps)

	var (
		ranked   []Candidate
		finished []Candidate
		rounds   int
	)
	phase = PhaseStepping
	log.Debug("phase change", "phase", phase.String())
	for len(beams) > 0 {
		scores := make([][]float64, len(beams))
		for i, st := range beams {
			scores[i] = advance(b.decoder, enc, st, prevTokens[i])
		}
		rounds++

		ranked = SelectTopK(scores, ranked)

		var (
			nextBeams  []*BeamState
			nextTokens []int
			survivors  []Candidate
		)
		claimed := make([]bool, len(beams))
		for _, c := range ranked {
			last := c.Last()
			if reason, done := b.finished(c, last); done {
				finished = append(finished, c)
				metrics.RecordFinished(reason)
				continue
			}
			st := beams[c.Beam]
			if claimed[c.Beam] {
				st = st.Clone()
				metrics.RecordFork()
			}
			claimed[c.Beam] = true
			nextBeams = append(nextBeams, st)
			nextTokens = append(nextTokens, last.ID)
			survivors = append(survivors, c)
		}
		beams, prevTokens, ranked = nextBeams, nextTokens, survivors
		metrics.RecordActiveBeams(len(beams))
		log.Debug("round complete", "round", rounds, "active", len(beams), "finished", len(finished))
	}
	phase = PhaseDone

	if len(finished) != b.width {
		exceptions.Panicf("BeamSearch.Search: %d finished hypotheses, but beam width is %d", len(finished), b.width)
	}

	best := finished[0]
	for _, c := range finished[1:] {
		if c.LogProb > best.LogProb {
			best = c
		}
	}

	res := Result{
		Tokens:      best.Path,
		LogProb:     best.LogProb,
		Probability: best.Probability(),
		Rounds:      rounds,
		Finished:    finished,
	}
	elapsed := time.Since(start)
	metrics.RecordSearch(b.width, rounds, len(res.Tokens), elapsed)
	log.Debug("search complete", "phase", phase.String(), "rounds", rounds, "length", len(res.Tokens),
		"log_prob", res.LogProb, "elapsed", elapsed)
	return res
}

// finished reports whether c ends its hypothesis and why.
func (b *BeamSearch) finished(c Candidate, last Token) (string, bool) {
	if b.vocab.Word(last.ID) == b.stop {
		return metrics.FinishStop, true
	}
	if len(c.Path) >= b.maxSteps {
		return metrics.FinishCeiling, true
	}
	return "", false
}

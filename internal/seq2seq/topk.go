package seq2seq

import (
	"math"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
	"github.com/gomlx/exceptions"

	"github.com/samcharles93/parley/internal/logits"
)

// byLogProb orders candidates by ascending cumulative log-probability, so the
// head of the queue is the weakest candidate kept so far.
func byLogProb(a, b any) int {
	return utils.Float64Comparator(a.(Candidate).LogProb, b.(Candidate).LogProb)
}

// SelectTopK ranks every (beam, token) extension across all beams and returns
// the best len(scores) of them by cumulative log-probability, best first.
//
// scores[i] is the raw score vector of beam i. prev is either empty (first
// step, every beam starts from log-probability 0 and an empty path) or holds
// exactly one candidate per beam, aligned by index, whose LogProb and Path are
// extended. Equal scores are ordered by insertion and eviction order only.
//
// A non-empty prev whose length differs from len(scores) means beams and their
// histories have desynchronised; SelectTopK panics.
func SelectTopK(scores [][]float64, prev []Candidate) []Candidate {
	if len(prev) != 0 && len(prev) != len(scores) {
		exceptions.Panicf("SelectTopK: got %d score vectors but %d previous results", len(scores), len(prev))
	}
	k := len(scores)
	if k == 0 {
		return nil
	}

	queue := priorityqueue.NewWith(byLogProb)
	var logProbs []float64
	for i, beamScores := range scores {
		if cap(logProbs) < len(beamScores) {
			logProbs = make([]float64, len(beamScores))
		}
		logProbs = logits.LogSoftmaxInto(logProbs[:len(beamScores)], beamScores)

		var base float64
		var path []Token
		if len(prev) != 0 {
			base = prev[i].LogProb
			path = prev[i].Path
		}

		for j, lp := range logProbs {
			cumulative := lp + base
			if queue.Size() >= k {
				head, _ := queue.Peek()
				if head.(Candidate).LogProb >= cumulative {
					continue
				}
				queue.Dequeue()
			}
			queue.Enqueue(Candidate{
				Beam:    i,
				Path:    extend(path, Token{ID: j, Probability: math.Exp(lp)}),
				LogProb: cumulative,
			})
		}
	}

	out := make([]Candidate, queue.Size())
	for i := len(out) - 1; i >= 0; i-- {
		v, _ := queue.Dequeue()
		out[i] = v.(Candidate)
	}
	return out
}

// extend returns a new path holding path followed by t. The parent path is
// never written, so sibling candidates never share storage.
func extend(path []Token, t Token) []Token {
	out := make([]Token, len(path)+1)
	copy(out, path)
	out[len(path)] = t
	return out
}

package logits

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// LogSumExp returns log(sum_v exp(scores[v])). The maximum score is subtracted
// before exponentiating, so large scores do not overflow.
// It returns -Inf for an empty slice.
func LogSumExp(scores []float64) float64 {
	if len(scores) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(scores)
}

// LogSoftmax converts a raw score vector into log-probabilities:
//
//	log_prob(j) = score[j] - max - log(sum_v exp(score[v] - max))
//
// The result is written to a newly allocated slice; scores is left untouched.
func LogSoftmax(scores []float64) []float64 {
	return LogSoftmaxInto(make([]float64, len(scores)), scores)
}

// LogSoftmaxInto is LogSoftmax writing into dst, which must have the same
// length as scores. dst and scores may alias.
func LogSoftmaxInto(dst, scores []float64) []float64 {
	if len(dst) != len(scores) {
		panic("logits: LogSoftmaxInto length mismatch")
	}
	if len(scores) == 0 {
		return dst
	}
	maxv := floats.Max(scores)
	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - maxv)
	}
	norm := maxv + math.Log(sum)
	for i, s := range scores {
		dst[i] = s - norm
	}
	return dst
}

// Argmax returns the index of the largest score. If the slice is empty it panics.
func Argmax(scores []float64) int {
	if len(scores) == 0 {
		panic("argmax: empty slice")
	}
	return floats.MaxIdx(scores)
}

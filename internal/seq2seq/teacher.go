package seq2seq

import (
	"github.com/gomlx/exceptions"

	"github.com/samcharles93/parley/internal/logits"
	"github.com/samcharles93/parley/internal/metrics"
)

// TeacherForcing advances a single hypothesis through the decoder using the
// known answer instead of searched tokens. It does no ranking or pruning.
type TeacherForcing struct {
	decoder Decoder
}

// NewTeacherForcing returns a teacher-forced stepper over decoder.
func NewTeacherForcing(decoder Decoder) *TeacherForcing {
	return &TeacherForcing{decoder: decoder}
}

// Run decodes len(answer) positions. Position 0 feeds StartToken and position
// i feeds answer[i-1]. The returned slice holds one raw score vector per
// position, in order.
func (t *TeacherForcing) Run(enc *EncoderState, answer []int) [][]float64 {
	requireMode(t.decoder, ModeTrain, "TeacherForcing.Run")
	st := &BeamState{}
	scores := make([][]float64, len(answer))
	prev := StartToken
	for i, id := range answer {
		scores[i] = advance(t.decoder, enc, st, prev)
		prev = id
	}
	metrics.RecordTeacherForced(len(answer))
	return scores
}

// LogLikelihood sums the log-probability the scores assign to each answer
// token. scores is typically the output of Run for the same answer.
func LogLikelihood(scores [][]float64, answer []int) float64 {
	if len(scores) != len(answer) {
		exceptions.Panicf("LogLikelihood: %d score vectors for %d answer tokens", len(scores), len(answer))
	}
	var total float64
	var buf []float64
	for i, s := range scores {
		id := answer[i]
		if id < 0 || id >= len(s) {
			exceptions.Panicf("LogLikelihood: answer token %d at position %d outside vocabulary of %d", id, i, len(s))
		}
		if cap(buf) < len(s) {
			buf = make([]float64, len(s))
		}
		total += logits.LogSoftmaxInto(buf[:len(s)], s)[id]
	}
	return total
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons a hypothesis is retired from the beam.
const (
	FinishStop    = "stop"
	FinishCeiling = "ceiling"
)

var (
	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_beam_searches_total",
		Help: "Total number of completed beam searches",
	})

	SearchDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "parley_beam_search_duration_seconds",
		Help: "Wall time of a full beam search",
	})

	SearchRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parley_beam_search_rounds",
		Help:    "Number of decoder rounds per beam search",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	BeamWidth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parley_beam_width",
		Help:    "Beam width requested per search",
		Buckets: []float64{1, 2, 4, 8, 16, 32},
	})

	ActiveBeams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parley_active_beams",
		Help: "Active hypotheses after the most recent round",
	})

	HypothesesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_hypotheses_finished_total",
		Help: "Hypotheses retired from the beam, by reason",
	}, []string{"reason"})

	BeamForks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_beam_forks_total",
		Help: "Beam states deep-copied because one hypothesis survived with several continuations",
	})

	ResponseLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parley_response_length_tokens",
		Help:    "Length of the returned response in tokens",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	TeacherForcedPositions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_teacher_forced_positions_total",
		Help: "Decoder positions run with ground-truth inputs",
	})

	EncodedTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_encoded_tokens_total",
		Help: "Input tokens run through the encoder",
	})

	HTTPGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_http_generations_total",
		Help: "Response generation requests served over HTTP, by status class",
	}, []string{"status"})
)

func RecordSearch(width, rounds, responseLen int, duration time.Duration) {
	SearchesTotal.Inc()
	SearchDuration.Observe(duration.Seconds())
	SearchRounds.Observe(float64(rounds))
	BeamWidth.Observe(float64(width))
	ResponseLength.Observe(float64(responseLen))
}

func RecordActiveBeams(n int) {
	ActiveBeams.Set(float64(n))
}

func RecordFinished(reason string) {
	HypothesesFinished.WithLabelValues(reason).Inc()
}

func RecordFork() {
	BeamForks.Inc()
}

func RecordTeacherForced(positions int) {
	TeacherForcedPositions.Add(float64(positions))
}

func RecordEncode(tokens int) {
	EncodedTokens.Add(float64(tokens))
}

func RecordHTTPGeneration(status string) {
	HTTPGenerations.WithLabelValues(status).Inc()
}

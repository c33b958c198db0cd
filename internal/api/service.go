package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gomlx/exceptions"

	"github.com/samcharles93/parley/internal/logger"
	"github.com/samcharles93/parley/internal/seq2seq"
)

// Model is an encoder-decoder usable for beam search.
type Model interface {
	seq2seq.Encoder
	seq2seq.Decoder
}

// Vocabulary converts between words and model ids.
type Vocabulary interface {
	seq2seq.Vocabulary
	Encode(words []string) []int
}

// ServiceConfig sets request defaults and limits.
type ServiceConfig struct {
	BeamWidth    int
	MaxSteps     int
	MaxBeamWidth int
	MaxInputLen  int
}

// DefaultServiceConfig matches the CLI defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		BeamWidth:    4,
		MaxSteps:     seq2seq.DefaultMaxSteps,
		MaxBeamWidth: 32,
		MaxInputLen:  256,
	}
}

// ResponseService turns requests into beam-search responses.
type ResponseService struct {
	model Model
	vocab Vocabulary
	cfg   ServiceConfig
	log   logger.Logger
	clock func() time.Time
}

func NewResponseService(model Model, vocab Vocabulary, cfg ServiceConfig) *ResponseService {
	return &ResponseService{
		model: model,
		vocab: vocab,
		cfg:   cfg,
		log:   logger.Nop(),
		clock: time.Now,
	}
}

// WithLogger sets the logger used for search diagnostics.
func (s *ResponseService) WithLogger(l logger.Logger) *ResponseService {
	s.log = l
	return s
}

// CreateResponse validates req and runs one search. A violated search
// invariant is returned as an error wrapping ErrSearchFailed instead of
// crashing the server.
func (s *ResponseService) CreateResponse(ctx context.Context, req *ResponsesRequest) (*ResponsesResponse, error) {
	words := strings.Fields(req.Input)
	if len(words) == 0 {
		return nil, newInvalidRequest("input", "input must contain at least one word")
	}
	if s.cfg.MaxInputLen > 0 && len(words) > s.cfg.MaxInputLen {
		return nil, newInvalidRequest("input", fmt.Sprintf("input has %d words, limit is %d", len(words), s.cfg.MaxInputLen))
	}
	width := s.cfg.BeamWidth
	if req.BeamWidth != nil {
		width = *req.BeamWidth
	}
	if width <= 0 || (s.cfg.MaxBeamWidth > 0 && width > s.cfg.MaxBeamWidth) {
		return nil, newInvalidRequest("beam_width", fmt.Sprintf("beam_width must be in [1, %d], got %d", s.cfg.MaxBeamWidth, width))
	}
	maxSteps := s.cfg.MaxSteps
	if req.MaxSteps != nil {
		maxSteps = *req.MaxSteps
	}
	if maxSteps <= 0 || maxSteps > seq2seq.DefaultMaxSteps {
		return nil, newInvalidRequest("max_steps", fmt.Sprintf("max_steps must be in [1, %d], got %d", seq2seq.DefaultMaxSteps, maxSteps))
	}

	log := s.log.With("input_words", len(words))
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	ids := s.vocab.Encode(words)

	var result seq2seq.Result
	err := exceptions.TryCatch[error](func() {
		search := seq2seq.NewBeamSearch(s.model, s.vocab, width).
			WithMaxSteps(maxSteps).
			WithLogger(log)
		result = search.Search(s.model.Encode(ids))
	})
	if err != nil {
		log.Error("beam search failed", "error", err, "beam_width", width)
		return nil, searchError{cause: err}
	}

	resp := &ResponsesResponse{
		ID:          newResponseID(),
		Object:      "response",
		CreatedAt:   s.clock().Unix(),
		Status:      "completed",
		Input:       req.Input,
		Tokens:      make([]ResponseToken, 0, len(result.Tokens)),
		Probability: result.Probability,
		LogProb:     result.LogProb,
		Rounds:      result.Rounds,
		BeamWidth:   width,
	}
	var text []string
	for _, tok := range result.Tokens {
		word := s.vocab.Word(tok.ID)
		resp.Tokens = append(resp.Tokens, ResponseToken{ID: tok.ID, Word: word, Probability: tok.Probability})
		if word != seq2seq.DefaultStopSymbol {
			text = append(text, word)
		}
	}
	resp.OutputText = strings.Join(text, " ")
	resp.Usage = &ResponseUsage{
		InputTokens:  len(ids),
		OutputTokens: len(result.Tokens),
		TotalTokens:  len(ids) + len(result.Tokens),
	}
	return resp, nil
}

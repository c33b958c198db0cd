package main

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/samcharles93/parley/internal/config"
	"github.com/samcharles93/parley/internal/corpus"
	"github.com/samcharles93/parley/internal/logger"
	"github.com/samcharles93/parley/internal/lstm"
	"github.com/samcharles93/parley/internal/vocab"
)

// openCorpus reads the corpus files named in cfg.
func openCorpus(cfg config.Config) (*corpus.Corpus, error) {
	if cfg.PostFile == "" || cfg.ResponseFile == "" || cfg.PairFile == "" {
		return nil, errors.New("--post-file, --response-file and --pair-file are required")
	}
	return corpus.Open(cfg.PostFile, cfg.ResponseFile, cfg.PairFile)
}

// loadVocab reads the vocabulary file, or builds one from the corpus when no
// file is configured.
func loadVocab(cfg config.Config, log logger.Logger) (*vocab.Vocab, error) {
	if cfg.VocabFile != "" {
		v, err := vocab.Load(cfg.VocabFile)
		if err != nil {
			return nil, err
		}
		log.Debug("vocabulary loaded", "path", cfg.VocabFile, "words", v.Size())
		return v, nil
	}
	c, err := openCorpus(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "no --vocab given, building from corpus")
	}
	v := vocab.Build(c.Sentences(), cfg.Model.MinWordFreq)
	log.Info("vocabulary built from corpus", "words", humanize.Comma(int64(v.Size())))
	return v, nil
}

// newModel builds the seeded reference model and warns about settings that
// have no effect without weight files.
func newModel(cfg config.Config, v *vocab.Vocab, log logger.Logger) *lstm.Model {
	if cfg.InputModelFile != "" || cfg.OutputModelFilePrefix != "" {
		log.Warn("model files are not supported, weights come from the seed",
			"input_model_file", cfg.InputModelFile,
			"output_model_file_prefix", cfg.OutputModelFilePrefix,
			"seed", cfg.Model.Seed)
	}
	m := lstm.New(v.Size(), cfg.Model)
	log.Debug("model ready",
		"vocab", v.Size(),
		"word_dim", cfg.Model.WordDim,
		"hidden_dim", cfg.Model.HiddenDim,
		"parameters", humanize.Comma(int64(parameterCount(m))))
	return m
}

func parameterCount(m *lstm.Model) int {
	cell := func(c *lstm.Cell) int {
		return 4*c.Hidden*c.In + 4*c.Hidden*c.Hidden + 4*c.Hidden
	}
	return m.VocabSize*m.WordDim + cell(m.Encoder) + cell(m.Decoder) + m.WordDim*m.HiddenDim + m.WordDim
}

// renderWords joins a decoded response, dropping the stop symbol.
func renderWords(v *vocab.Vocab, ids []int) string {
	return strings.Join(v.Decode(ids), " ")
}

package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/parley/internal/corpus"
	"github.com/samcharles93/parley/internal/logger"
	"github.com/samcharles93/parley/internal/lstm"
	"github.com/samcharles93/parley/internal/seq2seq"
	"github.com/samcharles93/parley/internal/vocab"
)

// scoreReport summarises teacher-forced likelihood over a split.
type scoreReport struct {
	Examples int
	Tokens   int
	LogProb  float64
}

// NLL is the mean negative log-likelihood per answer token.
func (r scoreReport) NLL() float64 {
	if r.Tokens == 0 {
		return 0
	}
	return -r.LogProb / float64(r.Tokens)
}

func (r scoreReport) Perplexity() float64 {
	return math.Exp(r.NLL())
}

// scoreExamples teacher-forces every pair and accumulates the likelihood of
// its answer. step is called after each pair.
func scoreExamples(m *lstm.Model, v *vocab.Vocab, c *corpus.Corpus, pairs []corpus.Pair, step func()) scoreReport {
	tf := seq2seq.NewTeacherForcing(m)
	var rep scoreReport
	for _, p := range pairs {
		ex := c.Example(p)
		answer := v.Encode(ex.Answer)
		scores := tf.Run(m.Encode(v.Encode(ex.Post)), answer)
		rep.LogProb += seq2seq.LogLikelihood(scores, answer)
		rep.Tokens += len(answer)
		rep.Examples++
		if step != nil {
			step()
		}
	}
	return rep
}

func pickSplit(name string, train, dev, test []corpus.Pair) ([]corpus.Pair, error) {
	switch name {
	case "dev":
		return dev, nil
	case "test":
		return test, nil
	case "train":
		return train, nil
	}
	return nil, errors.Errorf("unknown split %q (want dev, test or train)", name)
}

func scoreCmd() *cli.Command {
	var (
		split   string
		noProgr bool
	)
	return &cli.Command{
		Name:  "score",
		Usage: "Report teacher-forced perplexity of the model on a corpus split",
		Flags: concat(modelFlags(), corpusFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:        "split",
				Usage:       "which split to score (dev, test, train)",
				Value:       "dev",
				Destination: &split,
			},
			&cli.BoolFlag{
				Name:        "no-progress",
				Usage:       "hide the progress bar",
				Destination: &noProgr,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c, err := openCorpus(cfg)
			if err != nil {
				return err
			}
			v, err := loadVocab(cfg, log)
			if err != nil {
				return err
			}

			pairs := c.Select(corpus.Options{OneResponse: cfg.OneResponse, MaxSampleCount: cfg.MaxSampleCount})
			train, dev, test, err := corpus.Split(pairs, cfg.DevSize, cfg.TestSize, cfg.Model.Seed)
			if err != nil {
				return err
			}
			log.Info("corpus split",
				"pairs", humanize.Comma(int64(len(pairs))),
				"train", humanize.Comma(int64(len(train))),
				"dev", humanize.Comma(int64(len(dev))),
				"test", humanize.Comma(int64(len(test))))
			chosen, err := pickSplit(split, train, dev, test)
			if err != nil {
				return err
			}

			// Evaluation runs the training-mode path without dropout.
			cfg.Model.Dropout = 0
			m := newModel(cfg, v, log).WithMode(seq2seq.ModeTrain)

			var step func()
			if !noProgr && len(chosen) > 0 {
				bar := progressbar.NewOptions(len(chosen),
					progressbar.OptionSetDescription("score "+split),
					progressbar.OptionShowIts(),
					progressbar.OptionSetTheme(progressbar.ThemeASCII),
					progressbar.OptionSetWriter(os.Stderr),
				)
				defer func() { _ = bar.Finish() }()
				step = func() { _ = bar.Add(1) }
			}

			rep := scoreExamples(m, v, c, chosen, step)
			fmt.Printf("split:      %s\n", split)
			fmt.Printf("examples:   %s\n", humanize.Comma(int64(rep.Examples)))
			fmt.Printf("tokens:     %s\n", humanize.Comma(int64(rep.Tokens)))
			fmt.Printf("nll/token:  %.4f\n", rep.NLL())
			fmt.Printf("perplexity: %.2f\n", rep.Perplexity())
			return nil
		},
	}
}

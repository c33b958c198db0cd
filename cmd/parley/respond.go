package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/parley/internal/logger"
	"github.com/samcharles93/parley/internal/lstm"
	"github.com/samcharles93/parley/internal/seq2seq"
	"github.com/samcharles93/parley/internal/vocab"
)

type responder struct {
	model  *lstm.Model
	vocab  *vocab.Vocab
	search *seq2seq.BeamSearch
}

func newResponder(cmd *cli.Command, log logger.Logger) (*responder, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	v, err := loadVocab(cfg, log)
	if err != nil {
		return nil, err
	}
	m := newModel(cfg, v, log)
	return &responder{
		model: m,
		vocab: v,
		search: seq2seq.NewBeamSearch(m, v, cfg.BeamWidth).
			WithMaxSteps(cfg.MaxSteps).
			WithLogger(log),
	}, nil
}

type responseLine struct {
	Input       string          `json:"input"`
	Output      string          `json:"output"`
	Probability float64         `json:"probability"`
	Rounds      int             `json:"rounds"`
	Tokens      []responseToken `json:"tokens"`
}

type responseToken struct {
	Word        string  `json:"word"`
	Probability float64 `json:"probability"`
}

func (r *responder) respond(input string) responseLine {
	ids := r.vocab.Encode(vocab.Tokenize(input))
	res := r.search.Search(r.model.Encode(ids))
	out := responseLine{
		Input:       input,
		Output:      renderWords(r.vocab, res.IDs()),
		Probability: res.Probability,
		Rounds:      res.Rounds,
		Tokens:      make([]responseToken, len(res.Tokens)),
	}
	for i, t := range res.Tokens {
		out.Tokens[i] = responseToken{Word: r.vocab.Word(t.ID), Probability: t.Probability}
	}
	return out
}

func respondCmd() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:      "respond",
		Usage:     "Generate a response for each argument, or for each stdin line",
		ArgsUsage: "[sentence...]",
		Flags: concat(modelFlags(), searchFlags(), corpusFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print one JSON object per response",
				Destination: &asJSON,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			r, err := newResponder(cmd, log)
			if err != nil {
				return err
			}
			emit := func(input string) error {
				line := r.respond(input)
				if asJSON {
					data, err := json.Marshal(line)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(os.Stdout, string(data))
					return err
				}
				_, err := fmt.Fprintf(os.Stdout, "%s\t%.6g\n", line.Output, line.Probability)
				return err
			}

			if args := cmd.Args().Slice(); len(args) > 0 {
				for _, a := range args {
					if err := emit(a); err != nil {
						return err
					}
				}
				return nil
			}
			return eachLine(os.Stdin, emit)
		},
	}
}

// eachLine calls fn for every non-blank line of r.
func eachLine(r io.Reader, fn func(string) error) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

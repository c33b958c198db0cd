package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/parley/internal/logger"
	"github.com/samcharles93/parley/internal/vocab"
)

func vocabCmd() *cli.Command {
	var out string
	return &cli.Command{
		Name:  "vocab",
		Usage: "Build a vocabulary from the corpus and write it as JSON",
		Flags: concat(corpusFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path",
				Value:       "vocab.json",
				Destination: &out,
			},
			&cli.IntFlag{
				Name:  "min-freq",
				Usage: "drop words seen fewer times than this",
				Value: 1,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("min-freq") {
				cfg.Model.MinWordFreq = int(cmd.Int("min-freq"))
			}
			c, err := openCorpus(cfg)
			if err != nil {
				return err
			}
			path, err := prepareOutput(out)
			if err != nil {
				return err
			}
			v := vocab.Build(c.Sentences(), cfg.Model.MinWordFreq)
			if err := v.Save(path); err != nil {
				return err
			}
			log.Info("vocabulary written",
				"path", path,
				"words", humanize.Comma(int64(v.Size())),
				"min_freq", cfg.Model.MinWordFreq)
			fmt.Println(path)
			return nil
		},
	}
}

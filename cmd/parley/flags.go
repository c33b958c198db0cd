package main

import "github.com/urfave/cli/v3"

var (
	configPath string
	logLevel   string
	logFormat  string
	debug      bool

	vocabFile string
	wordDim   int
	hiddenDim int
	dropout   float64
	seed      int64

	beamWidth int
	maxSteps  int

	postFile       string
	responseFile   string
	pairFile       string
	oneResponse    bool
	maxSampleCount int
	devSize        int
	testSize       int
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "vocab",
			Aliases:     []string{"v"},
			Usage:       "path to vocabulary JSON (built from the corpus when empty)",
			Destination: &vocabFile,
		},
		&cli.IntFlag{
			Name:        "word-dim",
			Usage:       "word embedding size",
			Value:       64,
			Destination: &wordDim,
		},
		&cli.IntFlag{
			Name:        "hidden-dim",
			Usage:       "LSTM hidden size",
			Value:       128,
			Destination: &hiddenDim,
		},
		&cli.Float64Flag{
			Name:        "dropout",
			Usage:       "encoder input dropout in training mode",
			Value:       0.1,
			Destination: &dropout,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "weight initialisation seed",
			Value:       1,
			Destination: &seed,
		},
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "beam-width",
			Aliases:     []string{"k"},
			Usage:       "number of hypotheses kept per round",
			Value:       4,
			Destination: &beamWidth,
		},
		&cli.IntFlag{
			Name:        "max-steps",
			Usage:       "hard ceiling on response length",
			Value:       100,
			Destination: &maxSteps,
		},
	}
}

func corpusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "post-file",
			Usage:       "one post per line",
			Destination: &postFile,
		},
		&cli.StringFlag{
			Name:        "response-file",
			Usage:       "one response per line",
			Destination: &responseFile,
		},
		&cli.StringFlag{
			Name:        "pair-file",
			Usage:       "\"post_id response_id\" per line",
			Destination: &pairFile,
		},
		&cli.BoolFlag{
			Name:        "one-response",
			Usage:       "keep only the first response of each post",
			Destination: &oneResponse,
		},
		&cli.IntFlag{
			Name:        "max-sample-count",
			Usage:       "cap on pairs read (0 = all)",
			Destination: &maxSampleCount,
		},
		&cli.IntFlag{
			Name:        "dev-size",
			Usage:       "pairs held out for the dev split",
			Value:       1000,
			Destination: &devSize,
		},
		&cli.IntFlag{
			Name:        "test-size",
			Usage:       "pairs held out for the test split",
			Value:       1000,
			Destination: &testSize,
		},
	}
}

func concat(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

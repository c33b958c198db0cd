package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/parley/internal/config"
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "parley", "config.yaml")
}

// loadConfig reads the config file, then lets explicitly set flags win.
// A missing file at the default location is not an error; a missing file
// named by --config is.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	path := configPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil || explicit {
			loaded, err := config.Load(path)
			if err != nil {
				return cfg, err
			}
			cfg = loaded
		}
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "config")
	}
	return cfg, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = logFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if cmd.IsSet("vocab") {
		cfg.VocabFile = vocabFile
	}
	if cmd.IsSet("word-dim") {
		cfg.Model.WordDim = wordDim
	}
	if cmd.IsSet("hidden-dim") {
		cfg.Model.HiddenDim = hiddenDim
	}
	if cmd.IsSet("dropout") {
		cfg.Model.Dropout = dropout
	}
	if cmd.IsSet("seed") {
		cfg.Model.Seed = uint64(seed)
	}
	if cmd.IsSet("beam-width") {
		cfg.BeamWidth = beamWidth
	}
	if cmd.IsSet("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if cmd.IsSet("post-file") {
		cfg.PostFile = postFile
	}
	if cmd.IsSet("response-file") {
		cfg.ResponseFile = responseFile
	}
	if cmd.IsSet("pair-file") {
		cfg.PairFile = pairFile
	}
	if cmd.IsSet("one-response") {
		cfg.OneResponse = oneResponse
	}
	if cmd.IsSet("max-sample-count") {
		cfg.MaxSampleCount = maxSampleCount
	}
	if cmd.IsSet("dev-size") {
		cfg.DevSize = devSize
	}
	if cmd.IsSet("test-size") {
		cfg.TestSize = testSize
	}
}

func configCmd() *cli.Command {
	var asYAML bool
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration",
		Flags: concat(modelFlags(), searchFlags(), corpusFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:        "yaml",
				Usage:       "print as YAML, suitable for --config",
				Destination: &asYAML,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !asYAML {
				cfg.Print(os.Stdout)
				return nil
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
}

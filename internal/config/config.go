// Package config holds the run configuration and model hyper-parameters
// shared by the CLI and the HTTP server.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// HyperParams sizes the reference encoder-decoder model.
type HyperParams struct {
	WordDim   int     `yaml:"word_dim"`
	HiddenDim int     `yaml:"hidden_dim"`
	Dropout   float64 `yaml:"dropout"`
	// MinWordFreq drops words seen fewer times from the vocabulary.
	MinWordFreq int    `yaml:"min_word_freq"`
	Seed        uint64 `yaml:"seed"`
}

// Config is the full run configuration, normally read from a YAML file.
type Config struct {
	PairFile     string `yaml:"pair_file"`
	PostFile     string `yaml:"post_file"`
	ResponseFile string `yaml:"response_file"`
	VocabFile    string `yaml:"vocab_file"`

	CheckGrad      bool `yaml:"check_grad"`
	OneResponse    bool `yaml:"one_response"`
	LearnTest      bool `yaml:"learn_test"`
	OnlyDecode     bool `yaml:"only_decode"`
	MaxSampleCount int  `yaml:"max_sample_count"`
	DevSize        int  `yaml:"dev_size"`
	TestSize       int  `yaml:"test_size"`
	DeviceID       int  `yaml:"device_id"`

	OutputModelFilePrefix string `yaml:"output_model_file_prefix"`
	InputModelFile        string `yaml:"input_model_file"`

	BeamWidth int `yaml:"beam_width"`
	MaxSteps  int `yaml:"max_steps"`

	ServerAddress string `yaml:"server_address"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`

	Model HyperParams `yaml:"model"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		OneResponse:    true,
		MaxSampleCount: 0,
		DevSize:        1000,
		TestSize:       1000,
		BeamWidth:      4,
		MaxSteps:       100,
		ServerAddress:  ":8080",
		LogLevel:       "info",
		LogFormat:      "pretty",
		Model: HyperParams{
			WordDim:     64,
			HiddenDim:   128,
			Dropout:     0.1,
			MinWordFreq: 1,
			Seed:        1,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.BeamWidth <= 0 {
		return errors.Errorf("invalid beam_width: %d (must be positive)", c.BeamWidth)
	}
	if c.MaxSteps <= 0 {
		return errors.Errorf("invalid max_steps: %d (must be positive)", c.MaxSteps)
	}
	if c.MaxSampleCount < 0 {
		return errors.Errorf("invalid max_sample_count: %d (must be non-negative)", c.MaxSampleCount)
	}
	if c.DevSize < 0 {
		return errors.Errorf("invalid dev_size: %d (must be non-negative)", c.DevSize)
	}
	if c.TestSize < 0 {
		return errors.Errorf("invalid test_size: %d (must be non-negative)", c.TestSize)
	}
	return c.Model.Validate()
}

// Validate reports the first invalid hyper-parameter.
func (h *HyperParams) Validate() error {
	if h.WordDim <= 0 {
		return errors.Errorf("invalid word_dim: %d (must be positive)", h.WordDim)
	}
	if h.HiddenDim <= 0 {
		return errors.Errorf("invalid hidden_dim: %d (must be positive)", h.HiddenDim)
	}
	if h.Dropout < 0 || h.Dropout >= 1 {
		return errors.Errorf("invalid dropout: %g (must be in [0, 1))", h.Dropout)
	}
	if h.MinWordFreq < 1 {
		return errors.Errorf("invalid min_word_freq: %d (must be at least 1)", h.MinWordFreq)
	}
	return nil
}

// Print writes one key:value line per setting.
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "pair_file:%s\n", c.PairFile)
	fmt.Fprintf(w, "post_file:%s\n", c.PostFile)
	fmt.Fprintf(w, "response_file:%s\n", c.ResponseFile)
	fmt.Fprintf(w, "vocab_file:%s\n", c.VocabFile)
	fmt.Fprintf(w, "check_grad:%t\n", c.CheckGrad)
	fmt.Fprintf(w, "one_response:%t\n", c.OneResponse)
	fmt.Fprintf(w, "learn_test:%t\n", c.LearnTest)
	fmt.Fprintf(w, "only_decode:%t\n", c.OnlyDecode)
	fmt.Fprintf(w, "max_sample_count:%d\n", c.MaxSampleCount)
	fmt.Fprintf(w, "dev_size:%d\n", c.DevSize)
	fmt.Fprintf(w, "test_size:%d\n", c.TestSize)
	fmt.Fprintf(w, "device_id:%d\n", c.DeviceID)
	fmt.Fprintf(w, "output_model_file_prefix:%s\n", c.OutputModelFilePrefix)
	fmt.Fprintf(w, "input_model_file:%s\n", c.InputModelFile)
	fmt.Fprintf(w, "beam_width:%d\n", c.BeamWidth)
	fmt.Fprintf(w, "max_steps:%d\n", c.MaxSteps)
	fmt.Fprintf(w, "word_dim:%d\n", c.Model.WordDim)
	fmt.Fprintf(w, "hidden_dim:%d\n", c.Model.HiddenDim)
	fmt.Fprintf(w, "dropout:%g\n", c.Model.Dropout)
	fmt.Fprintf(w, "min_word_freq:%d\n", c.Model.MinWordFreq)
	fmt.Fprintf(w, "seed:%d\n", c.Model.Seed)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}
	return out, nil
}

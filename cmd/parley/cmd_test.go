package main

import (
	"bufio"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/parley/internal/config"
	"github.com/samcharles93/parley/internal/corpus"
	"github.com/samcharles93/parley/internal/logger"
	"github.com/samcharles93/parley/internal/seq2seq"
	"github.com/samcharles93/parley/internal/vocab"
)

func runLoadConfig(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var (
		cfg config.Config
		err error
	)
	cmd := &cli.Command{
		Name:  "parley",
		Flags: concat(globalFlags(), modelFlags(), searchFlags(), corpusFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err = loadConfig(cmd)
			return nil
		},
	}
	if runErr := cmd.Run(context.Background(), append([]string{"parley"}, args...)); runErr != nil {
		t.Fatalf("run: %v", runErr)
	}
	return cfg, err
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := runLoadConfig(t)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := config.Default()
	if cfg.BeamWidth != want.BeamWidth || cfg.MaxSteps != want.MaxSteps {
		t.Fatalf("unexpected search defaults: %+v", cfg)
	}
	if cfg.Model != want.Model {
		t.Fatalf("model = %+v, want %+v", cfg.Model, want.Model)
	}
}

func TestLoadConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "beam_width: 6\nmax_steps: 40\nlog_level: warn\nmodel:\n  hidden_dim: 32\n  word_dim: 16\n  seed: 9\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := runLoadConfig(t, "--config", path, "--beam-width", "3", "--debug")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BeamWidth != 3 {
		t.Fatalf("flag should win over file: beam_width = %d", cfg.BeamWidth)
	}
	if cfg.MaxSteps != 40 {
		t.Fatalf("file value lost: max_steps = %d", cfg.MaxSteps)
	}
	if cfg.Model.HiddenDim != 32 || cfg.Model.WordDim != 16 || cfg.Model.Seed != 9 {
		t.Fatalf("unexpected model params: %+v", cfg.Model)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("--debug should force debug level, got %q", cfg.LogLevel)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := runLoadConfig(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing --config file")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := runLoadConfig(t, "--beam-width", "0")
	if err == nil || !strings.Contains(err.Error(), "beam_width") {
		t.Fatalf("expected beam_width error, got %v", err)
	}
}

func feedString(e *lineEditor, s string) keyResult {
	r := keyContinue
	for i := 0; i < len(s); i++ {
		r = e.feed(s[i])
	}
	return r
}

func TestLineEditorEditing(t *testing.T) {
	e := newLineEditor(nil)
	feedString(e, "hello world")
	feedString(e, "\x1b[D\x1b[D\x1b[D\x1b[D\x1b[D")
	feedString(e, "big ")
	if got := e.String(); got != "hello big world" {
		t.Fatalf("insert at cursor: got %q", got)
	}

	feedString(e, "\x05") // Ctrl+E
	feedString(e, "\x17") // Ctrl+W
	if got := e.String(); got != "hello big " {
		t.Fatalf("delete word back: got %q", got)
	}

	feedString(e, "\x7f")
	if got := e.String(); got != "hello big" {
		t.Fatalf("backspace: got %q", got)
	}

	feedString(e, "\x01\x1b[3~")
	if got := e.String(); got != "ello big" {
		t.Fatalf("delete forward: got %q", got)
	}

	if r := e.feed('\r'); r != keySubmit {
		t.Fatalf("enter should submit, got %v", r)
	}
}

func TestLineEditorWordMotion(t *testing.T) {
	e := newLineEditor(nil)
	feedString(e, "one two three")
	feedString(e, "\x1bb")
	if e.cursor != len("one two ") {
		t.Fatalf("alt+b cursor = %d", e.cursor)
	}
	feedString(e, "\x1b[1;5D")
	if e.cursor != len("one ") {
		t.Fatalf("ctrl+left cursor = %d", e.cursor)
	}
	feedString(e, "\x1b[3;5~")
	if got := e.String(); got != "one  three" {
		t.Fatalf("delete word forward: got %q", got)
	}
	feedString(e, "\x1bf")
	if e.cursor != len(e.line) {
		t.Fatalf("alt+f cursor = %d", e.cursor)
	}
}

func TestLineEditorHistory(t *testing.T) {
	e := newLineEditor(nil)
	feedString(e, "first")
	e.submit()
	e.reset()
	feedString(e, "   ")
	e.submit()
	e.reset()
	feedString(e, "second")
	e.submit()
	e.reset()

	if len(e.history) != 2 {
		t.Fatalf("blank lines must not enter history: %q", e.history)
	}

	feedString(e, "draft")
	feedString(e, "\x1b[A")
	if got := e.String(); got != "second" {
		t.Fatalf("up: got %q", got)
	}
	feedString(e, "\x1b[A\x1b[A")
	if got := e.String(); got != "first" {
		t.Fatalf("up past start: got %q", got)
	}
	feedString(e, "\x1b[B")
	if got := e.String(); got != "second" {
		t.Fatalf("down: got %q", got)
	}
	feedString(e, "\x1b[B")
	if got := e.String(); got != "draft" {
		t.Fatalf("down restores draft: got %q", got)
	}
}

func TestLineEditorControlKeys(t *testing.T) {
	e := newLineEditor(nil)
	if r := e.feed(4); r != keyEOF {
		t.Fatalf("ctrl+d on empty line: got %v", r)
	}
	feedString(e, "x")
	if r := e.feed(4); r != keyContinue {
		t.Fatalf("ctrl+d with text: got %v", r)
	}
	if r := e.feed(3); r != keyInterrupt {
		t.Fatalf("ctrl+c: got %v", r)
	}
	if r := e.feed(7); r != keyContinue {
		t.Fatalf("bell should be ignored: got %v", r)
	}
}

func TestReadPlainLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("one\r\ntwo\nlast"))
	for _, want := range []string{"one", "two", "last"} {
		got, err := readPlainLine(r)
		if err != nil {
			t.Fatalf("readPlainLine: %v", err)
		}
		if got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
	if _, err := readPlainLine(r); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestEachLineSkipsBlank(t *testing.T) {
	var got []string
	err := eachLine(strings.NewReader("a b\n\n  \n c \n"), func(s string) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "a b" || got[1] != "c" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestPrepareOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "vocab.json")
	got, err := prepareOutput(path)
	if err != nil {
		t.Fatalf("prepareOutput: %v", err)
	}
	if got != filepath.Clean(path) {
		t.Fatalf("got %q", got)
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("parent not created: %v", err)
	}
	if _, err := prepareOutput(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestPickSplit(t *testing.T) {
	train := []corpus.Pair{{PostID: 0}}
	dev := []corpus.Pair{{PostID: 1}}
	test := []corpus.Pair{{PostID: 2}}
	for name, want := range map[string]int{"train": 0, "dev": 1, "test": 2} {
		got, err := pickSplit(name, train, dev, test)
		if err != nil || len(got) != 1 || got[0].PostID != want {
			t.Fatalf("%s: got %v, %v", name, got, err)
		}
	}
	if _, err := pickSplit("holdout", train, dev, test); err == nil {
		t.Fatal("expected error for unknown split")
	}
}

func TestScoreExamples(t *testing.T) {
	c := &corpus.Corpus{
		Posts:     [][]string{{"hi", "there"}, {"bye"}},
		Responses: [][]string{{"hello"}, {"see", "you"}},
		Pairs:     []corpus.Pair{{PostID: 0, ResponseID: 0}, {PostID: 1, ResponseID: 1}},
	}
	v := vocab.Build(c.Sentences(), 1)
	cfg := config.Default()
	cfg.Model.WordDim, cfg.Model.HiddenDim, cfg.Model.Dropout = 4, 6, 0
	m := newModel(cfg, v, logger.Nop()).WithMode(seq2seq.ModeTrain)

	steps := 0
	rep := scoreExamples(m, v, c, c.Pairs, func() { steps++ })
	if rep.Examples != 2 || steps != 2 {
		t.Fatalf("examples = %d, steps = %d", rep.Examples, steps)
	}
	// Each answer carries its stop symbol.
	if rep.Tokens != 2+3 {
		t.Fatalf("tokens = %d", rep.Tokens)
	}
	if rep.LogProb >= 0 {
		t.Fatalf("log-likelihood must be negative, got %v", rep.LogProb)
	}
	if math.Abs(rep.Perplexity()-math.Exp(rep.NLL())) > 1e-12 {
		t.Fatalf("perplexity mismatch")
	}
	if ppl := rep.Perplexity(); ppl <= 1 || ppl > 1e6 {
		t.Fatalf("implausible perplexity %v", ppl)
	}

	if (scoreReport{}).NLL() != 0 {
		t.Fatal("empty report should have zero NLL")
	}
}

func TestRenderWordsDropsStop(t *testing.T) {
	v := vocab.New([]string{"hello", "world"})
	hello, _ := v.ID("hello")
	world, _ := v.ID("world")
	stop, _ := v.ID(vocab.StopSymbol)
	if got := renderWords(v, []int{hello, world, stop}); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

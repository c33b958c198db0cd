// Package corpus reads single-turn conversation data: a post file and a
// response file with one whitespace-tokenised sentence per line, and a pair
// file linking them by line number.
package corpus

import (
	"bufio"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/samcharles93/parley/internal/vocab"
)

// Pair links a post to one of its responses by line index.
type Pair struct {
	PostID     int
	ResponseID int
}

// Example is a post and the answer a decoder should produce for it. Answer
// ends with the stop symbol.
type Example struct {
	Post   []string
	Answer []string
}

// Corpus holds the sentences and their pairing.
type Corpus struct {
	Posts     [][]string
	Responses [][]string
	Pairs     []Pair
}

// Options filters the pairs taken from a corpus.
type Options struct {
	// OneResponse keeps only the first response of every post.
	OneResponse bool
	// MaxSampleCount truncates the result when positive.
	MaxSampleCount int
}

// Open reads the three files of a corpus.
func Open(postFile, responseFile, pairFile string) (*Corpus, error) {
	posts, err := readSentencesFile(postFile)
	if err != nil {
		return nil, err
	}
	responses, err := readSentencesFile(responseFile)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(pairFile)
	if err != nil {
		return nil, errors.Wrapf(err, "open pair file %s", pairFile)
	}
	defer f.Close()
	pairs, err := ReadPairs(f)
	if err != nil {
		return nil, errors.Wrapf(err, "pair file %s", pairFile)
	}
	c := &Corpus{Posts: posts, Responses: responses, Pairs: pairs}
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

func readSentencesFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sentence file %s", path)
	}
	defer f.Close()
	s, err := ReadSentences(f)
	if err != nil {
		return nil, errors.Wrapf(err, "sentence file %s", path)
	}
	return s, nil
}

// ReadSentences reads one sentence per line. Blank lines are kept as empty
// sentences so that line numbers stay aligned with ids.
func ReadSentences(r io.Reader) ([][]string, error) {
	var out [][]string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		out = append(out, vocab.Tokenize(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read sentences")
	}
	return out, nil
}

// ReadPairs reads "post_id response_id" lines. Blank lines are skipped.
func ReadPairs(r io.Reader) ([]Pair, error) {
	var out []Pair
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, errors.Errorf("line %d: want 2 fields, got %d", line, len(fields))
		}
		post, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: post id", line)
		}
		resp, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: response id", line)
		}
		out = append(out, Pair{PostID: post, ResponseID: resp})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read pairs")
	}
	return out, nil
}

func (c *Corpus) check() error {
	for i, p := range c.Pairs {
		if p.PostID < 0 || p.PostID >= len(c.Posts) {
			return errors.Errorf("pair %d: post id %d out of range [0, %d)", i, p.PostID, len(c.Posts))
		}
		if p.ResponseID < 0 || p.ResponseID >= len(c.Responses) {
			return errors.Errorf("pair %d: response id %d out of range [0, %d)", i, p.ResponseID, len(c.Responses))
		}
	}
	return nil
}

// Select applies opts to the corpus pairs, keeping file order.
func (c *Corpus) Select(opts Options) []Pair {
	out := make([]Pair, 0, len(c.Pairs))
	seen := map[int]bool{}
	for _, p := range c.Pairs {
		if opts.OneResponse {
			if seen[p.PostID] {
				continue
			}
			seen[p.PostID] = true
		}
		out = append(out, p)
		if opts.MaxSampleCount > 0 && len(out) == opts.MaxSampleCount {
			break
		}
	}
	return out
}

// Example returns the post and stop-terminated answer for p.
func (c *Corpus) Example(p Pair) Example {
	resp := c.Responses[p.ResponseID]
	answer := make([]string, len(resp), len(resp)+1)
	copy(answer, resp)
	return Example{
		Post:   c.Posts[p.PostID],
		Answer: append(answer, vocab.StopSymbol),
	}
}

// Sentences returns every post and response, for building a vocabulary.
func (c *Corpus) Sentences() [][]string {
	out := make([][]string, 0, len(c.Posts)+len(c.Responses))
	out = append(out, c.Posts...)
	return append(out, c.Responses...)
}

// Split shuffles pairs with seed and cuts them into dev, test and train sets
// of the requested sizes. The input slice is not modified.
func Split(pairs []Pair, devSize, testSize int, seed uint64) (train, dev, test []Pair, err error) {
	if devSize < 0 || testSize < 0 {
		return nil, nil, nil, errors.Errorf("split sizes must be non-negative, got dev=%d test=%d", devSize, testSize)
	}
	if devSize+testSize > len(pairs) {
		return nil, nil, nil, errors.Errorf("dev (%d) + test (%d) exceed %d pairs", devSize, testSize, len(pairs))
	}
	shuffled := make([]Pair, len(pairs))
	copy(shuffled, pairs)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	dev = shuffled[:devSize]
	test = shuffled[devSize : devSize+testSize]
	train = shuffled[devSize+testSize:]
	return train, dev, test, nil
}

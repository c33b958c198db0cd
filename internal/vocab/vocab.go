// Package vocab maps words to the integer ids used by the model.
package vocab

import (
	"cmp"
	"os"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Reserved symbols. They always take ids 0 and 1.
const (
	StopSymbol    = "</s>"
	UnknownSymbol = "<unk>"
)

const (
	StopID    = 0
	UnknownID = 1
)

// Vocab is an immutable word table.
type Vocab struct {
	words []string
	ids   map[string]int
}

// New builds a vocabulary from words in id order after the reserved
// symbols. Duplicates and reserved symbols in words are skipped.
func New(words []string) *Vocab {
	v := &Vocab{
		words: []string{StopSymbol, UnknownSymbol},
		ids:   map[string]int{StopSymbol: StopID, UnknownSymbol: UnknownID},
	}
	for _, w := range words {
		if _, ok := v.ids[w]; ok || w == "" {
			continue
		}
		v.ids[w] = len(v.words)
		v.words = append(v.words, w)
	}
	return v
}

// Build counts the words of every sentence and keeps those seen at least
// minFreq times, most frequent first with ties in lexical order.
func Build(sentences [][]string, minFreq int) *Vocab {
	counts := map[string]int{}
	for _, s := range sentences {
		for _, w := range s {
			counts[w]++
		}
	}
	words := make([]string, 0, len(counts))
	for w, n := range counts {
		if n >= minFreq {
			words = append(words, w)
		}
	}
	slices.SortFunc(words, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return New(words)
}

// Size returns the number of entries, reserved symbols included.
func (v *Vocab) Size() int { return len(v.words) }

// Word returns the word for id, or UnknownSymbol when id is out of range.
func (v *Vocab) Word(id int) string {
	if id < 0 || id >= len(v.words) {
		return UnknownSymbol
	}
	return v.words[id]
}

// ID returns the id of word and whether it is in the table.
func (v *Vocab) ID(word string) (int, bool) {
	id, ok := v.ids[word]
	return id, ok
}

// Encode maps words to ids; words outside the table become UnknownID.
func (v *Vocab) Encode(words []string) []int {
	ids := make([]int, len(words))
	for i, w := range words {
		id, ok := v.ids[w]
		if !ok {
			id = UnknownID
		}
		ids[i] = id
	}
	return ids
}

// Decode maps ids back to words. A trailing stop symbol is dropped.
func (v *Vocab) Decode(ids []int) []string {
	if n := len(ids); n > 0 && ids[n-1] == StopID {
		ids = ids[:n-1]
	}
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = v.Word(id)
	}
	return words
}

// Tokenize splits a sentence on whitespace.
func Tokenize(sentence string) []string {
	return strings.Fields(sentence)
}

// Words returns a copy of the table in id order.
func (v *Vocab) Words() []string {
	return slices.Clone(v.words)
}

type vocabFile struct {
	Words []string `json:"words"`
}

// Save writes the table as JSON.
func (v *Vocab) Save(path string) error {
	data, err := json.MarshalIndent(vocabFile{Words: v.words}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode vocabulary")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write vocabulary %s", path)
	}
	return nil
}

// Load reads a table written by Save. The reserved symbols must hold their
// fixed ids.
func Load(path string) (*Vocab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read vocabulary %s", path)
	}
	var f vocabFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse vocabulary %s", path)
	}
	if len(f.Words) < 2 || f.Words[StopID] != StopSymbol || f.Words[UnknownID] != UnknownSymbol {
		return nil, errors.Errorf("vocabulary %s: first entries must be %q and %q", path, StopSymbol, UnknownSymbol)
	}
	return New(f.Words[2:]), nil
}

// Package analyzer turns raw document or query text into a deterministic
// sequence of normalized, stemmed terms.
package analyzer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	minTokenLen = 2
	maxTokenLen = 25
)

// Token is a single normalized term and its ordinal position within the
// token sequence produced for one input text.
type Token struct {
	Term     string
	Position int
}

// Config is the analyzer's configuration surface.
type Config struct {
	// Language selects the stemmer. Defaults to Portuguese.
	Language Language
	// Stopwords overrides the default stopword set when non-empty.
	Stopwords []string
}

// Analyzer applies the fixed five-step pipeline described for this module:
// transliterate, lowercase, split on non-letter runs, length-filter, stem.
type Analyzer struct {
	stemmer   Stemmer
	stopwords map[string]struct{}
	fold      transform.Transformer
}

// New constructs an Analyzer from cfg. Construction never fails: an
// unrecognized Language falls back to the default stemmer.
func New(cfg Config) *Analyzer {
	return &Analyzer{
		stemmer:   NewStemmer(cfg.Language),
		stopwords: stopwordSet(cfg.Stopwords),
		fold:      transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

// Analyze runs the full pipeline over text and returns its ordered term
// sequence. It is deterministic and total: it never returns an error, and
// malformed UTF-8 is treated as opaque bytes rather than rejected.
func (a *Analyzer) Analyze(text string) []Token {
	return a.analyze(text, nil)
}

// AnalyzeInto runs the pipeline using arena as scratch storage for the
// returned token strings, amortizing allocation across many calls that
// reuse the same arena. It resets arena itself at the start of each call,
// so the returned strings are valid only until the next call with it.
func (a *Analyzer) AnalyzeInto(text string, arena *Arena) []Token {
	if arena == nil {
		return a.analyze(text, nil)
	}
	arena.Reset()
	return a.analyze(text, arena)
}

func (a *Analyzer) analyze(text string, arena *Arena) []Token {
	folded, _, err := transform.String(a.fold, text)
	if err != nil {
		// Transliteration failures (malformed input) degrade to the
		// original text rather than aborting analysis; the pipeline is
		// total by contract.
		folded = text
	}
	folded = strings.ToLower(folded)

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return r < 'a' || r > 'z'
	})

	var toks []Token
	if arena != nil {
		toks = arena.toks
	} else {
		toks = make([]Token, 0, len(words)/2+1)
	}

	pos := 0
	for _, w := range words {
		if len(w) < minTokenLen || len(w) > maxTokenLen {
			continue
		}
		if _, stop := a.stopwords[w]; stop {
			continue
		}
		stem := a.stemmer.Stem(w)
		if stem == "" {
			continue
		}
		if arena != nil {
			stem = arena.intern(stem)
		}
		toks = append(toks, Token{Term: stem, Position: pos})
		pos++
	}
	if arena != nil {
		arena.toks = toks
	}
	return toks
}

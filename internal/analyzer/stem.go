package analyzer

import (
	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/portuguese"
)

// Stemmer reduces a normalized token to its stem. Implementations must be
// deterministic and must never fail: an unstemmable word is returned
// unchanged.
type Stemmer interface {
	Stem(word string) string
}

// Language selects a configured Stemmer by name.
type Language string

const (
	// LanguagePortuguese is the default analyzer stemmer.
	LanguagePortuguese Language = "pt"
	// LanguageEnglish uses the Porter algorithm instead.
	LanguageEnglish Language = "en"
	// LanguageNone disables stemming; tokens pass through unchanged.
	LanguageNone Language = "none"
)

// NewStemmer resolves a Language to its Stemmer. An unknown language falls
// back to Portuguese, matching the analyzer's documented default.
func NewStemmer(lang Language) Stemmer {
	switch lang {
	case LanguageEnglish:
		return porterStemmer{}
	case LanguageNone:
		return identityStemmer{}
	default:
		return portugueseStemmer{}
	}
}

type portugueseStemmer struct{}

func (portugueseStemmer) Stem(word string) string {
	env := snowballstem.NewEnv(word)
	portuguese.Stem(env)
	return env.Current()
}

type porterStemmer struct{}

func (porterStemmer) Stem(word string) string {
	return porterstemmer.StemString(word)
}

type identityStemmer struct{}

func (identityStemmer) Stem(word string) string { return word }

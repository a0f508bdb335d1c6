package analyzer

// defaultStopwords mirrors the common function-word set this codebase has
// always shipped, extended with the Portuguese equivalents since the
// default stemmer is Portuguese. Callers may override the set entirely via
// Config.Stopwords.
var defaultStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},

	"de": {}, "da": {}, "das": {}, "dos": {}, "em": {},
	"um": {}, "uma": {}, "os": {}, "que": {}, "com": {},
	"para": {}, "por": {}, "se": {}, "na": {}, "mas": {},
	"ou": {}, "como": {}, "ao": {}, "ele": {}, "ela": {}, "seu": {},
	"sua": {}, "isso": {}, "esse": {}, "essa": {},
}

func stopwordSet(words []string) map[string]struct{} {
	if len(words) == 0 {
		return defaultStopwords
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

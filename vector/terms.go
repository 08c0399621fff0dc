package vector

import "strings"

// Stop words filtered out during query term expansion
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenize splits text into lowercase words with punctuation trimmed.
// Stop words are kept: bigram formation needs the original sequence.
func tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

// ExpandTerms decomposes a query into the terms searched independently
// against the embedding index: unigrams followed by bigrams.
//
// Unigrams are tokens that are not stop words and are at least 3 runes
// long. Bigrams are adjacent pairs from the original, unfiltered token
// sequence, kept when neither constituent is a stop word; bigram
// constituents are not length-checked, so short non-stop words that
// never survive as unigrams still appear inside bigrams. Duplicate
// terms are retained; result-level merging dedups, not the term set.
func ExpandTerms(query string) []string {
	tokens := tokenize(query)

	var terms []string
	for _, token := range tokens {
		if !stopWords[token] && len([]rune(token)) >= 3 {
			terms = append(terms, token)
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		if !stopWords[tokens[i]] && !stopWords[tokens[i+1]] {
			terms = append(terms, tokens[i]+" "+tokens[i+1])
		}
	}
	return terms
}

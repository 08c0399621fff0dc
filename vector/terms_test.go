package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTerms_Unigrams(t *testing.T) {
	// Stop words and words shorter than 3 runes are dropped.
	terms := ExpandTerms("the market")
	assert.Equal(t, []string{"market"}, terms)

	// "and" is a stop word, so it blocks both bigrams too.
	terms = ExpandTerms("Tomatoes, and Peppers!")
	assert.Equal(t, []string{"tomatoes", "peppers"}, terms)
}

func TestExpandTerms_Bigrams(t *testing.T) {
	terms := ExpandTerms("fresh market prices")
	assert.Equal(t, []string{
		"fresh", "market", "prices",
		"fresh market", "market prices",
	}, terms)
}

func TestExpandTerms_BigramsSkipStopWords(t *testing.T) {
	// "at the" breaks the adjacency chain: no bigram may contain a stop word.
	terms := ExpandTerms("tomatoes at the market")
	assert.Equal(t, []string{"tomatoes", "market"}, terms)
}

func TestExpandTerms_ShortWordsSurviveInBigrams(t *testing.T) {
	// Known asymmetry in the expansion rules: unigrams are length-checked,
	// bigram constituents are not. "ai" is dropped as a unigram but still
	// appears inside bigrams.
	terms := ExpandTerms("ai winter forecast")
	assert.NotContains(t, terms, "ai")
	assert.Contains(t, terms, "ai winter")
	assert.Equal(t, []string{"winter", "forecast", "ai winter", "winter forecast"}, terms)
}

func TestExpandTerms_DuplicatesRetained(t *testing.T) {
	// The same term may be produced twice; dedup happens at the result
	// level, never at the term level.
	terms := ExpandTerms("market market")
	assert.Equal(t, []string{"market", "market", "market market"}, terms)
}

func TestExpandTerms_Empty(t *testing.T) {
	assert.Empty(t, ExpandTerms(""))
	assert.Empty(t, ExpandTerms("   "))
	assert.Empty(t, ExpandTerms("the of and"))
	assert.Empty(t, ExpandTerms("!?!"))
}

func TestTokenize_Punctuation(t *testing.T) {
	assert.Equal(t, []string{"sara", "bought", "tomatoes"}, tokenize(`"Sara" bought (tomatoes)!`))
}

package mock

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/docmesh/docmesh/ai"
)

// MockRecognizer is a test double for ai.EntityRecognizer.
// It allows custom behavior injection via function fields.
type MockRecognizer struct {
	// RecognizeFunc is called by Recognize if set.
	// If nil, uses default capitalized-word recognition.
	RecognizeFunc func(ctx context.Context, text string) ([]ai.EntitySpan, error)

	callCount int
}

var _ ai.EntityRecognizer = (*MockRecognizer)(nil)

// capitalizedWord matches a capitalized token. Common sentence-leading
// function words are filtered separately.
var capitalizedWord = regexp.MustCompile(`\p{Lu}[\p{L}]+`)

var functionWords = map[string]bool{
	"The": true, "A": true, "An": true, "This": true, "That": true,
	"It": true, "He": true, "She": true, "They": true, "We": true,
	"You": true, "And": true, "But": true, "Or": true, "If": true,
	"When": true, "Then": true,
}

// NewMockRecognizer creates a mock recognizer with default behavior.
// Returns the concrete type so tests can inject behavior and assert on calls.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// Available always reports true for the mock.
func (m *MockRecognizer) Available() bool { return true }

// Recognize extracts simple mock entities from text.
// Default behavior: every capitalized word that is not a common function
// word becomes a "person" entity with accurate rune offsets. Crude, but
// deterministic, offset-correct, and good enough to drive graph ingestion
// in tests.
func (m *MockRecognizer) Recognize(ctx context.Context, text string) ([]ai.EntitySpan, error) {
	m.callCount++

	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, text)
	}

	spans := []ai.EntitySpan{}
	for _, loc := range capitalizedWord.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		if functionWords[word] {
			continue
		}
		start := utf8.RuneCountInString(text[:loc[0]])
		spans = append(spans, ai.EntitySpan{
			Text:  word,
			Type:  "person",
			Start: start,
			End:   start + utf8.RuneCountInString(word),
		})
	}
	return spans, nil
}

// CallCount returns the number of times Recognize was called.
func (m *MockRecognizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockRecognizer) Reset() {
	m.callCount = 0
	m.RecognizeFunc = nil
}

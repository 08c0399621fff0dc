package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EntityRecognizer produces typed entity spans from raw text.
// Implementations must be thread-safe for concurrent use.
//
// Recognition is a capability that may be absent: when the underlying NLP
// service cannot be loaded, Available reports false and Recognize returns
// an empty span list without error. Callers select a variant once at
// startup and never re-check availability per call.
type EntityRecognizer interface {
	// Available reports whether the recognition capability is loaded.
	Available() bool

	// Recognize extracts typed entity mentions from text. Start and End
	// offsets are rune positions into the original text, used to compute
	// positional context windows for graph storage.
	// Returns an empty slice if no entities are found.
	Recognize(ctx context.Context, text string) ([]EntitySpan, error)
}

// EntitySpan is a single entity mention located in text.
type EntitySpan struct {
	// Text is the mention exactly as it appears in the source text.
	Text string

	// Type categorizes the entity (e.g., "person", "place").
	// Must match one of the predefined entity types.
	Type string

	// Start is the rune offset of the mention in the original text.
	Start int

	// End is the rune offset one past the mention in the original text.
	End int
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// EntityRecognizer instances, ensuring they share configuration and
// resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Recognizer returns the entity recognition service.
	// The returned EntityRecognizer is safe for concurrent use.
	Recognizer() EntityRecognizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

// UnavailableRecognizer is the variant used when no NLP capability could
// be loaded. It reports unavailable and extracts nothing; this is not an
// error condition anywhere upstream.
type UnavailableRecognizer struct{}

var _ EntityRecognizer = UnavailableRecognizer{}

// Available always reports false.
func (UnavailableRecognizer) Available() bool { return false }

// Recognize always returns an empty span list.
func (UnavailableRecognizer) Recognize(ctx context.Context, text string) ([]EntitySpan, error) {
	return []EntitySpan{}, nil
}

package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.EmbeddingHost, cfg.RecognizerHost)
}

func TestConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://example:9100"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithRecognizerModel("gpt-4o-mini"),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://example:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://example:9100/v1", cfg.RecognizerHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
}

func TestConfig_NormalizeAddsSuffix(t *testing.T) {
	cfg := NewConfig(WithEmbeddingHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestConfig_ValidateMissingFields(t *testing.T) {
	cfg := NewConfig()
	cfg.EmbeddingModel = ""
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.RecognizerModel = ""
	assert.Error(t, cfg.Validate())
}

func TestSharedEmbedder_SingleInitialization(t *testing.T) {
	ResetSharedEmbedder()
	t.Cleanup(ResetSharedEmbedder)

	calls := 0
	factory := func() (Embedder, error) {
		calls++
		return stubEmbedder{}, nil
	}

	first, err := SharedEmbedder(factory)
	require.NoError(t, err)
	second, err := SharedEmbedder(factory)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestSharedEmbedder_FactoryErrorIsSticky(t *testing.T) {
	ResetSharedEmbedder()
	t.Cleanup(ResetSharedEmbedder)

	boom := errors.New("model load failed")
	_, err := SharedEmbedder(func() (Embedder, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	// The failed construction is not retried.
	_, err = SharedEmbedder(func() (Embedder, error) { return stubEmbedder{}, nil })
	assert.ErrorIs(t, err, boom)
}

func TestUnavailableRecognizer(t *testing.T) {
	var r EntityRecognizer = UnavailableRecognizer{}
	assert.False(t, r.Available())
	spans, err := r.Recognize(context.Background(), "Sara bought tomatoes")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

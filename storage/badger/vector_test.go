package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/docmesh/docmesh/ai/mock"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) storage.EmbeddingIndex {
	t.Helper()
	index, _, backend, err := NewMemoryStores(mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return index
}

func chunkEntries(userID, docID, content string, chunks ...string) []storage.IndexEntry {
	fp := core.FingerprintOf(content)
	entries := make([]storage.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = storage.IndexEntry{
			ID:      fmt.Sprintf("%s_%d", docID, i),
			Content: chunk,
			Meta: core.ChunkMeta{
				DocumentID:   docID,
				DocumentName: docID + ".txt",
				UserID:       userID,
				ChunkIndex:   i,
				Fingerprint:  fp,
			},
		}
	}
	return entries
}

func TestEmbeddingIndex_UpsertAndQuery(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	err := index.Upsert(ctx, "user_1_docs",
		chunkEntries("user_1", "doc-a", "doc-a content",
			"Sara bought ripe tomatoes at the market",
			"the weather report predicted rain all week")...)
	require.NoError(t, err)

	hits, err := index.Query(ctx, "user_1_docs", "tomatoes market", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Ascending distance, closest chunk first.
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
	assert.Contains(t, hits[0].Content, "tomatoes")
	assert.Equal(t, "doc-a", hits[0].Meta.DocumentID)
	assert.Equal(t, 0, hits[0].Meta.ChunkIndex)
}

func TestEmbeddingIndex_QueryLimit(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	err := index.Upsert(ctx, "user_1_docs",
		chunkEntries("user_1", "doc-a", "doc-a content",
			"first chunk about apples",
			"second chunk about oranges",
			"third chunk about pears")...)
	require.NoError(t, err)

	hits, err := index.Query(ctx, "user_1_docs", "fruit", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	_, err = index.Query(ctx, "user_1_docs", "fruit", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestEmbeddingIndex_DuplicateFingerprint(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	entries := chunkEntries("user_1", "doc-a", "same content", "same content")
	require.NoError(t, index.Upsert(ctx, "user_1_docs", entries...))

	// Same fingerprint under a different document ID still conflicts.
	again := chunkEntries("user_1", "doc-b", "same content", "same content")
	err := index.Upsert(ctx, "user_1_docs", again...)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Item count for the collection is unchanged after the conflict.
	metas, err := index.Get(ctx, "user_1_docs", storage.MetaFilter{})
	require.NoError(t, err)
	assert.Len(t, metas, 1)
	assert.Equal(t, "doc-a", metas[0].DocumentID)
}

func TestEmbeddingIndex_GetFilter(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, "user_1_docs",
		chunkEntries("user_1", "doc-a", "alpha content", "alpha chunk one", "alpha chunk two")...))
	require.NoError(t, index.Upsert(ctx, "user_1_docs",
		chunkEntries("user_1", "doc-b", "beta content", "beta chunk")...))

	metas, err := index.Get(ctx, "user_1_docs", storage.MetaFilter{DocumentID: "doc-a"})
	require.NoError(t, err)
	assert.Len(t, metas, 2)

	metas, err = index.Get(ctx, "user_1_docs", storage.MetaFilter{Fingerprint: core.FingerprintOf("beta content")})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "doc-b", metas[0].DocumentID)

	metas, err = index.Get(ctx, "user_1_docs", storage.MetaFilter{Fingerprint: core.FingerprintOf("missing")})
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestEmbeddingIndex_CollectionIsolation(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, "user_1_docs",
		chunkEntries("user_1", "doc-a", "user one content", "user one chunk")...))
	require.NoError(t, index.Upsert(ctx, "user_2_docs",
		chunkEntries("user_2", "doc-b", "user two content", "user two chunk")...))

	hits, err := index.Query(ctx, "user_2_docs", "chunk", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "user_2", hits[0].Meta.UserID)

	// Identical content fingerprints do not conflict across collections.
	require.NoError(t, index.Upsert(ctx, "user_2_docs",
		chunkEntries("user_2", "doc-c", "user one content", "user one chunk")...))
}

func TestEmbeddingIndex_EmptyUpsert(t *testing.T) {
	index := newTestIndex(t)
	assert.NoError(t, index.Upsert(context.Background(), "user_1_docs"))
}

package badger

import (
	"context"
	"testing"
	"time"

	"github.com/docmesh/docmesh/ai/mock"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T) storage.GraphStore {
	t.Helper()
	_, graph, backend, err := NewMemoryStores(mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return graph
}

func graphDoc(id, name, content string, uploadTime time.Time, tags ...string) *core.GraphDocument {
	return &core.GraphDocument{
		ID:          id,
		Name:        name,
		Content:     content,
		Fingerprint: core.FingerprintOf(content),
		Tags:        tags,
		UploadTime:  uploadTime,
	}
}

func TestGraphStore_CreateAndExists(t *testing.T) {
	graph := newTestGraph(t)
	ctx := context.Background()

	doc := graphDoc("doc-a", "notes.txt", "Sara bought tomatoes at the market.", time.Now().UTC())

	exists, err := graph.DocumentExists(ctx, "user_1", doc.Fingerprint)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, graph.CreateDocument(ctx, "user_1", doc))

	exists, err = graph.DocumentExists(ctx, "user_1", doc.Fingerprint)
	require.NoError(t, err)
	assert.True(t, exists)

	// Fingerprints are scoped per user.
	exists, err = graph.DocumentExists(ctx, "user_2", doc.Fingerprint)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGraphStore_DuplicateFingerprint(t *testing.T) {
	graph := newTestGraph(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, graph.CreateDocument(ctx, "user_1", graphDoc("doc-a", "a.txt", "same content", now)))

	err := graph.CreateDocument(ctx, "user_1", graphDoc("doc-b", "b.txt", "same content", now))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	results, err := graph.ListDocuments(ctx, "user_1", 50)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].Document.ID)
}

func TestGraphStore_EntityMerge(t *testing.T) {
	graph := newTestGraph(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, graph.CreateDocument(ctx, "user_1",
		graphDoc("doc-a", "a.txt", "Sara went to the market.", now)))
	require.NoError(t, graph.CreateDocument(ctx, "user_1",
		graphDoc("doc-b", "b.txt", "Sara came home late.", now.Add(time.Second))))

	sara := core.Entity{Name: "Sara", Type: "person"}
	require.NoError(t, graph.MergeMention(ctx, "user_1", "doc-a", sara,
		core.Mention{Context: "Sara went to the market.", Position: 0}))
	require.NoError(t, graph.MergeMention(ctx, "user_1", "doc-b", sara,
		core.Mention{Context: "Sara came home late.", Position: 0}))

	// Re-merging the same mention is idempotent.
	require.NoError(t, graph.MergeMention(ctx, "user_1", "doc-b", sara,
		core.Mention{Context: "Sara came home late.", Position: 0}))

	results, err := graph.ListDocuments(ctx, "user_1", 50)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Both documents reference the single shared entity node.
	for _, result := range results {
		require.Len(t, result.Entities, 1)
		assert.Equal(t, sara, result.Entities[0])
	}
}

func TestGraphStore_MergeMention_MissingDocument(t *testing.T) {
	graph := newTestGraph(t)

	err := graph.MergeMention(context.Background(), "user_1", "no-such-doc",
		core.Entity{Name: "Sara", Type: "person"}, core.Mention{Context: "x", Position: 0})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGraphStore_FindDocuments(t *testing.T) {
	graph := newTestGraph(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, graph.CreateDocument(ctx, "user_1",
		graphDoc("doc-a", "shopping.txt", "Sara bought tomatoes at the market.", now, "errands")))
	require.NoError(t, graph.CreateDocument(ctx, "user_1",
		graphDoc("doc-b", "weather.txt", "It rained all afternoon.", now.Add(time.Second), "journal")))

	results, err := graph.FindDocuments(ctx, "user_1", "market", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].Document.ID)
	assert.Equal(t, "Sara bought tomatoes at the market.", results[0].Document.ContentPreview)

	// Substring matching is case-sensitive.
	results, err = graph.FindDocuments(ctx, "user_1", "Market", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Name and tags are searched too.
	results, err = graph.FindDocuments(ctx, "user_1", "weather", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-b", results[0].Document.ID)

	results, err = graph.FindDocuments(ctx, "user_1", "errands", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].Document.ID)

	// Other users never see the documents.
	results, err = graph.FindDocuments(ctx, "user_2", "market", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGraphStore_FindDocuments_Preview(t *testing.T) {
	graph := newTestGraph(t)
	ctx := context.Background()

	long := ""
	for i := 0; i < 30; i++ {
		long += "needle in a haystack "
	}
	require.NoError(t, graph.CreateDocument(ctx, "user_1",
		graphDoc("doc-a", "long.txt", long, time.Now().UTC())))

	results, err := graph.FindDocuments(ctx, "user_1", "needle", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 200, len([]rune(results[0].Document.ContentPreview)))
}

func TestGraphStore_ListDocuments_Order(t *testing.T) {
	graph := newTestGraph(t)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, graph.CreateDocument(ctx, "user_1",
		graphDoc("doc-old", "old.txt", "oldest content", base.Add(-2*time.Hour))))
	require.NoError(t, graph.CreateDocument(ctx, "user_1",
		graphDoc("doc-mid", "mid.txt", "middle content", base.Add(-time.Hour))))
	require.NoError(t, graph.CreateDocument(ctx, "user_1",
		graphDoc("doc-new", "new.txt", "newest content", base)))

	results, err := graph.ListDocuments(ctx, "user_1", 50)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc-new", results[0].Document.ID)
	assert.Equal(t, "doc-mid", results[1].Document.ID)
	assert.Equal(t, "doc-old", results[2].Document.ID)

	results, err = graph.ListDocuments(ctx, "user_1", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-new", results[0].Document.ID)
}

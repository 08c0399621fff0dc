//go:build integration

package neo4j

// These tests need a running Neo4j server. Point NEO4J_URI at it (for
// example bolt://localhost:7687), optionally set NEO4J_USER and
// NEO4J_PASSWORD, and run with -tags integration. Each test works under
// a fresh user ID, so reruns against the same server stay isolated.

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
)

func newIntegrationStore(t *testing.T) storage.GraphStore {
	t.Helper()
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	var opts []Option
	if user := os.Getenv("NEO4J_USER"); user != "" {
		opts = append(opts, WithBasicAuth(user, os.Getenv("NEO4J_PASSWORD")))
	}
	store, err := NewGraphStore(context.Background(), uri, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func freshUserID() string {
	return "it_" + uuid.New().String()
}

func newGraphDocument(name, content string) *core.GraphDocument {
	return &core.GraphDocument{
		ID:          uuid.New().String(),
		Name:        name,
		Content:     content,
		Fingerprint: core.FingerprintOf(content),
		UploadTime:  time.Now().UTC(),
	}
}

func TestGraphStore_CreateAndExists(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	userID := freshUserID()

	doc := newGraphDocument("notes.txt", "Sara bought tomatoes at the market. "+userID)

	exists, err := store.DocumentExists(ctx, userID, doc.Fingerprint)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.CreateDocument(ctx, userID, doc))

	exists, err = store.DocumentExists(ctx, userID, doc.Fingerprint)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGraphStore_DuplicateDocument(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	userID := freshUserID()

	content := "identical content " + userID
	require.NoError(t, store.CreateDocument(ctx, userID, newGraphDocument("a.txt", content)))

	err := store.CreateDocument(ctx, userID, newGraphDocument("b.txt", content))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	results, err := store.ListDocuments(ctx, userID, 50)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestGraphStore_MentionsAndQuery(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	userID := freshUserID()

	doc := newGraphDocument("notes.txt", "Sara bought tomatoes at the market. "+userID)
	require.NoError(t, store.CreateDocument(ctx, userID, doc))

	entity := core.Entity{Name: "Sara", Type: "person"}
	mention := core.Mention{Context: "Sara bought tomatoes", Position: 0}
	require.NoError(t, store.MergeMention(ctx, userID, doc.ID, entity, mention))

	results, err := store.FindDocuments(ctx, userID, "market", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc.ID, results[0].Document.ID)
	assert.Contains(t, results[0].Entities, entity)
}

func TestGraphStore_MergeMention_UnknownDocument(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	err := store.MergeMention(ctx, freshUserID(), uuid.New().String(),
		core.Entity{Name: "Sara", Type: "person"}, core.Mention{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGraphStore_ListDocuments_NewestFirst(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	userID := freshUserID()

	for _, name := range []string{"first.txt", "second.txt", "third.txt"} {
		doc := newGraphDocument(name, "content of "+name+" "+userID)
		require.NoError(t, store.CreateDocument(ctx, userID, doc))
		time.Sleep(10 * time.Millisecond)
	}

	results, err := store.ListDocuments(ctx, userID, 50)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "third.txt", results[0].Document.Name)
	assert.Equal(t, "first.txt", results[2].Document.Name)
}

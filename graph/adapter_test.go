package graph

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docmesh/docmesh/ai"
	"github.com/docmesh/docmesh/ai/mock"
	badgerstore "github.com/docmesh/docmesh/storage/badger"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBadgerAdapter(t *testing.T, recognizer ai.EntityRecognizer, opts ...Option) *Adapter {
	t.Helper()
	_, store, backend, err := badgerstore.NewMemoryStores(mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	adapter, err := NewAdapter(store, recognizer, opts...)
	require.NoError(t, err)
	return adapter
}

func TestNewAdapter_Validation(t *testing.T) {
	_, err := NewAdapter(nil, mock.NewMockRecognizer())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, store, backend, err := badgerstore.NewMemoryStores(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewAdapter(store, nil)
	assert.ErrorIs(t, err, ErrRecognizerRequired)
}

func TestAdapter_Ingest_ExtractsEntities(t *testing.T) {
	adapter := newBadgerAdapter(t, mock.NewMockRecognizer())
	ctx := context.Background()

	outcome, err := adapter.Ingest(ctx, "user_1", "notes.txt",
		"Sara bought tomatoes at the market.", core.DocumentMeta{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusSuccess, outcome.Status)
	assert.NotEmpty(t, outcome.DocumentID)
	assert.GreaterOrEqual(t, outcome.EntitiesExtracted, 1)
	assert.Contains(t, outcome.Entities, core.Entity{Name: "Sara", Type: "person"})

	// The stored document carries the entity in query results.
	results, err := adapter.Query(ctx, "user_1", "market")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, outcome.DocumentID, results[0].Document.ID)
	assert.Contains(t, results[0].Entities, core.Entity{Name: "Sara", Type: "person"})
}

func TestAdapter_Ingest_Dedup(t *testing.T) {
	adapter := newBadgerAdapter(t, mock.NewMockRecognizer())
	ctx := context.Background()

	content := "Sara bought tomatoes at the market."
	first, err := adapter.Ingest(ctx, "user_1", "notes.txt", content, core.DocumentMeta{})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, first.Status)

	second, err := adapter.Ingest(ctx, "user_1", "again.txt", content, core.DocumentMeta{})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSkipped, second.Status)
	assert.Equal(t, core.ReasonDuplicate, second.Reason)

	documents, err := adapter.ListDocuments(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, documents, 1)
}

func TestAdapter_Ingest_ConcurrentDuplicates(t *testing.T) {
	adapter := newBadgerAdapter(t, ai.UnavailableRecognizer{})
	ctx := context.Background()

	const uploads = 8
	content := "Sara bought tomatoes at the market."

	var wg sync.WaitGroup
	outcomes := make([]core.StoreOutcome, uploads)
	errs := make([]error, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = adapter.Ingest(ctx, "user_1", "notes.txt", content, core.DocumentMeta{})
		}(i)
	}
	wg.Wait()

	success, skipped := 0, 0
	for i := 0; i < uploads; i++ {
		require.NoError(t, errs[i])
		switch outcomes[i].Status {
		case core.StatusSuccess:
			success++
		case core.StatusSkipped:
			skipped++
		}
	}
	assert.Equal(t, 1, success, "exactly one concurrent upload should win")
	assert.Equal(t, uploads-1, skipped)

	documents, err := adapter.ListDocuments(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, documents, 1)
}

// stubGraphStore scripts CreateDocument failures.
type stubGraphStore struct {
	createErr error
}

var _ storage.GraphStore = (*stubGraphStore)(nil)

func (s *stubGraphStore) DocumentExists(ctx context.Context, userID string, fp core.Fingerprint) (bool, error) {
	return false, nil
}

func (s *stubGraphStore) CreateDocument(ctx context.Context, userID string, doc *core.GraphDocument) error {
	return s.createErr
}

func (s *stubGraphStore) MergeMention(ctx context.Context, userID, documentID string, entity core.Entity, mention core.Mention) error {
	return nil
}

func (s *stubGraphStore) FindDocuments(ctx context.Context, userID, query string, limit int) ([]core.GraphResult, error) {
	return nil, nil
}

func (s *stubGraphStore) ListDocuments(ctx context.Context, userID string, limit int) ([]core.GraphResult, error) {
	return nil, nil
}

func (s *stubGraphStore) Close() error { return nil }

func TestAdapter_Ingest_WrappedDuplicateError(t *testing.T) {
	// A store may wrap the duplicate sentinel; the skip path must still
	// recognize it.
	store := &stubGraphStore{createErr: fmt.Errorf("merge failed: %w", storage.ErrDuplicateKey)}
	adapter, err := NewAdapter(store, ai.UnavailableRecognizer{})
	require.NoError(t, err)

	outcome, err := adapter.Ingest(context.Background(), "user_1", "a.txt", "content", core.DocumentMeta{})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSkipped, outcome.Status)
	assert.Equal(t, core.ReasonDuplicate, outcome.Reason)
}

func TestAdapter_Ingest_RecognizerUnavailable(t *testing.T) {
	adapter := newBadgerAdapter(t, ai.UnavailableRecognizer{})
	ctx := context.Background()

	outcome, err := adapter.Ingest(ctx, "user_1", "notes.txt",
		"Sara bought tomatoes at the market.", core.DocumentMeta{})
	require.NoError(t, err)

	// Absent capability degrades to zero entities, not an error.
	assert.Equal(t, core.StatusSuccess, outcome.Status)
	assert.Equal(t, 0, outcome.EntitiesExtracted)
	assert.Empty(t, outcome.Entities)

	results, err := adapter.Query(ctx, "user_1", "market")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Entities)
}

func TestAdapter_Ingest_EntityPreviewCapped(t *testing.T) {
	recognizer := mock.NewMockRecognizer()
	recognizer.RecognizeFunc = func(ctx context.Context, text string) ([]ai.EntitySpan, error) {
		spans := make([]ai.EntitySpan, 12)
		for i := range spans {
			spans[i] = ai.EntitySpan{
				Text:  fmt.Sprintf("Entity%d", i),
				Type:  "organization",
				Start: i,
				End:   i + 1,
			}
		}
		return spans, nil
	}
	adapter := newBadgerAdapter(t, recognizer)

	outcome, err := adapter.Ingest(context.Background(), "user_1", "orgs.txt",
		"a corporate registry with many organizations", core.DocumentMeta{})
	require.NoError(t, err)

	assert.Equal(t, 12, outcome.EntitiesExtracted)
	assert.Len(t, outcome.Entities, 10)
}

func TestAdapter_Ingest_ContentTruncated(t *testing.T) {
	adapter := newBadgerAdapter(t, ai.UnavailableRecognizer{})
	ctx := context.Background()

	long := make([]byte, 0, 6000)
	for i := 0; i < 600; i++ {
		long = append(long, []byte("needles in ")...)
	}
	_, err := adapter.Ingest(ctx, "user_1", "long.txt", string(long), core.DocumentMeta{})
	require.NoError(t, err)

	results, err := adapter.Query(ctx, "user_1", "needles")
	require.NoError(t, err)
	require.Len(t, results, 1)
	// The preview comes from the stored (truncated) content.
	assert.Equal(t, 200, len([]rune(results[0].Document.ContentPreview)))
}

func TestAdapter_Query_Limit(t *testing.T) {
	adapter := newBadgerAdapter(t, ai.UnavailableRecognizer{})
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := adapter.Ingest(ctx, "user_1", fmt.Sprintf("doc%d.txt", i),
			fmt.Sprintf("shared needle, distinct suffix %d", i), core.DocumentMeta{})
		require.NoError(t, err)
	}

	results, err := adapter.Query(ctx, "user_1", "needle")
	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestAdapter_ListDocuments_NewestFirst(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	adapter := newBadgerAdapter(t, ai.UnavailableRecognizer{}, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()

	for _, name := range []string{"first.txt", "second.txt", "third.txt"} {
		_, err := adapter.Ingest(ctx, "user_1", name, "content of "+name, core.DocumentMeta{})
		require.NoError(t, err)
	}

	results, err := adapter.ListDocuments(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "third.txt", results[0].Document.Name)
	assert.Equal(t, "second.txt", results[1].Document.Name)
	assert.Equal(t, "first.txt", results[2].Document.Name)
}

func TestContextWindow(t *testing.T) {
	runes := []rune("Sara bought tomatoes at the market in Lyon this afternoon because the forecast promised sunshine.")

	// A span in the middle gets the full radius on both sides.
	hi := 64 + 50
	if hi > len(runes) {
		hi = len(runes)
	}
	assert.Equal(t, string(runes[10:hi]), contextWindow(runes, 60, 64))

	// Spans at the edges clamp instead of panicking.
	assert.Equal(t, string(runes[:54]), contextWindow(runes, 0, 4))
	end := len(runes)
	assert.Equal(t, string(runes[end-54:]), contextWindow(runes, end-4, end))
}

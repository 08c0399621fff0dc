package storage

import (
	"context"

	"github.com/docmesh/docmesh/core"
)

// IndexEntry is one chunk submitted to the embedding index. ID must be
// unique within the collection; Meta carries the full chunk metadata
// persisted alongside the vector.
type IndexEntry struct {
	ID      string
	Content string
	Meta    core.ChunkMeta
}

// VectorHit is a ranked result from the embedding index. Distance is
// cosine distance (1 - cosine similarity): smaller is closer.
type VectorHit struct {
	Content  string
	Meta     core.ChunkMeta
	Distance float32
}

// MetaFilter selects chunk metadata records by exact field match.
// Zero-valued fields are not applied.
type MetaFilter struct {
	UserID      string
	DocumentID  string
	Fingerprint core.Fingerprint
}

// Matches reports whether the given metadata satisfies every non-zero
// field of the filter.
func (f MetaFilter) Matches(meta core.ChunkMeta) bool {
	if f.UserID != "" && meta.UserID != f.UserID {
		return false
	}
	if f.DocumentID != "" && meta.DocumentID != f.DocumentID {
		return false
	}
	if f.Fingerprint != "" && meta.Fingerprint != f.Fingerprint {
		return false
	}
	return true
}

// EmbeddingIndex provides per-collection semantic storage and retrieval.
// Implementations must be thread-safe and support concurrent access.
type EmbeddingIndex interface {
	// Upsert writes the entries of one document to a collection in a
	// single atomic operation. The document's fingerprint (taken from
	// the entries' metadata) is registered as a uniqueness key: if the
	// collection already holds that fingerprint, nothing is written and
	// ErrDuplicateKey is returned. Concurrent uploads of identical
	// content therefore produce one insert and one detectable conflict.
	Upsert(ctx context.Context, collection string, entries ...IndexEntry) error

	// Query embeds text and returns up to limit hits from the
	// collection, ordered by ascending distance.
	Query(ctx context.Context, collection string, text string, limit int) ([]VectorHit, error)

	// Get returns the metadata of every chunk in the collection
	// matching the filter. Used for existence checks and listing.
	Get(ctx context.Context, collection string, filter MetaFilter) ([]core.ChunkMeta, error)

	// Close closes the index and releases resources.
	Close() error
}

// IndexedChunk is one stored chunk with its persisted vector, addressed
// by its in-collection ID. Used by maintenance operations that rewrite
// vectors in place.
type IndexedChunk struct {
	ID      string
	Content string
	Vector  []float32
	Meta    core.ChunkMeta
}

// ChunkRepository exposes the raw chunk records of an embedding index
// for maintenance operations such as batch re-embedding. Implemented by
// indexes that own their record storage; remote indexes that cannot
// enumerate collections need not implement it.
type ChunkRepository interface {
	// ListCollections returns the name of every collection holding at
	// least one chunk.
	ListCollections(ctx context.Context) ([]string, error)

	// GetChunks returns every chunk record in the collection.
	GetChunks(ctx context.Context, collection string) ([]*IndexedChunk, error)

	// UpdateChunks rewrites the given chunk records in place and returns
	// the number updated. Chunks are matched by ID; unknown IDs are
	// written as new records.
	UpdateChunks(ctx context.Context, collection string, chunks ...*IndexedChunk) (int, error)
}

// GraphStore provides per-user document/entity subgraph storage.
// Implementations must be thread-safe and support concurrent access.
type GraphStore interface {
	// DocumentExists reports whether the user already holds a document
	// with the given content fingerprint.
	DocumentExists(ctx context.Context, userID string, fingerprint core.Fingerprint) (bool, error)

	// CreateDocument stores a document node under the user, linked by an
	// UPLOADED edge. The fingerprint acts as a per-user uniqueness key:
	// if a document with the same fingerprint already exists,
	// ErrDuplicateKey is returned and nothing is written.
	CreateDocument(ctx context.Context, userID string, doc *core.GraphDocument) error

	// MergeMention upserts the entity node (create-only timestamp,
	// never overwritten on re-merge) and records a MENTIONS edge from
	// the document carrying the context window and position. Merging
	// the same (document, entity, position) twice is idempotent.
	MergeMention(ctx context.Context, userID string, documentID string, entity core.Entity, mention core.Mention) error

	// FindDocuments returns the user's documents whose content, name,
	// or any tag contains the query as a case-sensitive substring, up
	// to limit results, each with its mentioned entities deduplicated
	// by node identity.
	FindDocuments(ctx context.Context, userID string, query string, limit int) ([]core.GraphResult, error)

	// ListDocuments returns the user's documents ordered by upload time
	// descending, up to limit results, each with mentioned entities.
	ListDocuments(ctx context.Context, userID string, limit int) ([]core.GraphResult, error)

	// Close closes the store and releases resources.
	Close() error
}

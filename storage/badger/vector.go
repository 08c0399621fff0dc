// Copyright 2026 Docmesh Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/docmesh/docmesh/ai"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
)

// EmbeddingIndex implements storage.EmbeddingIndex over BadgerDB with a
// brute-force cosine scan. Suitable for per-user collections of modest
// size; a dedicated vector store (storage/qdrant) covers the rest.
type EmbeddingIndex struct {
	backend  *Backend
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ storage.EmbeddingIndex = (*EmbeddingIndex)(nil)

// NewEmbeddingIndex creates an embedding index over the given backend.
// The embedder is used both at upsert and at query time.
func NewEmbeddingIndex(backend *Backend, embedder ai.Embedder) (storage.EmbeddingIndex, error) {
	return &EmbeddingIndex{
		backend:  backend,
		embedder: embedder,
		logger:   slog.Default().With("component", "badger-index"),
	}, nil
}

// Close releases resources. The shared backend is closed by its owner.
func (x *EmbeddingIndex) Close() error {
	return nil
}

// Upsert writes one document's chunks to the collection atomically.
// The document fingerprint is registered inside the same transaction, so
// concurrent uploads of identical content produce exactly one insert and
// one storage.ErrDuplicateKey.
func (x *EmbeddingIndex) Upsert(ctx context.Context, collection string, entries ...storage.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	// Embed outside the transaction; badger write transactions should
	// stay short.
	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Content
	}
	vectors, err := x.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(entries) {
		return storage.ErrSerializationFailed
	}

	fp := entries[0].Meta.Fingerprint
	fpKey := makeChunkFingerprintKey(collection, fp)

	for {
		err := x.backend.WithTx(func(tx *badger.Txn) error {
			if _, err := tx.Get(fpKey); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			if err := tx.Set(fpKey, []byte(entries[0].Meta.DocumentID)); err != nil {
				return err
			}

			for i, entry := range entries {
				record := &storage.ChunkRecord{
					Content: entry.Content,
					Vector:  vectors[i],
					Meta:    entry.Meta,
				}
				key := makeChunkKey(collection, entry.ID)
				if err := tx.Set(key, storage.MarshalChunkRecord(record)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		// Commit lost a race on the fingerprint key. The retry sees the
		// winner's claim and reports storage.ErrDuplicateKey.
	}
}

// Query embeds text and scans the collection for the closest chunks,
// ordered by ascending cosine distance.
func (x *EmbeddingIndex) Query(ctx context.Context, collection string, text string, limit int) ([]storage.VectorHit, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	queryVector, err := x.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	var hits []storage.VectorHit
	err = x.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *storage.ChunkRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			hits = append(hits, storage.VectorHit{
				Content:  record.Content,
				Meta:     record.Meta,
				Distance: cosineDistance(queryVector, record.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b storage.VectorHit) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Get returns the metadata of every chunk in the collection matching the
// filter.
func (x *EmbeddingIndex) Get(ctx context.Context, collection string, filter storage.MetaFilter) ([]core.ChunkMeta, error) {
	var metas []core.ChunkMeta
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *storage.ChunkRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil && filter.Matches(record.Meta) {
				metas = append(metas, record.Meta)
			}
		}
		return nil
	}, false)
	return metas, err
}

// cosineDistance returns 1 - cosine similarity. Vectors need not be
// normalized; a zero-magnitude vector is treated as maximally distant.
func cosineDistance(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}

package badger

import (
	"context"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/docmesh/docmesh/storage"
)

var _ storage.ChunkRepository = (*EmbeddingIndex)(nil)

// ListCollections scans chunk keys and returns the distinct collection
// names, sorted. Values are not fetched.
func (x *EmbeddingIndex) ListCollections(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if collection, ok := chunkKeyCollection(iter.Item().Key()); ok {
				seen[collection] = true
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	collections := make([]string, 0, len(seen))
	for collection := range seen {
		collections = append(collections, collection)
	}
	sort.Strings(collections)
	return collections, nil
}

// GetChunks returns every chunk record in the collection, with content,
// vector, and metadata.
func (x *EmbeddingIndex) GetChunks(ctx context.Context, collection string) ([]*storage.IndexedChunk, error) {
	scanPrefix := makeChunkScanPrefix(collection)

	var chunks []*storage.IndexedChunk
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			id := string(item.Key()[len(scanPrefix):])

			var record *storage.ChunkRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}

			chunks = append(chunks, &storage.IndexedChunk{
				ID:      id,
				Content: record.Content,
				Vector:  record.Vector,
				Meta:    record.Meta,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// UpdateChunks rewrites the given chunk records in one transaction and
// returns the number written.
func (x *EmbeddingIndex) UpdateChunks(ctx context.Context, collection string, chunks ...*storage.IndexedChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	err := x.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			record := &storage.ChunkRecord{
				Content: chunk.Content,
				Vector:  chunk.Vector,
				Meta:    chunk.Meta,
			}
			if err := tx.Set(makeChunkKey(collection, chunk.ID), storage.MarshalChunkRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// chunkKeyCollection extracts the collection name from a chunk record
// key. Entry IDs never contain a colon, so the collection is everything
// between the prefix and the last separator.
func chunkKeyCollection(key []byte) (string, bool) {
	s := string(key)
	s, ok := strings.CutPrefix(s, chunkRecordPrefix+":")
	if !ok {
		return "", false
	}
	sep := strings.LastIndexByte(s, ':')
	if sep < 0 {
		return "", false
	}
	return s[:sep], true
}

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
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
)

// GraphStore implements storage.GraphStore over BadgerDB. Documents and
// their upload-time index are partitioned per user; entity nodes are
// global and keyed by the content-based ID of their (name, type) tuple.
type GraphStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a graph store over the given backend.
func NewGraphStore(backend *Backend) (storage.GraphStore, error) {
	return &GraphStore{
		backend: backend,
		logger:  slog.Default().With("component", "badger-graph"),
	}, nil
}

// Close releases resources. The shared backend is closed by its owner.
func (g *GraphStore) Close() error {
	return nil
}

// DocumentExists reports whether the user already holds a document with
// the given fingerprint.
func (g *GraphStore) DocumentExists(ctx context.Context, userID string, fingerprint core.Fingerprint) (bool, error) {
	var exists bool
	err := g.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeGraphFingerprintKey(userID, fingerprint))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// CreateDocument stores a document node under the user. The fingerprint
// key is claimed inside the same transaction, so concurrent uploads of
// identical content produce exactly one document and one
// storage.ErrDuplicateKey.
func (g *GraphStore) CreateDocument(ctx context.Context, userID string, doc *core.GraphDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	fpKey := makeGraphFingerprintKey(userID, doc.Fingerprint)
	for {
		err := g.backend.WithTx(func(tx *badger.Txn) error {
			if _, err := tx.Get(fpKey); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			if err := tx.Set(fpKey, []byte(doc.ID)); err != nil {
				return err
			}
			if err := tx.Set(makeGraphDocKey(userID, doc.ID), storage.MarshalGraphDocument(doc)); err != nil {
				return err
			}
			dateKey := makeGraphDocDateKey(userID, doc.UploadTime.UnixMicro(), doc.ID)
			if err := tx.Set(dateKey, []byte(doc.ID)); err != nil {
				return err
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

// MergeMention upserts the entity node and records a mention edge from
// the document. The entity's CreatedAt is set on first merge only;
// re-merging an existing entity never overwrites it. Merging the same
// (document, entity, position) twice is idempotent.
func (g *GraphStore) MergeMention(ctx context.Context, userID string, documentID string, entity core.Entity, mention core.Mention) error {
	if err := entity.Validate(); err != nil {
		return err
	}

	entityID := entity.NodeID()
	entityKey := makeEntityKey(entityID)

	return g.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeGraphDocKey(userID, documentID)); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		_, err := tx.Get(entityKey)
		if err == badger.ErrKeyNotFound {
			record := &storage.EntityRecord{
				Name:      entity.Name,
				Type:      entity.Type,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.Set(entityKey, storage.MarshalEntityRecord(record)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		edgeKey := makeMentionKey(documentID, entityID, mention.Position)
		if err := tx.Set(edgeKey, storage.MarshalMention(&mention)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FindDocuments returns the user's documents whose content, name, or any
// tag contains the query as a case-sensitive substring, up to limit
// results, each with its mentioned entities.
func (g *GraphStore) FindDocuments(ctx context.Context, userID string, query string, limit int) ([]core.GraphResult, error) {
	var results []core.GraphResult
	err := g.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGraphDocScanPrefix(userID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(results) < limit; iter.Next() {
			var doc *core.GraphDocument
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalGraphDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil || !documentMatches(doc, query) {
				continue
			}

			entities, err := entitiesForDocument(tx, doc.ID)
			if err != nil {
				return err
			}
			results = append(results, graphResult(doc, entities))
		}
		return nil
	}, false)
	return results, err
}

// ListDocuments returns the user's documents ordered by upload time
// descending, up to limit results.
func (g *GraphStore) ListDocuments(ctx context.Context, userID string, limit int) ([]core.GraphResult, error) {
	var results []core.GraphResult
	err := g.backend.WithTx(func(tx *badger.Txn) error {
		// The date index iterates upload-time ascending; collect every
		// document ID, then walk from the newest end.
		var ids []string
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGraphDocDateScanPrefix(userID)
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id string
			err := iter.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
			ids = append(ids, id)
		}
		iter.Close()

		for i := len(ids) - 1; i >= 0 && len(results) < limit; i-- {
			doc, err := readGraphDocument(tx, userID, ids[i])
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			entities, err := entitiesForDocument(tx, doc.ID)
			if err != nil {
				return err
			}
			results = append(results, graphResult(doc, entities))
		}
		return nil
	}, false)
	return results, err
}

// documentMatches reports whether the query is a substring of the
// document's content, name, or any tag. Matching is case-sensitive; no
// tokenization.
func documentMatches(doc *core.GraphDocument, query string) bool {
	if strings.Contains(doc.Content, query) || strings.Contains(doc.Name, query) {
		return true
	}
	for _, tag := range doc.Tags {
		if strings.Contains(tag, query) {
			return true
		}
	}
	return false
}

// graphResult builds the preview form of a document for query results.
func graphResult(doc *core.GraphDocument, entities []core.Entity) core.GraphResult {
	return core.GraphResult{
		Document: core.DocumentSummary{
			ID:             doc.ID,
			Name:           doc.Name,
			ContentPreview: core.Truncate(doc.Content, 200),
			UploadTime:     doc.UploadTime,
		},
		Entities: entities,
	}
}

// readGraphDocument reads a document node, returning nil if absent.
func readGraphDocument(tx *badger.Txn, userID, documentID string) (*core.GraphDocument, error) {
	item, err := tx.Get(makeGraphDocKey(userID, documentID))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	var doc *core.GraphDocument
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalGraphDocument(val)
		return err
	})
	return doc, err
}

// entitiesForDocument collects the document's mentioned entities,
// deduplicated by node identity. A document mentioning the same entity
// at several positions contributes it once.
func entitiesForDocument(tx *badger.Txn, documentID string) ([]core.Entity, error) {
	scanPrefix := makeMentionScanPrefix(documentID)
	seen := make(map[core.ID]bool)
	var ids []core.ID

	opts := badger.DefaultIteratorOptions
	opts.Prefix = scanPrefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		id, ok := mentionEntityID(iter.Item().Key(), scanPrefix)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	iter.Close()

	var entities []core.Entity
	for _, id := range ids {
		item, err := tx.Get(makeEntityKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				continue
			}
			return nil, err
		}
		var record *storage.EntityRecord
		err = item.Value(func(val []byte) error {
			var err error
			record, err = storage.UnmarshalEntityRecord(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		if record != nil {
			entities = append(entities, record.Entity())
		}
	}
	return entities, nil
}

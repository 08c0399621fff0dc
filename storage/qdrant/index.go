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


// Package qdrant implements storage.EmbeddingIndex against a Qdrant
// server over its REST API. One Qdrant collection backs each logical
// collection; all collections use cosine distance.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docmesh/docmesh/ai"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
)

const defaultTimeout = 15 * time.Second

// errCollectionMissing marks a 404 from the server. Collections are
// created lazily on first upsert, so dedup checks and queries can reach
// a collection that does not exist yet; reads treat that as empty.
var errCollectionMissing = errors.New("collection not found")

// EmbeddingIndex is a minimal REST client to Qdrant. Collections are
// created lazily on first upsert with the embedder's dimensionality.
//
// Duplicate detection here is a filtered count check followed by the
// point upsert: Qdrant exposes no uniqueness constraint, so unlike the
// badger index the two steps are not one atomic operation.
type EmbeddingIndex struct {
	url      string
	apiKey   string
	embedder ai.Embedder
	client   *http.Client
	logger   *slog.Logger

	mu      sync.Mutex
	created map[string]bool
}

var _ storage.EmbeddingIndex = (*EmbeddingIndex)(nil)

// Option configures an EmbeddingIndex.
type Option func(*EmbeddingIndex)

// WithAPIKey sets the api-key header for managed Qdrant deployments.
func WithAPIKey(key string) Option {
	return func(x *EmbeddingIndex) { x.apiKey = key }
}

// WithTimeout overrides the default HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(x *EmbeddingIndex) { x.client.Timeout = timeout }
}

// NewEmbeddingIndex creates an index client for the given server URL.
//
// Returns the storage.EmbeddingIndex interface to enforce abstraction.
func NewEmbeddingIndex(url string, embedder ai.Embedder, opts ...Option) (storage.EmbeddingIndex, error) {
	x := &EmbeddingIndex{
		url:      url,
		embedder: embedder,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   slog.Default().With("component", "qdrant-index"),
		created:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// Close releases resources. The HTTP client needs no explicit cleanup.
func (x *EmbeddingIndex) Close() error {
	return nil
}

// Upsert writes one document's chunks to the collection. The document
// fingerprint is checked first; a collection already holding it returns
// storage.ErrDuplicateKey.
func (x *EmbeddingIndex) Upsert(ctx context.Context, collection string, entries ...storage.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Content
	}
	vectors, err := x.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(entries) || len(vectors[0]) == 0 {
		return storage.ErrSerializationFailed
	}

	if err := x.ensureCollection(ctx, collection, len(vectors[0])); err != nil {
		return err
	}

	count, err := x.countByFingerprint(ctx, collection, entries[0].Meta.Fingerprint)
	if err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	points := make([]map[string]any, len(entries))
	for i, entry := range entries {
		points[i] = map[string]any{
			"id":      pointID(collection, entry.ID),
			"vector":  vectors[i],
			"payload": payloadFromMeta(entry.Content, entry.Meta),
		}
	}
	body := map[string]any{"points": points}
	return x.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, collection), body)
}

// Query embeds text and searches the collection, returning hits ordered
// by ascending cosine distance. A collection that has not been created
// yet yields no hits, not an error.
func (x *EmbeddingIndex) Query(ctx context.Context, collection string, text string, limit int) ([]storage.VectorHit, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	vector, err := x.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err = x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", x.url, collection), req, &resp)
	if errors.Is(err, errCollectionMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	hits := make([]storage.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		content, meta := metaFromPayload(r.Payload)
		hits = append(hits, storage.VectorHit{
			Content: content,
			Meta:    meta,
			// Qdrant reports cosine similarity; callers rank by distance.
			Distance: float32(1 - r.Score),
		})
	}
	return hits, nil
}

// Get returns the metadata of every chunk in the collection matching the
// filter, using the scroll API. A collection that has not been created
// yet yields no metadata, not an error.
func (x *EmbeddingIndex) Get(ctx context.Context, collection string, filter storage.MetaFilter) ([]core.ChunkMeta, error) {
	var metas []core.ChunkMeta
	var offset any

	for {
		req := map[string]any{
			"limit":        256,
			"with_payload": true,
		}
		if conditions := filterConditions(filter); len(conditions) > 0 {
			req["filter"] = map[string]any{"must": conditions}
		}
		if offset != nil {
			req["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", x.url, collection), req, &resp)
		if errors.Is(err, errCollectionMissing) {
			return metas, nil
		}
		if err != nil {
			return nil, err
		}

		for _, point := range resp.Result.Points {
			_, meta := metaFromPayload(point.Payload)
			metas = append(metas, meta)
		}

		if resp.Result.NextPageOffset == nil {
			return metas, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// ensureCollection creates the collection if this client has not seen it
// yet. Qdrant answers 200 for an existing collection with the same
// schema, so repeating the PUT is harmless.
func (x *EmbeddingIndex) ensureCollection(ctx context.Context, collection string, dimension int) error {
	x.mu.Lock()
	known := x.created[collection]
	x.mu.Unlock()
	if known {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := x.putJSON(ctx, fmt.Sprintf("%s/collections/%s", x.url, collection), body); err != nil {
		return err
	}

	x.mu.Lock()
	x.created[collection] = true
	x.mu.Unlock()
	return nil
}

func (x *EmbeddingIndex) countByFingerprint(ctx context.Context, collection string, fp core.Fingerprint) (int, error) {
	req := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "fingerprint", "match": map[string]any{"value": string(fp)}},
			},
		},
		"exact": true,
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", x.url, collection), req, &resp)
	if errors.Is(err, errCollectionMissing) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// pointID derives a stable UUID for an entry. Qdrant point IDs must be
// UUIDs or integers, so the entry ID is hashed into the UUID namespace.
func pointID(collection, entryID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(collection+"/"+entryID)).String()
}

func filterConditions(filter storage.MetaFilter) []map[string]any {
	var conditions []map[string]any
	if filter.UserID != "" {
		conditions = append(conditions, map[string]any{
			"key": "user_id", "match": map[string]any{"value": filter.UserID},
		})
	}
	if filter.DocumentID != "" {
		conditions = append(conditions, map[string]any{
			"key": "document_id", "match": map[string]any{"value": filter.DocumentID},
		})
	}
	if filter.Fingerprint != "" {
		conditions = append(conditions, map[string]any{
			"key": "fingerprint", "match": map[string]any{"value": string(filter.Fingerprint)},
		})
	}
	return conditions
}

func payloadFromMeta(content string, meta core.ChunkMeta) map[string]any {
	return map[string]any{
		"text":              content,
		"document_id":       meta.DocumentID,
		"document_name":     meta.DocumentName,
		"user_id":           meta.UserID,
		"chunk_index":       meta.ChunkIndex,
		"fingerprint":       string(meta.Fingerprint),
		"tags":              meta.Tags,
		"description":       meta.Description,
		"original_filename": meta.OriginalFilename,
		"content_type":      meta.ContentType,
	}
}

func metaFromPayload(payload map[string]any) (string, core.ChunkMeta) {
	var meta core.ChunkMeta
	content, _ := payload["text"].(string)
	meta.DocumentID, _ = payload["document_id"].(string)
	meta.DocumentName, _ = payload["document_name"].(string)
	meta.UserID, _ = payload["user_id"].(string)
	if v, ok := payload["chunk_index"].(float64); ok {
		meta.ChunkIndex = int(v)
	}
	if v, ok := payload["fingerprint"].(string); ok {
		meta.Fingerprint = core.Fingerprint(v)
	}
	if tags, ok := payload["tags"].([]any); ok {
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				meta.Tags = append(meta.Tags, s)
			}
		}
	}
	meta.Description, _ = payload["description"].(string)
	meta.OriginalFilename, _ = payload["original_filename"].(string)
	meta.ContentType, _ = payload["content_type"].(string)
	return content, meta
}

func (x *EmbeddingIndex) putJSON(ctx context.Context, url string, body any) error {
	return x.doJSON(ctx, http.MethodPut, url, body, nil)
}

func (x *EmbeddingIndex) postJSON(ctx context.Context, url string, body any, out any) error {
	return x.doJSON(ctx, http.MethodPost, url, body, out)
}

func (x *EmbeddingIndex) doJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant %s %s failed: %s: %w", method, url, resp.Status, errCollectionMissing)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

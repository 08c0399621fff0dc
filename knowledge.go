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


// Package docmesh assembles the dual-store document system: a local
// BadgerDB backend holding both the embedding index and the document
// graph, an AI provider for embeddings and entity recognition, and the
// ingestion coordinator that fans uploads out to both stores.
package docmesh

import (
	"context"
	"io"
	"log/slog"

	"github.com/docmesh/docmesh/ai"
	"github.com/docmesh/docmesh/ai/openai"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/graph"
	"github.com/docmesh/docmesh/ingest"
	"github.com/docmesh/docmesh/reindex"
	"github.com/docmesh/docmesh/storage"
	badgerstore "github.com/docmesh/docmesh/storage/badger"
	"github.com/docmesh/docmesh/vector"
)

// System is the assembled document system over one local backend.
type System struct {
	backend     *badgerstore.Backend
	index       storage.EmbeddingIndex
	graphStore  storage.GraphStore
	provider    ai.Provider
	coordinator *ingest.Coordinator
	logger      *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig   *ai.Config
	provider   ai.Provider
	graphStore storage.GraphStore
	inMemory   bool
}

// WithAIConfig sets the AI service configuration used to build the
// default OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider instead of constructing
// one from configuration. The system takes ownership and closes it.
func WithProvider(provider ai.Provider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithGraphStore injects an external graph store (for example
// storage/neo4j) in place of the local badger-backed one. The system
// takes ownership and closes it.
func WithGraphStore(store storage.GraphStore) SystemOption {
	return func(o *systemOptions) {
		o.graphStore = store
	}
}

// WithInMemory opens the backend in memory, discarding all data on
// close. The path argument to Open is ignored.
func WithInMemory() SystemOption {
	return func(o *systemOptions) {
		o.inMemory = true
	}
}

// Open assembles a system over a BadgerDB backend at filePath.
func Open(filePath string, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badgerstore.OpenBackend(filePath, options.inMemory)
	if err != nil {
		provider.Close()
		return nil, err
	}

	index, err := badgerstore.NewEmbeddingIndex(backend, provider.Embedder())
	if err != nil {
		backend.Close()
		provider.Close()
		return nil, err
	}

	graphStore := options.graphStore
	if graphStore == nil {
		graphStore, err = badgerstore.NewGraphStore(backend)
		if err != nil {
			index.Close()
			backend.Close()
			provider.Close()
			return nil, err
		}
	}

	vectorAdapter, err := vector.NewAdapter(index)
	if err != nil {
		graphStore.Close()
		index.Close()
		backend.Close()
		provider.Close()
		return nil, err
	}

	graphAdapter, err := graph.NewAdapter(graphStore, provider.Recognizer())
	if err != nil {
		graphStore.Close()
		index.Close()
		backend.Close()
		provider.Close()
		return nil, err
	}

	coordinator, err := ingest.NewCoordinator(vectorAdapter, graphAdapter)
	if err != nil {
		graphStore.Close()
		index.Close()
		backend.Close()
		provider.Close()
		return nil, err
	}

	return &System{
		backend:     backend,
		index:       index,
		graphStore:  graphStore,
		provider:    provider,
		coordinator: coordinator,
		logger:      slog.Default(),
	}, nil
}

// Ingest stores one document in both stores and reports their
// independent outcomes.
func (s *System) Ingest(ctx context.Context, userID, documentName, content string, meta core.DocumentMeta) core.IngestReport {
	return s.coordinator.Ingest(ctx, userID, documentName, content, meta)
}

// QueryVector runs a semantic similarity search over the user's chunks.
func (s *System) QueryVector(ctx context.Context, userID, query string, topK int) ([]core.VectorResult, error) {
	return s.coordinator.QueryVector(ctx, userID, query, topK)
}

// QueryGraph runs a substring search over the user's document graph.
func (s *System) QueryGraph(ctx context.Context, userID, query string) ([]core.GraphResult, error) {
	return s.coordinator.QueryGraph(ctx, userID, query)
}

// ListDocuments inventories the user's documents across both stores.
func (s *System) ListDocuments(ctx context.Context, userID string) (*core.Inventory, error) {
	return s.coordinator.ListDocuments(ctx, userID)
}

// Provider returns the AI provider backing the system.
func (s *System) Provider() ai.Provider {
	return s.provider
}

// NewReindexer creates a reindexer that re-embeds every stored chunk
// with the system's current embedder, reporting progress to w.
func (s *System) NewReindexer(config *reindex.Config, w io.Writer) (*reindex.Reindexer, error) {
	repo, ok := s.index.(storage.ChunkRepository)
	if !ok {
		return nil, reindex.ErrRepositoryRequired
	}
	return reindex.NewReindexer(repo, s.provider.Embedder(), config, w)
}

// Close shuts down the coordinator, provider, stores, and backend.
func (s *System) Close() error {
	s.coordinator.Release()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.index.Close(); err != nil {
		s.logger.Error("error closing embedding index", "err", err)
		return err
	}
	if err := s.graphStore.Close(); err != nil {
		s.logger.Error("error closing graph store", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

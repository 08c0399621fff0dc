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


// Package storage provides the storage abstraction layer for docmesh.
//
// This package defines the two store interfaces that decouple the
// ingestion and query pipelines from their backends:
//
//   - EmbeddingIndex: per-collection semantic chunk storage with
//     nearest-neighbor query (one collection per user)
//   - GraphStore: per-user document/entity subgraphs with mention
//     edges and substring query
//
// Both carry the document fingerprint as a uniqueness key, so duplicate
// uploads surface as ErrDuplicateKey instead of silently inserting
// twice. The stores hold no shared dedup state: each one checks only
// its own persisted fingerprints.
//
// Public constructors in the implementation packages (storage/badger,
// storage/neo4j, storage/qdrant) return these interfaces rather than
// concrete types, so backends can be swapped without touching
// consumers. Use in tests with in-memory storage:
//
//	index, graph, backend, err := badger.NewMemoryStores(embedder)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// All implementations must be thread-safe, and all methods accept
// context.Context for cancellation.
package storage

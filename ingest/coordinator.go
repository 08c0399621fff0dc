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


// Package ingest coordinates the two store pipelines. One ingestion
// fans out to the vector and graph adapters independently: each call
// is wrapped so a failure (or panic) in one store becomes an error
// outcome in the report instead of aborting the other store's attempt.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/graph"
	"github.com/docmesh/docmesh/vector"
)

// Coordinator fans ingestion out to both stores and exposes the query
// pass-throughs. It holds no cross-store logic beyond failure isolation.
type Coordinator struct {
	vector *vector.Adapter
	graph  *graph.Adapter
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithPoolSize sets the worker pool size for concurrent store calls.
// Default is runtime.NumCPU() / 2, with a minimum of 2.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 2 {
			size = 2
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a coordinator over the two store adapters.
func NewCoordinator(vectorAdapter *vector.Adapter, graphAdapter *graph.Adapter, opts ...Option) (*Coordinator, error) {
	if vectorAdapter == nil {
		return nil, ErrVectorAdapterRequired
	}
	if graphAdapter == nil {
		return nil, ErrGraphAdapterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 2 {
		poolSize = 2
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		vector: vectorAdapter,
		graph:  graphAdapter,
		pool:   pool,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}
	return c, nil
}

// Ingest runs both store pipelines for one document and reports their
// independent outcomes. It never returns an error: store failures are
// captured in the report, and one store's failure never prevents the
// other store's attempt.
func (c *Coordinator) Ingest(ctx context.Context, userID, documentName, content string, meta core.DocumentMeta) core.IngestReport {
	var report core.IngestReport
	var wg sync.WaitGroup

	wg.Add(2)
	c.submit(func() {
		defer wg.Done()
		report.Vector = c.runStore("vector", func() (core.StoreOutcome, error) {
			return c.vector.Ingest(ctx, userID, documentName, content, meta)
		})
	})
	c.submit(func() {
		defer wg.Done()
		report.Graph = c.runStore("graph", func() (core.StoreOutcome, error) {
			return c.graph.Ingest(ctx, userID, documentName, content, meta)
		})
	})
	wg.Wait()

	c.logger.Info("ingestion finished",
		"document", documentName,
		"user", userID,
		"vector_status", report.Vector.Status,
		"graph_status", report.Graph.Status)
	return report
}

// QueryVector is a thin pass-through to the semantic adapter.
func (c *Coordinator) QueryVector(ctx context.Context, userID, query string, topK int) ([]core.VectorResult, error) {
	return c.vector.Query(ctx, userID, query, topK)
}

// QueryGraph is a thin pass-through to the graph adapter.
func (c *Coordinator) QueryGraph(ctx context.Context, userID, query string) ([]core.GraphResult, error) {
	return c.graph.Query(ctx, userID, query)
}

// ListDocuments inventories the user's documents across both stores.
func (c *Coordinator) ListDocuments(ctx context.Context, userID string) (*core.Inventory, error) {
	vectorDocs, err := c.vector.ListDocuments(ctx, userID)
	if err != nil {
		return nil, err
	}
	graphDocs, err := c.graph.ListDocuments(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &core.Inventory{
		VectorDocuments: vectorDocs,
		GraphDocuments:  graphDocs,
	}, nil
}

// Release releases the worker pool.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// submit schedules fn on the pool, falling back to the calling
// goroutine if the pool rejects it. Ingestion must always run both
// store pipelines.
func (c *Coordinator) submit(fn func()) {
	if err := c.pool.Submit(fn); err != nil {
		c.logger.Warn("worker pool rejected task, running inline", "err", err)
		fn()
	}
}

// runStore invokes one store pipeline, converting errors and panics
// into error outcomes.
func (c *Coordinator) runStore(store string, fn func() (core.StoreOutcome, error)) (outcome core.StoreOutcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("store pipeline panicked", "store", store, "panic", r)
			outcome = core.StoreOutcome{
				Status:  core.StatusError,
				Message: fmt.Sprintf("%v", r),
			}
		}
	}()

	result, err := fn()
	if err != nil {
		c.logger.Error("store pipeline failed", "store", store, "err", err)
		return core.StoreOutcome{
			Status:  core.StatusError,
			Message: err.Error(),
		}
	}
	return result
}

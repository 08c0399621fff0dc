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


// Package graph is the entity store adapter: it records documents as
// graph nodes under their uploading user, extracts entity mentions
// with positional context, and answers substring queries over a user's
// subgraph.
package graph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docmesh/docmesh/ai"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
)

const (
	// contentLimit bounds the document text copied into the graph
	// store; the full text lives in the semantic index's chunks.
	contentLimit = 5000

	// contextRadius is the number of runes kept on each side of an
	// entity mention for the MENTIONS edge's context window.
	contextRadius = 50

	// queryLimit caps substring query results.
	queryLimit = 10

	// listLimit caps inventory listings.
	listLimit = 50

	// entitiesPreview is how many extracted entities an ingestion
	// outcome reports back.
	entitiesPreview = 10
)

// Adapter owns the graph side of ingestion and retrieval.
type Adapter struct {
	store      storage.GraphStore
	recognizer ai.EntityRecognizer
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithClock overrides the upload-time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) error {
		a.now = now
		return nil
	}
}

// NewAdapter creates a graph store adapter. The recognizer may be
// ai.UnavailableRecognizer{}, in which case ingestion proceeds with
// zero entities.
func NewAdapter(store storage.GraphStore, recognizer ai.EntityRecognizer, opts ...Option) (*Adapter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if recognizer == nil {
		return nil, ErrRecognizerRequired
	}

	a := &Adapter{
		store:      store,
		recognizer: recognizer,
		logger:     slog.Default().With("component", "graph-adapter"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if !recognizer.Available() {
		a.logger.Warn("entity recognition unavailable, documents will be stored without entities")
	}
	return a, nil
}

// Ingest stores the document under the user and records a mention edge
// for every extracted entity. Duplicate content short-circuits to a
// skipped outcome. An absent recognition capability is not an error:
// the document is stored with zero entities.
func (a *Adapter) Ingest(ctx context.Context, userID, documentName, content string, meta core.DocumentMeta) (core.StoreOutcome, error) {
	if err := core.ValidateUpload(userID, documentName); err != nil {
		return core.StoreOutcome{}, err
	}

	fp := core.FingerprintOf(content)
	a.logger.Info("adding document to graph store",
		"document", documentName, "user", userID, "fingerprint", fp.Short())

	exists, err := a.store.DocumentExists(ctx, userID, fp)
	if err != nil {
		return core.StoreOutcome{}, err
	}
	if exists {
		a.logger.Warn("duplicate detected in graph store, skipping",
			"document", documentName, "fingerprint", fp.Short())
		return skippedOutcome(), nil
	}

	doc := &core.GraphDocument{
		ID:          uuid.New().String(),
		Name:        documentName,
		Content:     core.Truncate(content, contentLimit),
		Fingerprint: fp,
		Tags:        meta.Tags,
		Description: meta.Description,
		UploadTime:  a.now(),
	}
	err = a.store.CreateDocument(ctx, userID, doc)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Lost a race against a concurrent identical upload.
		a.logger.Warn("concurrent duplicate upload detected in graph store",
			"document", documentName, "fingerprint", fp.Short())
		return skippedOutcome(), nil
	}
	if err != nil {
		return core.StoreOutcome{}, err
	}

	// Offsets index the original content, not the truncated copy.
	spans, err := a.recognizer.Recognize(ctx, content)
	if err != nil {
		return core.StoreOutcome{}, err
	}

	runes := []rune(content)
	entities := make([]core.Entity, 0, len(spans))
	for _, span := range spans {
		entity := core.Entity{Name: span.Text, Type: span.Type}
		mention := core.Mention{
			Context:  contextWindow(runes, span.Start, span.End),
			Position: span.Start,
		}
		if err := a.store.MergeMention(ctx, userID, doc.ID, entity, mention); err != nil {
			return core.StoreOutcome{}, err
		}
		entities = append(entities, entity)
	}

	a.logger.Info("document added to graph store",
		"document", documentName,
		"document_id", doc.ID,
		"entities", len(entities))

	outcome := core.StoreOutcome{
		Status:            core.StatusSuccess,
		DocumentID:        doc.ID,
		EntitiesExtracted: len(entities),
		Entities:          entities,
		Message:           "document added to graph database",
	}
	if len(outcome.Entities) > entitiesPreview {
		outcome.Entities = outcome.Entities[:entitiesPreview]
	}
	return outcome, nil
}

// Query returns the user's documents matching the query as a
// case-sensitive substring of content, name, or any tag.
func (a *Adapter) Query(ctx context.Context, userID, query string) ([]core.GraphResult, error) {
	return a.store.FindDocuments(ctx, userID, query, queryLimit)
}

// ListDocuments returns the user's documents, newest upload first.
func (a *Adapter) ListDocuments(ctx context.Context, userID string) ([]core.GraphResult, error) {
	return a.store.ListDocuments(ctx, userID, listLimit)
}

// contextWindow slices a fixed radius of runes around a mention span.
func contextWindow(runes []rune, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(runes) {
		hi = len(runes)
	}
	if lo > hi {
		return ""
	}
	return string(runes[lo:hi])
}

func skippedOutcome() core.StoreOutcome {
	return core.StoreOutcome{
		Status: core.StatusSkipped,
		Reason: core.ReasonDuplicate,
	}
}

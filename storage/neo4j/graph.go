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


// Package neo4j implements storage.GraphStore against a Neo4j (or
// Bolt-compatible) property graph. Documents hang off per-user User
// nodes via UPLOADED edges; entities are global nodes merged by
// (name, type) and referenced through MENTIONS edges.
package neo4j

import (
	"context"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
)

// GraphStore implements storage.GraphStore over the Neo4j Bolt driver.
type GraphStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

var _ storage.GraphStore = (*GraphStore)(nil)

// Option configures a GraphStore.
type Option func(*config)

type config struct {
	auth     neo4j.AuthToken
	database string
}

// WithBasicAuth sets username/password authentication.
func WithBasicAuth(username, password string) Option {
	return func(c *config) {
		c.auth = neo4j.BasicAuth(username, password, "")
	}
}

// WithDatabase selects a database other than the server default.
func WithDatabase(name string) Option {
	return func(c *config) {
		c.database = name
	}
}

// NewGraphStore connects to a Neo4j server and verifies connectivity.
//
// Returns the storage.GraphStore interface to enforce abstraction.
func NewGraphStore(ctx context.Context, uri string, opts ...Option) (storage.GraphStore, error) {
	cfg := &config{auth: neo4j.NoAuth()}
	for _, opt := range opts {
		opt(cfg)
	}

	driver, err := neo4j.NewDriverWithContext(uri, cfg.auth)
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	return &GraphStore{
		driver:   driver,
		database: cfg.database,
		logger:   slog.Default().With("component", "neo4j-graph"),
	}, nil
}

// Close closes the underlying driver.
func (g *GraphStore) Close() error {
	return g.driver.Close(context.Background())
}

func (g *GraphStore) session(ctx context.Context) neo4j.SessionWithContext {
	return g.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: g.database})
}

// DocumentExists reports whether the user already holds a document with
// the given fingerprint.
func (g *GraphStore) DocumentExists(ctx context.Context, userID string, fingerprint core.Fingerprint) (bool, error) {
	sess := g.session(ctx)
	defer sess.Close(ctx)

	existsAny, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (u:User {id: $user_id})-[:UPLOADED]->(d:Document {content_hash: $content_hash})
			RETURN d.id AS document_id
			LIMIT 1`,
			map[string]any{
				"user_id":      userID,
				"content_hash": string(fingerprint),
			})
		if err != nil {
			return false, err
		}
		return res.Next(ctx), res.Err()
	})
	if err != nil {
		return false, err
	}
	return existsAny.(bool), nil
}

// CreateDocument stores a document node under the user. The MERGE is
// keyed by (user, content_hash), so a concurrent upload of identical
// content resolves to the already-stored node and is reported as
// storage.ErrDuplicateKey instead of a second insert.
func (g *GraphStore) CreateDocument(ctx context.Context, userID string, doc *core.GraphDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	sess := g.session(ctx)
	defer sess.Close(ctx)

	storedAny, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MERGE (u:User {id: $user_id})
			MERGE (u)-[:UPLOADED]->(d:Document {content_hash: $content_hash})
			ON CREATE SET
				d.id = $document_id,
				d.name = $document_name,
				d.content = $content,
				d.upload_time = $upload_time,
				d.tags = $tags,
				d.description = $description
			RETURN d.id AS document_id`,
			map[string]any{
				"user_id":       userID,
				"document_id":   doc.ID,
				"document_name": doc.Name,
				"content":       doc.Content,
				"content_hash":  string(doc.Fingerprint),
				"upload_time":   doc.UploadTime,
				"tags":          stringsToAny(doc.Tags),
				"description":   doc.Description,
			})
		if err != nil {
			return "", err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return "", err
		}
		id, _ := record.Get("document_id")
		return id, nil
	})
	if err != nil {
		return err
	}

	if storedAny != doc.ID {
		g.logger.Warn("duplicate detected in graph store",
			"fingerprint", doc.Fingerprint.Short(),
			"existing_id", storedAny)
		return storage.ErrDuplicateKey
	}
	return nil
}

// MergeMention upserts the entity node and records a MENTIONS edge from
// the document. The entity's created_at is set on create only.
func (g *GraphStore) MergeMention(ctx context.Context, userID string, documentID string, entity core.Entity, mention core.Mention) error {
	if err := entity.Validate(); err != nil {
		return err
	}

	sess := g.session(ctx)
	defer sess.Close(ctx)

	matchedAny, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (u:User {id: $user_id})-[:UPLOADED]->(d:Document {id: $document_id})
			MERGE (e:Entity {name: $entity_name, type: $entity_type})
			ON CREATE SET e.created_at = datetime()
			MERGE (d)-[:MENTIONS {context: $context, position: $position}]->(e)
			RETURN d.id AS document_id`,
			map[string]any{
				"user_id":     userID,
				"document_id": documentID,
				"entity_name": entity.Name,
				"entity_type": entity.Type,
				"context":     mention.Context,
				"position":    mention.Position,
			})
		if err != nil {
			return false, err
		}
		return res.Next(ctx), res.Err()
	})
	if err != nil {
		return err
	}
	if !matchedAny.(bool) {
		return storage.ErrNotFound
	}
	return nil
}

// FindDocuments returns the user's documents whose content, name, or any
// tag contains the query as a case-sensitive substring.
func (g *GraphStore) FindDocuments(ctx context.Context, userID string, query string, limit int) ([]core.GraphResult, error) {
	return g.collect(ctx, `
		MATCH (u:User {id: $user_id})-[:UPLOADED]->(d:Document)
		WHERE d.content CONTAINS $query_text
		OR d.name CONTAINS $query_text
		OR ANY(tag IN d.tags WHERE tag CONTAINS $query_text)
		OPTIONAL MATCH (d)-[:MENTIONS]->(e:Entity)
		WITH d, COLLECT(DISTINCT e) AS entities
		RETURN d, entities
		LIMIT $limit`,
		map[string]any{
			"user_id":    userID,
			"query_text": query,
			"limit":      limit,
		})
}

// ListDocuments returns the user's documents ordered by upload time
// descending.
func (g *GraphStore) ListDocuments(ctx context.Context, userID string, limit int) ([]core.GraphResult, error) {
	return g.collect(ctx, `
		MATCH (u:User {id: $user_id})-[:UPLOADED]->(d:Document)
		OPTIONAL MATCH (d)-[:MENTIONS]->(e:Entity)
		WITH d, COLLECT(DISTINCT e) AS entities
		RETURN d, entities
		ORDER BY d.upload_time DESC
		LIMIT $limit`,
		map[string]any{
			"user_id": userID,
			"limit":   limit,
		})
}

// collect runs a query returning (d, entities) rows and maps them to
// graph results with a 200-rune content preview.
func (g *GraphStore) collect(ctx context.Context, cypher string, params map[string]any) ([]core.GraphResult, error) {
	sess := g.session(ctx)
	defer sess.Close(ctx)

	resultsAny, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		var results []core.GraphResult
		for res.Next(ctx) {
			record := res.Record()
			docAny, ok := record.Get("d")
			if !ok {
				continue
			}
			node, ok := docAny.(neo4j.Node)
			if !ok {
				continue
			}

			result := core.GraphResult{
				Document: core.DocumentSummary{
					ID:             nodeString(node, "id"),
					Name:           nodeString(node, "name"),
					ContentPreview: core.Truncate(nodeString(node, "content"), 200),
					UploadTime:     nodeTime(node, "upload_time"),
				},
			}

			if entitiesAny, ok := record.Get("entities"); ok {
				if list, ok := entitiesAny.([]any); ok {
					for _, item := range list {
						entityNode, ok := item.(neo4j.Node)
						if !ok {
							continue
						}
						result.Entities = append(result.Entities, core.Entity{
							Name: nodeString(entityNode, "name"),
							Type: nodeString(entityNode, "type"),
						})
					}
				}
			}
			results = append(results, result)
		}
		return results, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return resultsAny.([]core.GraphResult), nil
}

func nodeString(node neo4j.Node, key string) string {
	if v, ok := node.Props[key].(string); ok {
		return v
	}
	return ""
}

func nodeTime(node neo4j.Node, key string) time.Time {
	if v, ok := node.Props[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

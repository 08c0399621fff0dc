package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for graph entities.
// It is generated using content-based hashing so that identical
// (name, type) tuples always map to the same node.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Fingerprint is a 256-bit BLAKE2b content digest, hex encoded.
// It is derived once at ingestion and is the unit of per-user deduplication:
// two uploads with an identical fingerprint for the same user are the same
// logical document.
type Fingerprint string

// FingerprintOf computes the fingerprint of document content.
func FingerprintOf(content string) Fingerprint {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write([]byte(content))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// Short returns a truncated fingerprint suitable for log output.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// DocumentMeta carries the caller-supplied metadata for an upload.
// Fields are explicit and typed rather than an open-ended map so that
// missing or renamed fields fail at compile time.
type DocumentMeta struct {
	Tags             []string
	Description      string
	OriginalFilename string
	ContentType      string
}

// Chunk is a bounded, overlapping segment of a document, the unit of
// semantic indexing. Chunk identity is (DocumentID, Index).
type Chunk struct {
	DocumentID  string
	Index       int
	Text        string
	Fingerprint Fingerprint // fingerprint of the parent document
}

// ChunkMeta is the metadata stored alongside every indexed chunk.
type ChunkMeta struct {
	DocumentID       string
	DocumentName     string
	UserID           string
	ChunkIndex       int
	Fingerprint      Fingerprint
	Tags             []string
	Description      string
	OriginalFilename string
	ContentType      string
}

// GraphDocument is a document node in the graph store. Content is
// truncated to bound storage; the full text lives only in the semantic
// index's chunks.
type GraphDocument struct {
	ID          string
	Name        string
	Content     string
	Fingerprint Fingerprint
	Tags        []string
	Description string
	UploadTime  time.Time
}

// Entity is a deduplicated, document-independent graph node keyed purely
// by (name, type). Entities are merged, never duplicated, across every
// document that mentions them.
type Entity struct {
	Name string
	Type string
}

// Tuple returns a string representation of the entity as "(Type,Name)".
// This is used for generating deterministic node IDs.
func (e Entity) Tuple() string {
	return "(" + e.Type + "," + e.Name + ")"
}

// NodeID returns the deterministic graph node ID for the entity.
func (e Entity) NodeID() ID {
	return IDFromContent(e.Tuple())
}

// Mention records that a document's text references an entity, with
// positional context. Position is a rune offset into the original content.
type Mention struct {
	Context  string
	Position int
}

// VectorResult is a ranked hit from the semantic index. Ephemeral, not persisted.
type VectorResult struct {
	Content  string
	Meta     ChunkMeta
	Distance float32
}

// DocumentSummary is the preview form of a graph document in query results.
type DocumentSummary struct {
	ID             string
	Name           string
	ContentPreview string
	UploadTime     time.Time
}

// GraphResult is a graph query hit: a document plus its mentioned entities.
type GraphResult struct {
	Document DocumentSummary
	Entities []Entity
}

// Status is the per-store outcome of one ingestion attempt.
type Status string

const (
	// StatusSuccess means the store accepted the document.
	StatusSuccess Status = "success"
	// StatusSkipped means the store already held the document and the
	// pipeline short-circuited. Not an error.
	StatusSkipped Status = "skipped"
	// StatusError means the store's backend call failed. The failure is
	// captured here and never propagated to the caller.
	StatusError Status = "error"
)

// ReasonDuplicate is the skip reason reported for duplicate fingerprints.
const ReasonDuplicate = "duplicate"

// StoreOutcome reports what one store did with an ingestion request.
type StoreOutcome struct {
	Status            Status
	DocumentID        string
	ChunksProcessed   int
	EntitiesExtracted int
	Entities          []Entity // first entities extracted, capped by the adapter
	Reason            string
	Message           string
}

// IngestReport pairs the two independent per-store outcomes for one
// logical ingestion. The stores may legitimately diverge.
type IngestReport struct {
	Vector StoreOutcome
	Graph  StoreOutcome
}

// Inventory is the result of listing a user's documents across both stores.
type Inventory struct {
	VectorDocuments []ChunkMeta
	GraphDocuments  []GraphResult
}

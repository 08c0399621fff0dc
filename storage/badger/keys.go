package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/docmesh/docmesh/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix      = "chkrec"
	chunkFingerprintPrefix = "chkfpr"
	graphDocPrefix         = "gradoc"
	graphDocDatePrefix     = "gradocd"
	graphFingerprintPrefix = "grafpr"
	entityRecordPrefix     = "entrec"
	mentionEdgePrefix      = "menrel"
)

// makeChunkKey generates a key for one indexed chunk.
// Format: prefix:collection:entryID
func makeChunkKey(collection, entryID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", chunkRecordPrefix, collection, entryID))
}

// makeChunkScanPrefix generates the iteration prefix for a collection's chunks.
func makeChunkScanPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkRecordPrefix, collection))
}

// makeChunkFingerprintKey generates the per-collection uniqueness key for
// a document fingerprint in the embedding index.
func makeChunkFingerprintKey(collection string, fp core.Fingerprint) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", chunkFingerprintPrefix, collection, fp))
}

// makeGraphDocKey generates a key for a graph document node.
// Format: prefix:userID:documentID
func makeGraphDocKey(userID, documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", graphDocPrefix, userID, documentID))
}

// makeGraphDocScanPrefix generates the iteration prefix for a user's documents.
func makeGraphDocScanPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", graphDocPrefix, userID))
}

// makeGraphDocDateKey generates a composite key for the upload-time index.
// Format: prefix:userID: followed by the upload time and document ID.
// The timestamp is written in BigEndian order so lexicographic iteration
// yields upload-time ascending.
func makeGraphDocDateKey(userID string, uploadMicro int64, documentID string) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", graphDocDatePrefix, userID))
	buf := make([]byte, len(prefix)+8+len(documentID))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(uploadMicro))
	offset += 8
	copy(buf[offset:], documentID)
	return buf
}

// makeGraphDocDateScanPrefix generates the iteration prefix for a user's
// upload-time index.
func makeGraphDocDateScanPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", graphDocDatePrefix, userID))
}

// makeGraphFingerprintKey generates the per-user uniqueness key for a
// document fingerprint in the graph store.
func makeGraphFingerprintKey(userID string, fp core.Fingerprint) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", graphFingerprintPrefix, userID, fp))
}

// makeEntityKey generates a key for an entity node. Entity nodes are
// global: identity is the content-based ID of the (name, type) tuple,
// shared across users and documents.
func makeEntityKey(id core.ID) []byte {
	prefix := []byte(entityRecordPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeMentionKey generates a composite key for a mention edge.
// Format: prefix:documentID: followed by entity ID and rune position,
// both BigEndian. One key per (document, entity, position), so merging
// the same mention twice is idempotent.
func makeMentionKey(documentID string, entityID core.ID, position int) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", mentionEdgePrefix, documentID))
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(entityID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}

// makeMentionScanPrefix generates the iteration prefix for a document's
// mention edges.
func makeMentionScanPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", mentionEdgePrefix, documentID))
}

// mentionEntityID extracts the entity ID from a mention edge key produced
// by makeMentionKey.
func mentionEntityID(key, scanPrefix []byte) (core.ID, bool) {
	if len(key) < len(scanPrefix)+16 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(scanPrefix):])), true
}

// Package reindex rebuilds the stored embeddings of every indexed chunk
// with a new or updated embedding model.
//
// The reindexer walks every collection of a chunk repository, re-embeds
// chunk content in batches with retry and exponential backoff, and
// rewrites the vectors in place. Progress is reported to a writer,
// typically os.Stderr.
package reindex

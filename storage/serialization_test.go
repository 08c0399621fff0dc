package storage

import (
	"testing"
	"time"

	"github.com/docmesh/docmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	for _, id := range []core.ID{0, 42, 18446744073709551615, core.IDFromContent("(person,Sara)")} {
		data := MarshalID(id)
		require.NotEmpty(t, data)

		decoded, err := UnmarshalID(data)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}

	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalChunkRecord(t *testing.T) {
	record := &ChunkRecord{
		Content: "Sara bought tomatoes at the market. Prices 世界 🌍 rose.",
		Vector:  []float32{0.1, -0.2, 0.3, 0.4},
		Meta: core.ChunkMeta{
			DocumentID:       "doc-1",
			DocumentName:     "groceries.txt",
			UserID:           "user_1",
			ChunkIndex:       3,
			Fingerprint:      core.FingerprintOf("Sara bought tomatoes at the market."),
			Tags:             []string{"food", "notes"},
			Description:      "shopping notes",
			OriginalFilename: "groceries.txt",
			ContentType:      "text/plain",
		},
	}

	data := MarshalChunkRecord(record)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalChunkRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record.Content, decoded.Content)
	assert.Equal(t, record.Vector, decoded.Vector)
	assert.Equal(t, record.Meta, decoded.Meta)
}

func TestMarshalUnmarshalChunkRecord_EmptyOptionalFields(t *testing.T) {
	record := &ChunkRecord{
		Content: "bare chunk",
		Meta: core.ChunkMeta{
			DocumentID: "doc-2",
			UserID:     "user_1",
		},
	}

	decoded, err := UnmarshalChunkRecord(MarshalChunkRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record.Content, decoded.Content)
	assert.Empty(t, decoded.Vector)
	assert.Empty(t, decoded.Meta.Tags)
	assert.Equal(t, record.Meta.DocumentID, decoded.Meta.DocumentID)
}

func TestUnmarshalChunkRecord_Invalid(t *testing.T) {
	for _, data := range [][]byte{{}, {0xFF, 0xFF, 0xFF}} {
		_, err := UnmarshalChunkRecord(data)
		assert.Error(t, err)
	}
}

func TestMarshalUnmarshalGraphDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &core.GraphDocument{
		ID:          "a0b1c2d3",
		Name:        "report.md",
		Content:     "Acme Corp filed the report on 12 March 2024.",
		Fingerprint: core.FingerprintOf("Acme Corp filed the report on 12 March 2024."),
		Tags:        []string{"finance"},
		Description: "quarterly filing",
		UploadTime:  now,
	}

	decoded, err := UnmarshalGraphDocument(MarshalGraphDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc.ID, decoded.ID)
	assert.Equal(t, doc.Name, decoded.Name)
	assert.Equal(t, doc.Content, decoded.Content)
	assert.Equal(t, doc.Fingerprint, decoded.Fingerprint)
	assert.Equal(t, doc.Tags, decoded.Tags)
	assert.Equal(t, doc.Description, decoded.Description)
	assert.True(t, doc.UploadTime.Equal(decoded.UploadTime))
}

func TestMarshalUnmarshalEntityRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &EntityRecord{Name: "Lyon", Type: "place", CreatedAt: now}

	decoded, err := UnmarshalEntityRecord(MarshalEntityRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record.Name, decoded.Name)
	assert.Equal(t, record.Type, decoded.Type)
	assert.True(t, record.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, core.Entity{Name: "Lyon", Type: "place"}, decoded.Entity())
}

func TestMarshalUnmarshalMention(t *testing.T) {
	mention := &core.Mention{Context: "bought tomatoes at the market in Lyon today", Position: 37}

	decoded, err := UnmarshalMention(MarshalMention(mention))
	require.NoError(t, err)
	assert.Equal(t, mention.Context, decoded.Context)
	assert.Equal(t, mention.Position, decoded.Position)
}

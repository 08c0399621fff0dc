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


package storage

import (
	"time"

	"github.com/docmesh/docmesh/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// ChunkRecord is the persisted form of one indexed chunk: the chunk
// text, its embedding vector, and the full chunk metadata.
type ChunkRecord struct {
	Content string
	Vector  []float32
	Meta    core.ChunkMeta
}

// EntityRecord is the persisted form of an entity node. CreatedAt is
// set on first merge and never overwritten.
type EntityRecord struct {
	Name      string
	Type      string
	CreatedAt time.Time
}

// Entity returns the domain view of the record.
func (r *EntityRecord) Entity() core.Entity {
	return core.Entity{Name: r.Name, Type: r.Type}
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(v), err
}

// MarshalChunkRecord serializes a ChunkRecord to bytes.
func MarshalChunkRecord(record *ChunkRecord) []byte {
	size := ord.String.Size(record.Content) +
		sizeFloat32Slice(record.Vector) +
		sizeChunkMeta(record.Meta)
	buf := make([]byte, size)
	n := ord.String.Marshal(record.Content, buf)
	n += marshalFloat32Slice(record.Vector, buf[n:])
	marshalChunkMeta(record.Meta, buf[n:])
	return buf
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (*ChunkRecord, error) {
	record := &ChunkRecord{}
	content, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	record.Content = content
	vector, m, err := unmarshalFloat32Slice(data[n:])
	if err != nil {
		return nil, err
	}
	n += m
	record.Vector = vector
	meta, _, err := unmarshalChunkMeta(data[n:])
	if err != nil {
		return nil, err
	}
	record.Meta = meta
	return record, nil
}

// MarshalGraphDocument serializes a GraphDocument to bytes.
// Upload time is stored with microsecond precision.
func MarshalGraphDocument(doc *core.GraphDocument) []byte {
	size := ord.String.Size(doc.ID) +
		ord.String.Size(doc.Name) +
		ord.String.Size(doc.Content) +
		ord.String.Size(string(doc.Fingerprint)) +
		sizeStringSlice(doc.Tags) +
		ord.String.Size(doc.Description) +
		varint.Int64.Size(doc.UploadTime.UnixMicro())
	buf := make([]byte, size)
	n := ord.String.Marshal(doc.ID, buf)
	n += ord.String.Marshal(doc.Name, buf[n:])
	n += ord.String.Marshal(doc.Content, buf[n:])
	n += ord.String.Marshal(string(doc.Fingerprint), buf[n:])
	n += marshalStringSlice(doc.Tags, buf[n:])
	n += ord.String.Marshal(doc.Description, buf[n:])
	varint.Int64.Marshal(doc.UploadTime.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalGraphDocument deserializes a GraphDocument from bytes.
func UnmarshalGraphDocument(data []byte) (*core.GraphDocument, error) {
	doc := &core.GraphDocument{}
	var (
		n, m int
		err  error
	)
	if doc.ID, n, err = ord.String.Unmarshal(data); err != nil {
		return nil, err
	}
	if doc.Name, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, err
	}
	n += m
	if doc.Content, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, err
	}
	n += m
	var fp string
	if fp, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, err
	}
	n += m
	doc.Fingerprint = core.Fingerprint(fp)
	if doc.Tags, m, err = unmarshalStringSlice(data[n:]); err != nil {
		return nil, err
	}
	n += m
	if doc.Description, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, err
	}
	n += m
	micro, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	doc.UploadTime = time.UnixMicro(micro).UTC()
	return doc, nil
}

// MarshalEntityRecord serializes an EntityRecord to bytes.
func MarshalEntityRecord(record *EntityRecord) []byte {
	size := ord.String.Size(record.Name) +
		ord.String.Size(record.Type) +
		varint.Int64.Size(record.CreatedAt.UnixMicro())
	buf := make([]byte, size)
	n := ord.String.Marshal(record.Name, buf)
	n += ord.String.Marshal(record.Type, buf[n:])
	varint.Int64.Marshal(record.CreatedAt.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalEntityRecord deserializes an EntityRecord from bytes.
func UnmarshalEntityRecord(data []byte) (*EntityRecord, error) {
	record := &EntityRecord{}
	var (
		n, m int
		err  error
	)
	if record.Name, n, err = ord.String.Unmarshal(data); err != nil {
		return nil, err
	}
	if record.Type, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, err
	}
	n += m
	micro, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	record.CreatedAt = time.UnixMicro(micro).UTC()
	return record, nil
}

// MarshalMention serializes a Mention to bytes.
func MarshalMention(mention *core.Mention) []byte {
	size := ord.String.Size(mention.Context) +
		varint.PositiveInt.Size(mention.Position)
	buf := make([]byte, size)
	n := ord.String.Marshal(mention.Context, buf)
	varint.PositiveInt.Marshal(mention.Position, buf[n:])
	return buf
}

// UnmarshalMention deserializes a Mention from bytes.
func UnmarshalMention(data []byte) (*core.Mention, error) {
	mention := &core.Mention{}
	context, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	mention.Context = context
	position, _, err := varint.PositiveInt.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	mention.Position = position
	return mention, nil
}

// Slice encodings are length-prefixed with a varint count followed by
// the encoded elements.

func sizeStringSlice(v []string) int {
	size := varint.PositiveInt.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

func marshalStringSlice(v []string, buf []byte) int {
	n := varint.PositiveInt.Marshal(len(v), buf)
	for _, s := range v {
		n += ord.String.Marshal(s, buf[n:])
	}
	return n
}

func unmarshalStringSlice(data []byte) ([]string, int, error) {
	count, n, err := varint.PositiveInt.Unmarshal(data)
	if err != nil {
		return nil, n, err
	}
	var v []string
	for i := 0; i < count; i++ {
		s, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, n, err
		}
		n += m
		v = append(v, s)
	}
	return v, n, nil
}

func sizeFloat32Slice(v []float32) int {
	size := varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return size
}

func marshalFloat32Slice(v []float32, buf []byte) int {
	n := varint.PositiveInt.Marshal(len(v), buf)
	for _, f := range v {
		n += varint.Float32.Marshal(f, buf[n:])
	}
	return n
}

func unmarshalFloat32Slice(data []byte) ([]float32, int, error) {
	count, n, err := varint.PositiveInt.Unmarshal(data)
	if err != nil {
		return nil, n, err
	}
	var v []float32
	for i := 0; i < count; i++ {
		f, m, err := varint.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, n, err
		}
		n += m
		v = append(v, f)
	}
	return v, n, nil
}

func sizeChunkMeta(meta core.ChunkMeta) int {
	return ord.String.Size(meta.DocumentID) +
		ord.String.Size(meta.DocumentName) +
		ord.String.Size(meta.UserID) +
		varint.PositiveInt.Size(meta.ChunkIndex) +
		ord.String.Size(string(meta.Fingerprint)) +
		sizeStringSlice(meta.Tags) +
		ord.String.Size(meta.Description) +
		ord.String.Size(meta.OriginalFilename) +
		ord.String.Size(meta.ContentType)
}

func marshalChunkMeta(meta core.ChunkMeta, buf []byte) int {
	n := ord.String.Marshal(meta.DocumentID, buf)
	n += ord.String.Marshal(meta.DocumentName, buf[n:])
	n += ord.String.Marshal(meta.UserID, buf[n:])
	n += varint.PositiveInt.Marshal(meta.ChunkIndex, buf[n:])
	n += ord.String.Marshal(string(meta.Fingerprint), buf[n:])
	n += marshalStringSlice(meta.Tags, buf[n:])
	n += ord.String.Marshal(meta.Description, buf[n:])
	n += ord.String.Marshal(meta.OriginalFilename, buf[n:])
	n += ord.String.Marshal(meta.ContentType, buf[n:])
	return n
}

func unmarshalChunkMeta(data []byte) (core.ChunkMeta, int, error) {
	var (
		meta core.ChunkMeta
		n, m int
		err  error
	)
	if meta.DocumentID, n, err = ord.String.Unmarshal(data); err != nil {
		return meta, n, err
	}
	if meta.DocumentName, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return meta, n, err
	}
	n += m
	if meta.UserID, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return meta, n, err
	}
	n += m
	if meta.ChunkIndex, m, err = varint.PositiveInt.Unmarshal(data[n:]); err != nil {
		return meta, n, err
	}
	n += m
	var fp string
	if fp, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return meta, n, err
	}
	n += m
	meta.Fingerprint = core.Fingerprint(fp)
	if meta.Tags, m, err = unmarshalStringSlice(data[n:]); err != nil {
		return meta, n, err
	}
	n += m
	if meta.Description, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return meta, n, err
	}
	n += m
	if meta.OriginalFilename, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return meta, n, err
	}
	n += m
	if meta.ContentType, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return meta, n, err
	}
	n += m
	return meta, n, nil
}

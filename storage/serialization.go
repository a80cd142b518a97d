// Copyright 2025 Poiesic Systems
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
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docent/core"
)

// FormatVersion is written into every manifest.
const FormatVersion = 1

var (
	// EntryMUS encodes core.IndexEntry values.
	EntryMUS = entrySer{}

	// ManifestMUS encodes core.Manifest values.
	ManifestMUS = manifestSer{}
)

var (
	_ mus.Serializer[core.IndexEntry] = entrySer{}
	_ mus.Serializer[core.Manifest]   = manifestSer{}
)

// Timestamps are stored as Unix microseconds.
func timeSize(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func vectorSize(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrTruncatedData
	}
	v = make([]float32, length)
	for i := range v {
		var m int
		v[i], m, err = raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

// Metadata keys are written in sorted order so equal maps encode identically.
func metadataSize(md map[string]string) (size int) {
	size = varint.Int.Size(len(md))
	for k, v := range md {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return
}

func marshalMetadata(md map[string]string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(md), bs)
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(md[k], bs[n:])
	}
	return
}

func unmarshalMetadata(bs []byte) (md map[string]string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	md = make(map[string]string, length)
	for range length {
		var k, v string
		var m int
		if k, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n + m, err
		}
		n += m
		if v, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n + m, err
		}
		n += m
		md[k] = v
	}
	return md, n, nil
}

type entrySer struct{}

func (entrySer) Size(e core.IndexEntry) (size int) {
	size = varint.Uint64.Size(uint64(e.Id))
	size += varint.Uint64.Size(e.Seq)
	size += ord.String.Size(e.Source)
	size += varint.Int.Size(e.Page)
	size += varint.Int.Size(e.Position)
	size += ord.String.Size(e.Text)
	size += vectorSize(e.Vector)
	size += metadataSize(e.Metadata)
	return size + timeSize(e.InsertedAt)
}

func (entrySer) Marshal(e core.IndexEntry, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(e.Id), bs)
	n += varint.Uint64.Marshal(e.Seq, bs[n:])
	n += ord.String.Marshal(e.Source, bs[n:])
	n += varint.Int.Marshal(e.Page, bs[n:])
	n += varint.Int.Marshal(e.Position, bs[n:])
	n += ord.String.Marshal(e.Text, bs[n:])
	n += marshalVector(e.Vector, bs[n:])
	n += marshalMetadata(e.Metadata, bs[n:])
	return n + marshalTime(e.InsertedAt, bs[n:])
}

func (entrySer) Unmarshal(bs []byte) (e core.IndexEntry, n int, err error) {
	var (
		m  int
		id uint64
	)
	if id, m, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	e.Id = core.ID(id)
	n += m
	if e.Seq, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if e.Source, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if e.Page, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if e.Position, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if e.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if e.Vector, m, err = unmarshalVector(bs[n:]); err != nil {
		return
	}
	n += m
	if e.Metadata, m, err = unmarshalMetadata(bs[n:]); err != nil {
		return
	}
	n += m
	if e.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

func (s entrySer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type manifestSer struct{}

func (manifestSer) Size(m core.Manifest) (size int) {
	size = varint.Uint64.Size(m.Generation)
	size += varint.Uint64.Size(m.Count)
	size += ord.String.Size(m.EmbeddingModel)
	size += varint.Int.Size(m.Dimension)
	size += varint.Int.Size(m.FormatVersion)
	return size + timeSize(m.UpdatedAt)
}

func (manifestSer) Marshal(m core.Manifest, bs []byte) (n int) {
	n = varint.Uint64.Marshal(m.Generation, bs)
	n += varint.Uint64.Marshal(m.Count, bs[n:])
	n += ord.String.Marshal(m.EmbeddingModel, bs[n:])
	n += varint.Int.Marshal(m.Dimension, bs[n:])
	n += varint.Int.Marshal(m.FormatVersion, bs[n:])
	return n + marshalTime(m.UpdatedAt, bs[n:])
}

func (manifestSer) Unmarshal(bs []byte) (m core.Manifest, n int, err error) {
	var k int
	if m.Generation, k, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	n += k
	if m.Count, k, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if m.EmbeddingModel, k, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if m.Dimension, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if m.FormatVersion, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if m.UpdatedAt, k, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += k
	return
}

func (s manifestSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalEntry serializes an IndexEntry to bytes.
func MarshalEntry(entry *core.IndexEntry) []byte {
	buf := make([]byte, EntryMUS.Size(*entry))
	EntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalEntry deserializes an IndexEntry from bytes.
func UnmarshalEntry(data []byte) (*core.IndexEntry, error) {
	entry, n, err := EntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &entry, nil
}

// MarshalManifest serializes a Manifest to bytes.
func MarshalManifest(manifest *core.Manifest) []byte {
	buf := make([]byte, ManifestMUS.Size(*manifest))
	ManifestMUS.Marshal(*manifest, buf)
	return buf
}

// UnmarshalManifest deserializes a Manifest from bytes and rejects
// manifests written by a newer format.
func UnmarshalManifest(data []byte) (*core.Manifest, error) {
	manifest, _, err := ManifestMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if manifest.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, manifest.FormatVersion)
	}
	return &manifest, nil
}

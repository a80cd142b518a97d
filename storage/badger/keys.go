package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	manifestKey = "idxman"
	entryPrefix = "idxent"
)

// makeEntryKey generates a composite key for an index entry.
// Format: prefix:generation:seq
func makeEntryKey(generation, seq uint64) []byte {
	buf := makeGenerationPrefix(generation)
	return binary.BigEndian.AppendUint64(buf, seq)
}

// makeGenerationPrefix generates the key prefix shared by all entries of a
// snapshot generation. BigEndian keeps iteration in Seq order.
// Format: prefix:generation
func makeGenerationPrefix(generation uint64) []byte {
	prefix := entryPrefix + ":"
	buf := make([]byte, len(prefix), len(prefix)+16)
	copy(buf, prefix)
	return binary.BigEndian.AppendUint64(buf, generation)
}

// seqFromEntryKey extracts the Seq part of an entry key.
func seqFromEntryKey(key []byte) (uint64, bool) {
	if len(key) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(key)-8:]), true
}

package dict

import "github.com/cespare/xxhash/v2"

// StringHash is the default hash function for string-keyed dicts: xxhash is
// the hashing primitive the rest of the corpus reaches for (cc-backend's
// Prometheus stack and sql-tap's pgproto3 pipeline both pull it in as a
// fast non-cryptographic hash), and it gives Dict a natural default the way
// a dict with "a key that has a natural hash" is supposed to get one.
func StringHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// NewStringDict creates a Dict[string, V] using StringHash.
func NewStringDict[V any]() *Dict[string, V] {
	return New[string, V](StringHash)
}

// Package hashindex provides an in-memory hash index over a sequence of
// encoded keys. It returns candidate positions for a probe key; callers
// confirm each candidate with their own equality since distinct keys may
// share a bucket.
package hashindex

// HashIndex maps key hashes to the positions that produced them.
type HashIndex struct {
	buckets map[uint64][]int
	tuples  int
}

// KeyFunc returns the encoded key for position i, or false when the
// position has no key and must not be indexed.
type KeyFunc func(i int) ([]byte, bool)

// Build indexes positions 0..n-1. Positions within a bucket stay in
// ascending order.
func Build(n int, key KeyFunc) *HashIndex {
	hi := &HashIndex{buckets: make(map[uint64][]int, n)}
	for i := 0; i < n; i++ {
		k, ok := key(i)
		if !ok {
			continue
		}
		h := hashKey(k)
		hi.buckets[h] = append(hi.buckets[h], i)
		hi.tuples++
	}
	return hi
}

// Candidates returns the positions whose key hashed like key, in ascending
// order. The slice is shared with the index and must not be modified.
func (hi *HashIndex) Candidates(key []byte) []int {
	return hi.buckets[hashKey(key)]
}

// Len returns the number of indexed positions.
func (hi *HashIndex) Len() int {
	return hi.tuples
}

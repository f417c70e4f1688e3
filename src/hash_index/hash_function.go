package hashindex

import "github.com/zeebo/xxh3"

// hashKey computes the hash value of an encoded key
func hashKey(key []byte) uint64 {
	return xxh3.Hash(key)
}

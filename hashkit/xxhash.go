package hashkit

import "github.com/cespare/xxhash/v2"

func Xxhash(key []byte) uint64 {
	return xxhash.Sum64(key)
}

package hashkit

import "hash/fnv"

func Fnv1a64(key []byte) uint64 {
	h := fnv.New64a()
	h.Write(key)
	return h.Sum64()
}

package hashkit

import (
	"crypto/md5"
	"encoding/binary"
)

func Md5(key []byte) uint64 {
	digest := md5.Sum(key)
	return binary.LittleEndian.Uint64(digest[:8])
}

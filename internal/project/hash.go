package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest - фиксированный 256 битный хеш
type Digest [32]byte

// HashBytes returns the SHA-256 of data.
func HashBytes(data []byte) Digest {
	return sha256.Sum256(data)
}

// Combine строит составной хеш: H( first || rest1 || rest2 ... ).
// Порядок аргументов значим.
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

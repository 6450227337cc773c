package util

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Fingerprint identifies a clipboard snapshot by its exact (html, plain)
// pair. The length prefix keeps ("ab", "") and ("a", "b") distinct.
func Fingerprint(html, plain string) string {
	hasher := sha256.New()
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(html)))
	hasher.Write(prefix[:])
	hasher.Write([]byte(html))
	hasher.Write([]byte(plain))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

package ir

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint is a BLAKE3 digest of a graph's canonical text form.
type Fingerprint [32]byte

// String returns the digest in hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Fingerprint hashes the serialized graph. Two graphs with the same operators,
// values, attributes and declaration order have the same fingerprint.
func (g *Graph) Fingerprint() Fingerprint {
	h := blake3.New()
	_ = Write(h, g)
	var f Fingerprint
	copy(f[:], h.Sum(nil))
	return f
}

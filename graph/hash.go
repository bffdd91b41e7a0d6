package graph

import (
	"github.com/minio/highwayhash"
)

// internKey is the fixed 256-bit key used to hash position keys and symbol
// names into the bucket index of the node intern table. It is not a secret;
// it only needs to be stable across a process so that identical position
// keys always land in the same bucket.
var internKey = []byte("pgraph-node-intern-key-0123456789ABCDEF")[:32]

// hashString returns a fast 64-bit digest of s, used to bucket entries of
// the node intern table before falling back to an exact string comparison.
func hashString(s string) uint64 {
	h, err := highwayhash.New64(internKey)
	if err != nil {
		// internKey is a fixed 32-byte slice; New64 only errors on bad key length.
		panic(err)
	}
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

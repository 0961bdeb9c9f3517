// Package dagindexapi holds the data types and external-collaborator
// interfaces shared by the DAG index's sub-packages (kvstore, backend,
// pagecache) and its public dagindex package. Keeping them in a leaf
// package avoids import cycles between those sub-packages.
package dagindexapi

import "encoding/hex"

// HashSize is the width, in bytes, of a BlockHash.
const HashSize = 32

// BlockHash is an opaque fixed-width block identifier. It is persisted as
// raw bytes and exchanged in memory as its lowercase hex string.
type BlockHash [HashSize]byte

// String returns the lowercase hex encoding of the hash.
func (h BlockHash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromString parses a lowercase (or uppercase) hex string into a
// BlockHash.
func HashFromString(s string) (BlockHash, error) {
	var h BlockHash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, errInputf("hash %q is not valid hex: %v", s, err)
	}
	if len(decoded) != HashSize {
		return h, errInputf("hash %q has length %d, expected %d", s, len(decoded), HashSize)
	}
	copy(h[:], decoded)
	return h, nil
}

// BlockHeight is a non-negative height in the DAG. Genesis is height 0.
type BlockHeight uint64

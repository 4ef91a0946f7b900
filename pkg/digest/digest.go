// Package digest computes the content digests used for revision signing
// hashes and PDF checksums. Both use SHA2-256; the two are never compared to
// each other.
package digest

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Size is the digest length in bytes.
const Size = 32

var ErrInvalidHash = errors.New("digest: invalid hash")

// Hash is a SHA2-256 digest.
type Hash [Size]byte

// Sum returns the digest of data.
func Sum(data []byte) Hash {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only fails for unknown codes or bad lengths.
		panic(fmt.Sprintf("digest: sha2-256 multihash: %v", err))
	}

	decoded, err := multihash.Decode(mh)
	if err != nil {
		panic(fmt.Sprintf("digest: decode multihash: %v", err))
	}

	var h Hash
	copy(h[:], decoded.Digest)
	return h
}

// Parse reads the lowercase hex form produced by Hex.
func Parse(s string) (Hash, error) {
	var h Hash
	if len(s) != Size*2 {
		return h, fmt.Errorf("%w: want %d hex characters, got %d", ErrInvalidHash, Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	copy(h[:], b)
	return h, nil
}

// Hex is the wire form stored in signing_hash and pdf_checksum.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Equal compares in constant time.
func (h Hash) Equal(other Hash) bool {
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}

// Multihash returns the self-describing multihash encoding of h.
func (h Hash) Multihash() multihash.Multihash {
	mh, err := multihash.Encode(h[:], multihash.SHA2_256)
	if err != nil {
		panic(fmt.Sprintf("digest: encode multihash: %v", err))
	}
	return mh
}

// CID returns the CIDv1 (raw codec) addressing the bytes h was computed over.
func (h Hash) CID() string {
	return cid.NewCidV1(cid.Raw, h.Multihash()).String()
}

// Matches reports whether data hashes to the hex digest want.
func Matches(data []byte, want string) bool {
	expected, err := Parse(want)
	if err != nil {
		return false
	}
	return Sum(data).Equal(expected)
}

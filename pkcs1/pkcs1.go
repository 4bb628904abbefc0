// Package pkcs1 builds and recognizes the deterministic PKCS#1 v1.5
// encoded message used by the signer and merger. It is adapted from
// the hashPrefixes/signPKCS1v15 approach in crypto/rsa (and the
// teacher's copy of it), narrowed to the single hash this CLI ever
// uses: SHA-256 at a fixed 2048-bit (256-byte) block length.
package pkcs1

import (
	"crypto/sha256"

	"github.com/pkg/errors"
)

// BlockLength is ⌈bits/8⌉ for the fixed 2048-bit modulus this CLI
// always generates.
const BlockLength = 256

// sha256DigestInfoPrefix is the DER encoding of
//
//	DigestInfo ::= SEQUENCE { AlgorithmIdentifier{SHA-256}, OCTET STRING }
//
// up to but not including the 32-byte digest itself (RFC 3447 §9.2).
var sha256DigestInfoPrefix = []byte{
	0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
}

// tLen is the length of the full DER DigestInfo T = prefix || digest.
const tLen = len(sha256DigestInfoPrefix) + sha256.Size // 19 + 32 = 51

// EncodeDigestInfo hashes message with SHA-256 and returns the
// BlockLength-byte PKCS#1 v1.5 encoded message
//
//	EM = 0x00 || 0x01 || PS || 0x00 || T
//
// where PS is a run of 0xFF padding bytes and T is the DER DigestInfo
// for the digest. This is deterministic: the same message always
// produces the same EM, which is what lets independent parties raise
// EM to their own exponent share and have the products recombine.
func EncodeDigestInfo(message []byte) ([]byte, error) {
	if BlockLength < tLen+11 {
		return nil, errors.New("pkcs1: intended encoded message length too short")
	}

	digest := sha256.Sum256(message)

	em := make([]byte, BlockLength)
	em[1] = 0x01
	psEnd := BlockLength - tLen - 1
	for i := 2; i < psEnd; i++ {
		em[i] = 0xff
	}
	copy(em[BlockLength-tLen:BlockLength-sha256.Size], sha256DigestInfoPrefix)
	copy(em[BlockLength-sha256.Size:], digest[:])

	return em, nil
}

// HasValidPrefix reports whether em begins with the four bytes every
// correctly-formed PKCS#1 v1.5 encoded message starts with:
// 00 01 FF FF. The merger uses this as a cheap, non-cryptographic
// heuristic to pick between two candidate threshold reconstructions:
// an incorrect reconstruction of d produces a uniformly random em
// under the public exponent, which matches this four-byte prefix with
// probability 2^-32.
func HasValidPrefix(em []byte) bool {
	return len(em) >= 4 &&
		em[0] == 0x00 &&
		em[1] == 0x01 &&
		em[2] == 0xff &&
		em[3] == 0xff
}

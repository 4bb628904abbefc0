// Package merge combines the partial signatures produced by
// partialsign into the single standard PKCS#1 v1.5 signature: a
// running product over both unanimous singles and threshold pairs,
// disambiguated at the end by a public-exponent probe for the
// PKCS#1 v1.5 leading bytes. It generalizes the broker-combination
// step of convert-each-partial-to-an-integer-and-multiply-mod-n to a
// second running product for the threshold case.
package merge

import (
	"crypto/rsa"
	"math/big"

	"github.com/pkg/errors"

	"github.com/osresearch/cosign/bigmath"
	"github.com/osresearch/cosign/pkcs1"
)

// Merge combines the raw partial-signature byte strings in sigs --
// any mix of unanimous singles and at most one threshold pair, in any
// order -- against pub, and returns the BlockLength-byte standard RSA
// signature.
func Merge(pub *rsa.PublicKey, sigs [][]byte) ([]byte, error) {
	sig0 := new(big.Int).Set(bigmath.One)
	sig1 := new(big.Int).Set(bigmath.One)
	sawThresholdPair := false

	for i, raw := range sigs {
		switch len(raw) {
		case pkcs1.BlockLength:
			s := new(big.Int).SetBytes(raw)
			sig0.Mul(sig0, s)
			sig0.Mod(sig0, pub.N)

		case 2 * pkcs1.BlockLength:
			sa := new(big.Int).SetBytes(raw[:pkcs1.BlockLength])
			sb := new(big.Int).SetBytes(raw[pkcs1.BlockLength:])

			// Both branches fold into the running products by
			// multiplication rather than overwriting them, so that a
			// single processed before the first threshold-shard file
			// isn't discarded: sig0/sig1 start at 1, so "multiply in
			// (sa, sb)" on the first threshold file is a no-op other
			// than seeding the products when nothing has touched them
			// yet, and correctly folds in any already-applied singles
			// otherwise.
			if !sawThresholdPair {
				sig0.Mul(sig0, sa)
				sig0.Mod(sig0, pub.N)
				sig1.Mul(sig1, sb)
				sig1.Mod(sig1, pub.N)
				sawThresholdPair = true
			} else {
				// cross-multiply: enumerate both candidate reconstructions
				// of d in parallel, since only one of the two per-pair
				// additive sums actually equals d.
				sig0.Mul(sig0, sb)
				sig0.Mod(sig0, pub.N)
				sig1.Mul(sig1, sa)
				sig1.Mod(sig1, pub.N)
			}

		default:
			return nil, errors.Errorf("merge: length mismatch in signature %d: got %d bytes, want %d or %d", i, len(raw), pkcs1.BlockLength, 2*pkcs1.BlockLength)
		}
	}

	bigE := big.NewInt(int64(pub.E))
	msg0 := bigmath.FixedBytes(bigmath.ModPow(sig0, bigE, pub.N), pkcs1.BlockLength)
	msg1 := bigmath.FixedBytes(bigmath.ModPow(sig1, bigE, pub.N), pkcs1.BlockLength)

	switch {
	case pkcs1.HasValidPrefix(msg0):
		return bigmath.FixedBytes(sig0, pkcs1.BlockLength), nil
	case pkcs1.HasValidPrefix(msg1):
		return bigmath.FixedBytes(sig1, pkcs1.BlockLength), nil
	default:
		return nil, errors.New("merge: invalid or missing partial signatures")
	}
}

// Package bigmath adapts math/big and a constant-time modular
// exponentiation backend to the fixed-size integer operations the
// cooperative-signing core needs: byte<->integer conversion at a
// known block length, modular exponentiation, and CSPRNG draws below
// a power of two.
//
// informed by: https://eprint.iacr.org/2001/060.pdf
package bigmath

import (
	"crypto/rand"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// ModPow computes base^exp mod mod using a constant-time Montgomery
// ladder (via saferith) rather than math/big's Exp, since the exponent
// here is always secret share material. A negative exp raises the
// inverse of base modulo mod; it panics if base has no such inverse.
func ModPow(base, exp, mod *big.Int) *big.Int {
	if mod.Sign() <= 0 {
		panic("bigmath: modulus must be positive")
	}

	m := saferith.ModulusFromBytes(mod.Bytes())

	// exp may be negative (the unanimous dealer's final share is an
	// unclamped subtraction), and saferith's Nat has no native notion of
	// sign, so base^-k is computed as (base^-1)^k mod mod.
	if exp.Sign() < 0 {
		inv := new(big.Int).ModInverse(base, mod)
		if inv == nil {
			panic("bigmath: base is not invertible modulo mod")
		}
		base = inv
		exp = new(big.Int).Neg(exp)
	}

	b := new(saferith.Nat).SetBytes(base.Bytes())
	e := new(saferith.Nat).SetBytes(exp.Bytes())

	result := new(saferith.Nat).Exp(b, e, m)
	return new(big.Int).SetBytes(result.Bytes())
}

// RandBelow returns a uniformly random integer in [0, 2^(8*nBytes)),
// drawn from a CSPRNG, represented as the big-endian integer value of
// nBytes random bytes.
func RandBelow(nBytes int) (*big.Int, error) {
	if nBytes <= 0 {
		return nil, errors.Errorf("bigmath: cannot draw a random integer of %d bytes", nBytes)
	}

	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Wrap(err, "bigmath: failed to read random bytes")
	}

	return new(big.Int).SetBytes(b), nil
}

// FixedBytes renders x as a big-endian byte string of exactly length
// bytes, left-padded with zeroes. It panics if x would not fit --
// callers are expected to have already bounded x to the modulus.
func FixedBytes(x *big.Int, length int) []byte {
	return x.FillBytes(make([]byte, length))
}

// Zero and One are shared immutable constants for comparisons.
var (
	Zero = bigZero
	One  = bigOne
)

// Zeroize overwrites x's backing word storage with zeroes before
// resetting it to 0. big.Int doesn't offer a dedicated wipe primitive,
// but Bits() exposes the absolute value's underlying []Word slice, and
// clearing it in place (rather than just reassigning a fresh zero
// value) means the secret's old magnitude doesn't linger in that
// backing array for the life of the process.
func Zeroize(x *big.Int) {
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}

// Package shard implements two dealers: the N-of-N unanimous dealer,
// which splits an RSA private exponent into N shards whose integer
// sum recovers it exactly, and the 2-of-3 threshold dealer/re-splitter,
// which hands out three overlapping additive-halves shards keyed by a
// sentinel exponent.
//
// Both generalize the additive-split logic of splitAdditive/shardSum/
// validRandomNumber: the unanimous scheme sums over the integers
// rather than reducing mod phi(n), and the threshold scheme is a
// three-party overlapping structure with no N-way analogue.
package shard

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"github.com/pkg/errors"

	"github.com/osresearch/cosign/bigmath"
	"github.com/osresearch/cosign/keycodec"
	"github.com/osresearch/cosign/pkcs1"
)

// MaxUnanimousShards is the largest N accepted by the unanimous
// dealer.
const MaxUnanimousShards = 16

// drawWidth is the byte width ("block_length - 2") that every random
// additive draw (unanimous non-final shards, threshold r0/r1/r2) is
// sampled from: 2^(8*(block_length-2)), so that sums of up to 15 draws
// stay far below a typical ~2047-bit d. d is not bounded from below,
// so the final unanimous share D minus those draws can still come out
// negative; bigmath.ModPow accepts a negative exponent.
const drawWidth = pkcs1.BlockLength - 2

// GeneratedKey is the full RSA key pair produced by a dealer. D is
// held only on the dealer's stack and is never itself persisted --
// only the derived shards are written to disk.
type GeneratedKey struct {
	N *big.Int
	E int
	D *big.Int

	full *rsa.PrivateKey // kept only long enough to issue the self-signed certificate
}

// PublicKey returns the ordinary RSA public key (n, e) for this
// generated key, for callers that want to merge/verify without
// round-tripping through a shard or a PEM file.
func (g *GeneratedKey) PublicKey() *rsa.PublicKey {
	return &rsa.PublicKey{N: g.N, E: g.E}
}

// Certificate issues the self-signed certificate for this key using
// the complete private exponent, the one post-generation use of the
// full key before it is discarded.
func (g *GeneratedKey) Certificate() (string, error) {
	return keycodec.EncodeSelfSignedCertificatePEM(g.full)
}

// PublicKeyPEM renders this key's SubjectPublicKeyInfo PEM block.
func (g *GeneratedKey) PublicKeyPEM() (string, error) {
	return keycodec.EncodePublicKeyPEM(&g.full.PublicKey)
}

// Wipe best-effort zeroizes the held private exponent. Callers should
// call this once they've emitted every shard/certificate they need.
func (g *GeneratedKey) Wipe() {
	bigmath.Zeroize(g.D)
}

// GenerateKey produces a fresh 2048-bit RSA key with the fixed public
// exponent e=65537, the only way full d ever comes into existence.
func GenerateKey() (*GeneratedKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, errors.Wrap(err, "shard: failed to generate RSA key")
	}

	return &GeneratedKey{
		N:    priv.N,
		E:    priv.E,
		D:    priv.D,
		full: priv,
	}, nil
}

// DealUnanimous splits key.D into n additive shards whose integer sum
// equals D exactly: the first n-1 shards are drawn uniformly from
// [0, 2^(8*drawWidth)) and the last absorbs whatever remains, with no
// reduction modulo lambda(n).
func DealUnanimous(key *GeneratedKey, n int) ([]*keycodec.Shard, error) {
	if n < 1 || n > MaxUnanimousShards {
		return nil, errors.Errorf("shard: invalid share count: n=%d, must have 1 <= n <= %d", n, MaxUnanimousShards)
	}

	remaining := new(big.Int).Set(key.D)
	shards := make([]*keycodec.Shard, n)

	for i := 0; i < n; i++ {
		var di *big.Int
		if i == n-1 {
			di = remaining
		} else {
			draw, err := bigmath.RandBelow(drawWidth)
			if err != nil {
				return nil, errors.Wrapf(err, "shard: failed to draw unanimous share %d", i)
			}
			di = draw
			remaining = new(big.Int).Sub(remaining, draw)
		}

		shards[i] = &keycodec.Shard{
			N: key.N,
			E: key.E,
			D: di,
			P: bigmath.One,
			Q: bigmath.One,
		}
	}

	return shards, nil
}

// DealThreshold produces the three fresh 2-of-3 threshold shards for
// key, with overlapping additive halves:
//
//	shard 0: (p, q) = (r0,    D - r1)
//	shard 1: (p, q) = (r1,    D - r2)
//	shard 2: (p, q) = (r2,    D - r0)
//
// so that any two (cyclically adjacent or not) shards' q_i and p_j
// fields sum to D for exactly one of the two (i,j) orderings.
func DealThreshold(key *GeneratedKey) ([]*keycodec.Shard, error) {
	r := make([]*big.Int, 3)
	for i := range r {
		draw, err := bigmath.RandBelow(drawWidth)
		if err != nil {
			return nil, errors.Wrapf(err, "shard: failed to draw threshold half %d", i)
		}
		r[i] = draw
	}

	q := func(next int) *big.Int {
		return new(big.Int).Sub(key.D, r[next])
	}

	shards := []*keycodec.Shard{
		{N: key.N, E: key.E, D: new(big.Int).Set(keycodec.MagicExponent), P: r[0], Q: q(1)},
		{N: key.N, E: key.E, D: new(big.Int).Set(keycodec.MagicExponent), P: r[1], Q: q(2)},
		{N: key.N, E: key.E, D: new(big.Int).Set(keycodec.MagicExponent), P: r[2], Q: q(0)},
	}

	return shards, nil
}

// Resplit reconstructs d from two existing threshold shards and
// returns it as a GeneratedKey; it does not deal shards itself, so a
// fresh triple comes from passing the result to DealThreshold. The
// reconstructed d is never persisted, and the returned key's Wipe
// should be called once the caller is done issuing
// shards/certificates from it.
func Resplit(a, b *keycodec.Shard) (*GeneratedKey, error) {
	if !a.IsThreshold() || !b.IsThreshold() {
		return nil, errors.New("shard: not a threshold key")
	}
	if a.N.Cmp(b.N) != 0 {
		return nil, errors.New("shard: different public key modulii")
	}

	da := new(big.Int).Add(a.P, b.Q)
	db := new(big.Int).Add(a.Q, b.P)

	n := a.N
	e := a.E

	// probe: (MAGIC^e)^d ≡ MAGIC (mod n) for the correct d, since MAGIC^e
	// raised to the true private exponent just decrypts back to MAGIC.
	bigE := big.NewInt(int64(e))
	c := bigmath.ModPow(keycodec.MagicExponent, bigE, n)

	ma := bigmath.ModPow(c, da, n)
	mb := bigmath.ModPow(c, db, n)

	var d *big.Int
	switch {
	case ma.Cmp(keycodec.MagicExponent) == 0:
		d = da
	case mb.Cmp(keycodec.MagicExponent) == 0:
		d = db
	default:
		return nil, errors.New("shard: don't make a real private key")
	}

	full := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: e},
		D:         d,
	}

	return &GeneratedKey{N: n, E: e, D: d, full: full}, nil
}

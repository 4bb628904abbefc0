// Package partialsign implements the per-party signing step: encode a
// message with the PKCS#1 v1.5 DigestInfo padding, then raise it to
// the shard's private exponent share(s) modulo n.
package partialsign

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/osresearch/cosign/bigmath"
	"github.com/osresearch/cosign/keycodec"
	"github.com/osresearch/cosign/pkcs1"
)

// Sign produces the raw partial-signature bytes for message under
// shard. For a unanimous shard this is a single BlockLength-byte
// block m^d mod n; for a threshold shard (D == MAGIC) it is the
// 2*BlockLength-byte concatenation of m^p mod n and m^q mod n.
func Sign(shard *keycodec.Shard, message []byte) ([]byte, error) {
	em, err := pkcs1.EncodeDigestInfo(message)
	if err != nil {
		return nil, errors.Wrap(err, "partialsign: failed to encode message")
	}

	m := new(big.Int).SetBytes(em)
	if m.Cmp(shard.N) >= 0 {
		return nil, errors.New("partialsign: encoded message is not smaller than the modulus")
	}

	if !shard.IsThreshold() {
		c := bigmath.ModPow(m, shard.D, shard.N)
		return bigmath.FixedBytes(c, pkcs1.BlockLength), nil
	}

	sig0 := bigmath.ModPow(m, shard.P, shard.N)
	sig1 := bigmath.ModPow(m, shard.Q, shard.N)

	out := make([]byte, 0, 2*pkcs1.BlockLength)
	out = append(out, bigmath.FixedBytes(sig0, pkcs1.BlockLength)...)
	out = append(out, bigmath.FixedBytes(sig1, pkcs1.BlockLength)...)
	return out, nil
}

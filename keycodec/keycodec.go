// Package keycodec reads and writes the PEM-encoded key material this
// CLI produces and consumes: SubjectPublicKeyInfo public keys,
// PKCS#8-wrapped RSAPrivateKey shards whose d/p/q/CRT fields
// intentionally do not satisfy the usual RSA consistency relations,
// and self-signed X.509 certificates for the public key.
//
// Standard libraries validate CRT consistency when constructing a
// high-level *rsa.PrivateKey, so the private-key write path here never
// goes through crypto/rsa.PrivateKey at all: it marshals the
// RSAPrivateKey ASN.1 SEQUENCE directly, by hand.
package keycodec

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MagicExponent is the sentinel placed in a threshold shard's D field
// to mark it as threshold rather than unanimous.
var MagicExponent = big.NewInt(0x2323232323232323)

// rsaPrivateKeyASN1 is the PKCS#1 RSAPrivateKey SEQUENCE (RFC 8017
// Appendix A.1.2), built and parsed directly so that non-CRT-valid
// sentinel shards round-trip exactly as given.
type rsaPrivateKeyASN1 struct {
	Version int
	N       *big.Int
	E       int
	D       *big.Int
	P       *big.Int
	Q       *big.Int
	Dp      *big.Int
	Dq      *big.Int
	Qinv    *big.Int
}

// pkcs8AlgorithmIdentifier is AlgorithmIdentifier{rsaEncryption, NULL}.
type pkcs8AlgorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue
}

// pkcs8PrivateKeyInfo is the PKCS#8 PrivateKeyInfo SEQUENCE wrapping
// the DER-encoded RSAPrivateKey as an OCTET STRING.
type pkcs8PrivateKeyInfo struct {
	Version    int
	Algorithm  pkcs8AlgorithmIdentifier
	PrivateKey []byte
}

var (
	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	asn1NULL         = asn1.RawValue{Tag: asn1.TagNull}
)

// Shard is the on-disk representation of one private-key shard: the
// public modulus/exponent plus the sentinel or share-valued private
// fields. P, Q, Dp, Dq, Qinv are never the "real" CRT parameters of n
// -- for unanimous shards they are 1/1/0/0/0, for threshold shards P
// and Q carry additive halves of d and Dp/Dq/Qinv are always 0.
type Shard struct {
	N *big.Int
	E int
	D *big.Int
	P *big.Int
	Q *big.Int
}

// IsThreshold reports whether this shard carries the threshold
// sentinel in its D field.
func (s *Shard) IsThreshold() bool {
	return s.D.Cmp(MagicExponent) == 0
}

// PublicKey returns the ordinary RSA public key embedded in the shard.
// Every shard carries (n, e), so the public key is reconstructable
// from any single shard.
func (s *Shard) PublicKey() *rsa.PublicKey {
	return &rsa.PublicKey{N: s.N, E: s.E}
}

// GoString and String intentionally omit D, P, and Q so that shards
// never land in a log line or panic trace by accident.
func (s *Shard) String() string   { return s.GoString() }
func (s *Shard) GoString() string {
	return "keycodec.Shard{<redacted private fields>}"
}

// EncodeShardPEM renders a shard as a PEM "PRIVATE KEY" block wrapping
// a PKCS#8 PrivateKeyInfo around a hand-built RSAPrivateKey SEQUENCE.
func EncodeShardPEM(s *Shard) (string, error) {
	inner := rsaPrivateKeyASN1{
		Version: 0,
		N:       s.N,
		E:       s.E,
		D:       s.D,
		P:       s.P,
		Q:       s.Q,
		Dp:      big.NewInt(0),
		Dq:      big.NewInt(0),
		Qinv:    big.NewInt(0),
	}

	innerDER, err := asn1.Marshal(inner)
	if err != nil {
		return "", errors.Wrap(err, "keycodec: failed to DER-encode RSAPrivateKey")
	}

	outer := pkcs8PrivateKeyInfo{
		Version: 0,
		Algorithm: pkcs8AlgorithmIdentifier{
			Algorithm:  oidRSAEncryption,
			Parameters: asn1NULL,
		},
		PrivateKey: innerDER,
	}

	outerDER, err := asn1.Marshal(outer)
	if err != nil {
		return "", errors.Wrap(err, "keycodec: failed to DER-encode PrivateKeyInfo")
	}

	buf := new(bytes.Buffer)
	if err := pem.Encode(buf, &pem.Block{Type: "PRIVATE KEY", Bytes: outerDER}); err != nil {
		return "", errors.Wrap(err, "keycodec: failed to PEM-encode private key shard")
	}

	return buf.String(), nil
}

// DecodeShardPEM parses a PEM "PRIVATE KEY" block written by
// EncodeShardPEM back into a Shard, preserving sentinel values
// faithfully.
func DecodeShardPEM(encoded []byte) (*Shard, error) {
	block, _ := pem.Decode(encoded)
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, errors.New("keycodec: failed to decode PEM private key block")
	}

	var outer pkcs8PrivateKeyInfo
	if _, err := asn1.Unmarshal(block.Bytes, &outer); err != nil {
		return nil, errors.Wrap(err, "keycodec: failed to unmarshal PrivateKeyInfo")
	}

	var inner rsaPrivateKeyASN1
	if _, err := asn1.Unmarshal(outer.PrivateKey, &inner); err != nil {
		return nil, errors.Wrap(err, "keycodec: failed to unmarshal RSAPrivateKey")
	}

	return &Shard{
		N: inner.N,
		E: inner.E,
		D: inner.D,
		P: inner.P,
		Q: inner.Q,
	}, nil
}

// EncodePublicKeyPEM renders an ordinary SubjectPublicKeyInfo PEM
// block for (n, e). Unlike the private path, this goes straight
// through crypto/x509: a bare public key has no CRT fields to
// invalidate.
func EncodePublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", errors.Wrap(err, "keycodec: failed to marshal public key")
	}

	buf := new(bytes.Buffer)
	if err := pem.Encode(buf, &pem.Block{Type: "PUBLIC KEY", Bytes: der}); err != nil {
		return "", errors.Wrap(err, "keycodec: failed to PEM-encode public key")
	}
	return buf.String(), nil
}

// DecodePublicKeyPEM parses a SubjectPublicKeyInfo PEM block.
func DecodePublicKeyPEM(encoded []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(encoded)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("keycodec: failed to decode PEM public key block")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "keycodec: failed to parse public key")
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("keycodec: public key is not RSA")
	}
	return rsaPub, nil
}

// certificateCN is the fixed subject/issuer common name for the
// self-signed certificate issued at key-generation time.
const certificateCN = "cosign.dev"

// EncodeSelfSignedCertificatePEM issues a self-signed X.509
// certificate for full's public key, signed with full's private key
// -- the only signature ever made with the complete, unsplit private
// exponent, issued before that exponent is wiped.
func EncodeSelfSignedCertificatePEM(full *rsa.PrivateKey) (string, error) {
	serial, err := randomSerial()
	if err != nil {
		return "", err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:       serial,
		Subject:            pkix.Name{CommonName: certificateCN},
		Issuer:             pkix.Name{CommonName: certificateCN},
		NotBefore:          now,
		NotAfter:           now.AddDate(1, 0, 0),
		SignatureAlgorithm: x509.SHA256WithRSA,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &full.PublicKey, full)
	if err != nil {
		return "", errors.Wrap(err, "keycodec: failed to create self-signed certificate")
	}

	buf := new(bytes.Buffer)
	if err := pem.Encode(buf, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		return "", errors.Wrap(err, "keycodec: failed to PEM-encode certificate")
	}
	return buf.String(), nil
}

// randomSerial mints a certificate serial number from a fresh UUID,
// matching the pattern used elsewhere in the ecosystem for "give me a
// random distinguishing number" rather than hand-rolling one.
func randomSerial() (*big.Int, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "keycodec: failed to generate certificate serial")
	}
	b, err := id.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "keycodec: failed to marshal certificate serial")
	}
	return new(big.Int).SetBytes(b), nil
}

package dh

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/curve25519"
)

// dhlen25519 is the DHLEN for Curve25519: both the private and the public
// key, as well as the shared secret, are 32 bytes.
const dhlen25519 = 32

// publicKey25519 implements the PublicKey interface.
type publicKey25519 struct {
	data [dhlen25519]byte
}

func (pk *publicKey25519) Bytes() []byte { return pk.data[:] }

func (pk *publicKey25519) Hex() string { return hex.EncodeToString(pk.data[:]) }

// privateKey25519 implements the PrivateKey interface.
type privateKey25519 struct {
	data [dhlen25519]byte
	pub  *publicKey25519
}

func (pk *privateKey25519) Bytes() []byte { return pk.data[:] }

// DH performs X25519(priv, pub).
func (pk *privateKey25519) DH(pub []byte) ([]byte, error) {
	if len(pub) != dhlen25519 {
		return nil, errMismatchedKey("public", dhlen25519, len(pub))
	}
	shared, err := curve25519.X25519(pk.data[:], pub)
	if err != nil {
		return nil, err
	}
	return shared, nil
}

func (pk *privateKey25519) PubKey() PublicKey { return pk.pub }

// curve25519DH implements the Curve interface for Curve25519.
type curve25519DH struct{}

// GenerateKeyPair creates a private key from entropy, or from crypto/rand
// when entropy is nil.
func (c *curve25519DH) GenerateKeyPair(entropy []byte) (PrivateKey, error) {
	var secret [dhlen25519]byte
	if entropy != nil {
		if len(entropy) < dhlen25519 {
			return nil, errMismatchedKey("private", dhlen25519, len(entropy))
		}
		copy(secret[:], entropy[:dhlen25519])
	} else if _, err := rand.Read(secret[:]); err != nil {
		return nil, err
	}
	return c.LoadPrivateKey(secret[:])
}

// LoadPrivateKey derives the corresponding public key via a base-point
// scalar multiplication and stores both.
func (c *curve25519DH) LoadPrivateKey(data []byte) (PrivateKey, error) {
	if len(data) != dhlen25519 {
		return nil, errMismatchedKey("private", dhlen25519, len(data))
	}
	p := &privateKey25519{}
	copy(p.data[:], data)

	pub, err := curve25519.X25519(p.data[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	p.pub = &publicKey25519{}
	copy(p.pub.data[:], pub)
	return p, nil
}

// LoadPublicKey wraps raw bytes as a PublicKey without validating that the
// point lies on the curve - degenerate points are caught lazily, at DH
// time, where curve25519.X25519 returns an error instead of an all-zero
// shared secret and DH passes that error on.
func (c *curve25519DH) LoadPublicKey(data []byte) (PublicKey, error) {
	if len(data) != dhlen25519 {
		return nil, errMismatchedKey("public", dhlen25519, len(data))
	}
	p := &publicKey25519{}
	copy(p.data[:], data)
	return p, nil
}

func (c *curve25519DH) Size() int { return dhlen25519 }

func (c *curve25519DH) String() string { return "25519" }

func newCurve25519() Curve { return &curve25519DH{} }

func init() {
	Register("25519", newCurve25519)
}

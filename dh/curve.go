// Package dh implements the Diffie-Hellman functions specified in the noise
// protocol.
//
// It currently supports three curves:
//  - Curve25519, via https://golang.org/x/crypto/curve25519.
//  - Curve448, via https://gitlab.com/yawning/x448.git.
//  - secp256k1, via https://github.com/btcsuite/btcd/btcec, a non-standard
//    extra curve kept around for applications that need it; the noise specs
//    only mandate the first two.
package dh

import (
	"fmt"
	"strings"
)

var curves = map[string]func() Curve{}

// PublicKey specifies the interface for a DH public key.
type PublicKey interface {
	// Bytes returns the public key as a byte slice.
	Bytes() []byte

	// Hex returns the public key in hexstring.
	Hex() string
}

// PrivateKey specifies the interface for a DH private key pair.
type PrivateKey interface {
	// Bytes returns the private key as a byte slice.
	Bytes() []byte

	// DH performs a Diffie-Hellman calculation between the private key and
	// the supplied public key bytes, and returns the shared secret.
	DH(pub []byte) ([]byte, error)

	// PubKey returns the public key counterpart of the private key.
	PubKey() PublicKey
}

// Curve specifies the interface a DH function, aka a DHCap, must implement
// to be used by the noise package.
type Curve interface {
	fmt.Stringer

	// GenerateKeyPair creates a new private key. When entropy is supplied it
	// is used as the raw key material, otherwise crypto/rand is used.
	GenerateKeyPair(entropy []byte) (PrivateKey, error)

	// LoadPrivateKey turns raw bytes into a PrivateKey.
	LoadPrivateKey(data []byte) (PrivateKey, error)

	// LoadPublicKey turns raw bytes into a PublicKey.
	LoadPublicKey(data []byte) (PublicKey, error)

	// Size returns DHLEN, the size in bytes of a public key as it appears on
	// the wire.
	Size() int
}

// FromString uses the provided curve name to build a registered Curve. It
// returns nil if the name is unknown.
func FromString(s string) Curve {
	factory, ok := curves[s]
	if !ok {
		return nil
	}
	return factory()
}

// Register adds a new curve factory to the registry. A factory, rather than
// a shared instance, is stored so that every handshake gets its own Curve
// value - curves carry no per-instance state today, but PrivateKey values
// created from them do, and a shared map lookup must never hand out aliased
// mutable state to concurrent handshakes.
func Register(s string, factory func() Curve) {
	curves[s] = factory
}

// SupportedCurves gives the names of all the curves registered.
func SupportedCurves() string {
	keys := make([]string, 0, len(curves))
	for k := range curves {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}

// IsNullPublicKey reports whether pub is the all-zero element of the group,
// which Curve25519 and Curve448 can produce from a maliciously chosen
// public key and which must never be accepted as a peer's ephemeral.
func IsNullPublicKey(pub []byte) bool {
	if len(pub) == 0 {
		return false
	}
	var acc byte
	for _, b := range pub {
		acc |= b
	}
	return acc == 0
}

func errMismatchedKey(kind string, want, got int) error {
	return fmt.Errorf("%s key must be %d bytes, got %d", kind, want, got)
}

// Package hash implements the hash functions and HKDF derivations specified
// in the noise protocol.
//
// It currently supports four hash functions:
//  - BLAKE2s, via https://golang.org/x/crypto/blake2s.
//  - BLAKE2b, via https://golang.org/x/crypto/blake2b.
//  - SHA256, via crypto/sha256.
//  - SHA512, via crypto/sha512.
package hash

import (
	"crypto/hmac"
	"fmt"
	"hash"
	"strings"
)

var supportedHashes = map[string]func() Hash{}

// Hash specifies the interface for a hash function used by the noise
// package, aka a HashCap.
type Hash interface {
	fmt.Stringer

	// BlockLen returns the internal block size of the hash function, used
	// by HMAC.
	BlockLen() int

	// HashLen returns the output size of the hash function, in bytes.
	HashLen() int

	// New returns a fresh hash.Hash ready to be fed data.
	New() hash.Hash

	// HashOne hashes data in a single pass.
	HashOne(data []byte) []byte

	// Hkdf2 derives two outputs of HashLen() bytes from chainingKey and
	// inputKeyMaterial, following section 4.3 of the noise specs.
	Hkdf2(chainingKey, inputKeyMaterial []byte) (out1, out2 []byte)

	// Hkdf3 derives three outputs of HashLen() bytes, reusing the first two
	// outputs of Hkdf2 and adding a third.
	Hkdf3(chainingKey, inputKeyMaterial []byte) (out1, out2, out3 []byte)
}

// FromString uses the provided hash name, s, to build a built-in hash
// engine. It returns nil if the name is unknown.
func FromString(s string) Hash {
	factory, ok := supportedHashes[s]
	if !ok {
		return nil
	}
	return factory()
}

// Register adds a new hash factory to the registry used by package hash.
func Register(s string, factory func() Hash) {
	supportedHashes[s] = factory
}

// SupportedHashes gives the names of all the hash functions registered.
func SupportedHashes() string {
	keys := make([]string, 0, len(supportedHashes))
	for k := range supportedHashes {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}

// hkdf implements the HKDF construction from section 4.3 of the noise
// specs: HMAC-based extract-then-expand producing exactly numOutputs
// chunks. Noise never needs a variable-length stream, only two or three
// fixed HashLen()-sized outputs, so this is hand-rolled on crypto/hmac
// rather than built on a generic streaming HKDF reader.
func hkdf(h Hash, chainingKey, inputKeyMaterial []byte, numOutputs int) [][]byte {
	extractor := hmac.New(h.New, chainingKey)
	extractor.Write(inputKeyMaterial)
	tempKey := extractor.Sum(nil)

	outputs := make([][]byte, numOutputs)
	var prev []byte
	for i := 0; i < numOutputs; i++ {
		expander := hmac.New(h.New, tempKey)
		expander.Write(prev)
		expander.Write([]byte{byte(i + 1)})
		out := expander.Sum(nil)
		outputs[i] = out
		prev = out
	}
	return outputs
}

func hkdf2(h Hash, chainingKey, inputKeyMaterial []byte) (out1, out2 []byte) {
	out := hkdf(h, chainingKey, inputKeyMaterial, 2)
	return out[0], out[1]
}

func hkdf3(h Hash, chainingKey, inputKeyMaterial []byte) (out1, out2, out3 []byte) {
	out := hkdf(h, chainingKey, inputKeyMaterial, 3)
	return out[0], out[1], out[2]
}

package hash

import (
	"crypto/sha512"
	"hash"
)

type sha512Hash struct{}

func (sha512Hash) String() string { return "SHA512" }

func (sha512Hash) BlockLen() int { return sha512.BlockSize }

func (sha512Hash) HashLen() int { return sha512.Size }

func (sha512Hash) New() hash.Hash { return sha512.New() }

func (s sha512Hash) HashOne(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

func (s sha512Hash) Hkdf2(chainingKey, inputKeyMaterial []byte) ([]byte, []byte) {
	return hkdf2(s, chainingKey, inputKeyMaterial)
}

func (s sha512Hash) Hkdf3(chainingKey, inputKeyMaterial []byte) ([]byte, []byte, []byte) {
	return hkdf3(s, chainingKey, inputKeyMaterial)
}

func newSHA512() Hash { return sha512Hash{} }

func init() {
	Register("SHA512", newSHA512)
}

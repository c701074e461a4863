package hash

import (
	"crypto/sha256"
	"hash"
)

type sha256Hash struct{}

func (sha256Hash) String() string { return "SHA256" }

func (sha256Hash) BlockLen() int { return sha256.BlockSize }

func (sha256Hash) HashLen() int { return sha256.Size }

func (sha256Hash) New() hash.Hash { return sha256.New() }

func (s sha256Hash) HashOne(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func (s sha256Hash) Hkdf2(chainingKey, inputKeyMaterial []byte) ([]byte, []byte) {
	return hkdf2(s, chainingKey, inputKeyMaterial)
}

func (s sha256Hash) Hkdf3(chainingKey, inputKeyMaterial []byte) ([]byte, []byte, []byte) {
	return hkdf3(s, chainingKey, inputKeyMaterial)
}

func newSHA256() Hash { return sha256Hash{} }

func init() {
	Register("SHA256", newSHA256)
}

package hash

import (
	"hash"

	"golang.org/x/crypto/blake2b"
)

type blake2bHash struct{}

func (blake2bHash) String() string { return "BLAKE2b" }

func (blake2bHash) BlockLen() int { return blake2b.BlockSize }

func (blake2bHash) HashLen() int { return blake2b.Size }

func (blake2bHash) New() hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}

func (b blake2bHash) HashOne(data []byte) []byte {
	sum := blake2b.Sum512(data)
	return sum[:]
}

func (b blake2bHash) Hkdf2(chainingKey, inputKeyMaterial []byte) ([]byte, []byte) {
	return hkdf2(b, chainingKey, inputKeyMaterial)
}

func (b blake2bHash) Hkdf3(chainingKey, inputKeyMaterial []byte) ([]byte, []byte, []byte) {
	return hkdf3(b, chainingKey, inputKeyMaterial)
}

func newBlake2b() Hash { return blake2bHash{} }

func init() {
	Register("BLAKE2b", newBlake2b)
}

package hash

import (
	"hash"

	"golang.org/x/crypto/blake2s"
)

type blake2sHash struct{}

func (blake2sHash) String() string { return "BLAKE2s" }

func (blake2sHash) BlockLen() int { return blake2s.BlockSize }

func (blake2sHash) HashLen() int { return blake2s.Size }

func (blake2sHash) New() hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

func (b blake2sHash) HashOne(data []byte) []byte {
	sum := blake2s.Sum256(data)
	return sum[:]
}

func (b blake2sHash) Hkdf2(chainingKey, inputKeyMaterial []byte) ([]byte, []byte) {
	return hkdf2(b, chainingKey, inputKeyMaterial)
}

func (b blake2sHash) Hkdf3(chainingKey, inputKeyMaterial []byte) ([]byte, []byte, []byte) {
	return hkdf3(b, chainingKey, inputKeyMaterial)
}

func newBlake2s() Hash { return blake2sHash{} }

func init() {
	Register("BLAKE2s", newBlake2s)
}

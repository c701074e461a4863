package cipher

import (
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"
)

// chachaPoly implements the AEAD interface using ChaCha20-Poly1305.
type chachaPoly struct {
	aead cipher.AEAD
}

func (c *chachaPoly) String() string { return "ChaChaPoly" }

// Cipher returns the standard library cipher.AEAD backing this engine.
func (c *chachaPoly) Cipher() cipher.AEAD { return c.aead }

// EncodeNonce packs the Noise 64-bit little-endian counter nonce into the
// 12-byte nonce ChaCha20-Poly1305 expects: 4 zero bytes followed by the
// little-endian counter, per the noise specs.
func (c *chachaPoly) EncodeNonce(n uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.LittleEndian.PutUint64(nonce[4:], n)
	return nonce
}

// InitCipher creates the underlying cipher.AEAD with the given key.
func (c *chachaPoly) InitCipher(key [KeySize]byte) error {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return err
	}
	c.aead = aead
	return nil
}

// Encrypt implements the AEAD interface.
func (c *chachaPoly) Encrypt(n uint64, ad, plaintext []byte) ([]byte, error) {
	if n == MaxNonce {
		return nil, ErrNonceOverflow
	}
	return c.aead.Seal(nil, c.EncodeNonce(n), plaintext, ad), nil
}

// Decrypt implements the AEAD interface.
func (c *chachaPoly) Decrypt(n uint64, ad, ciphertext []byte) ([]byte, error) {
	if n == MaxNonce {
		return nil, ErrNonceOverflow
	}
	return c.aead.Open(nil, c.EncodeNonce(n), ciphertext, ad)
}

// Rekey implements the AEAD interface using the default construction.
func (c *chachaPoly) Rekey(key [KeySize]byte) ([]byte, error) {
	return defaultRekey(c, key)
}

func newChaChaPoly() AEAD { return &chachaPoly{} }

func init() {
	Register("ChaChaPoly", newChaChaPoly)
}

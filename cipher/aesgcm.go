package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

// aesGCM implements the AEAD interface using AES-256 in GCM mode.
//
// Noise's AESGCM uses a 96-bit nonce formed as 4 zero bytes followed by a
// big-endian 64-bit counter - the one place the AEAD engines disagree on
// nonce byte order, per the noise specs.
type aesGCM struct {
	aead cipher.AEAD
}

func (a *aesGCM) String() string { return "AESGCM" }

// Cipher returns the standard library cipher.AEAD backing this engine.
func (a *aesGCM) Cipher() cipher.AEAD { return a.aead }

// EncodeNonce packs the Noise 64-bit counter nonce in big-endian form.
func (a *aesGCM) EncodeNonce(n uint64) []byte {
	nonce := make([]byte, 12)
	binary.BigEndian.PutUint64(nonce[4:], n)
	return nonce
}

// InitCipher creates the underlying cipher.AEAD with the given key.
func (a *aesGCM) InitCipher(key [KeySize]byte) error {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	a.aead = aead
	return nil
}

// Encrypt implements the AEAD interface.
func (a *aesGCM) Encrypt(n uint64, ad, plaintext []byte) ([]byte, error) {
	if n == MaxNonce {
		return nil, ErrNonceOverflow
	}
	return a.aead.Seal(nil, a.EncodeNonce(n), plaintext, ad), nil
}

// Decrypt implements the AEAD interface.
func (a *aesGCM) Decrypt(n uint64, ad, ciphertext []byte) ([]byte, error) {
	if n == MaxNonce {
		return nil, ErrNonceOverflow
	}
	return a.aead.Open(nil, a.EncodeNonce(n), ciphertext, ad)
}

// Rekey implements the AEAD interface using the default construction.
func (a *aesGCM) Rekey(key [KeySize]byte) ([]byte, error) {
	return defaultRekey(a, key)
}

func newAESGCM() AEAD { return &aesGCM{} }

func init() {
	Register("AESGCM", newAESGCM)
}

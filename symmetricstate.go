package noise

import (
	"github.com/pkg/errors"

	"github.com/crypto-y/noisecore/cipher"
	"github.com/crypto-y/noisecore/hash"
	"github.com/crypto-y/noisecore/rekey"
)

// SymmetricState owns the chaining key, the transcript hash, and the one
// CipherState that HandshakeState's token loop drives. Its operations
// follow section 4.2 of the noise specs: mix_key, mix_hash,
// mix_key_and_hash, encrypt_and_hash, decrypt_and_hash and split.
type SymmetricState struct {
	ck []byte
	h  []byte

	cipherState *CipherState
	hashEngine  hash.Hash
	cipherName  string
	rekeyer     rekey.Rekeyer
}

func newSymmetricState(cipherName string, h hash.Hash, rekeyer rekey.Rekeyer) (*SymmetricState, error) {
	engine := cipher.FromString(cipherName)
	if engine == nil {
		return nil, errUnsupportedComponent("cipher", cipherName)
	}
	return &SymmetricState{
		hashEngine:  h,
		cipherName:  cipherName,
		rekeyer:     rekeyer,
		cipherState: newCipherState(engine, rekeyer),
	}, nil
}

// InitializeSymmetric implements SymmetricState's construction: h is the
// protocol name, zero-padded or hashed down to HashLen() bytes, and ck
// starts out equal to h.
func (s *SymmetricState) InitializeSymmetric(protocolName []byte) {
	hLen := s.hashEngine.HashLen()
	h := make([]byte, hLen)
	if len(protocolName) <= hLen {
		copy(h, protocolName)
	} else {
		h = s.hashEngine.HashOne(protocolName)
	}
	s.h = h
	s.ck = append([]byte(nil), h...)
}

// MixKey implements mix_key: ck, temp_k = HKDF2(ck, ikm); temp_k becomes
// the cipher's key, truncated to cipher.KeySize bytes.
func (s *SymmetricState) MixKey(ikm []byte) error {
	ck, tempK := s.hashEngine.Hkdf2(s.ck, ikm)
	s.ck = ck
	var key [cipher.KeySize]byte
	copy(key[:], tempK[:cipher.KeySize])
	return s.cipherState.InitializeKey(key)
}

// MixHash implements mix_hash: h = Hash(h || data).
func (s *SymmetricState) MixHash(data []byte) {
	buf := make([]byte, 0, len(s.h)+len(data))
	buf = append(buf, s.h...)
	buf = append(buf, data...)
	s.h = s.hashEngine.HashOne(buf)
}

// MixKeyAndHash implements mix_key_and_hash: ck, temp_h, temp_k =
// HKDF3(ck, ikm); temp_h is mixed into h; temp_k becomes the cipher key.
// set_pre_shared_key's HKDF2-then-mix_hash sequence is equivalent to this
// call, per property 7 in the testable-properties list.
func (s *SymmetricState) MixKeyAndHash(ikm []byte) error {
	ck, tempH, tempK := s.hashEngine.Hkdf3(s.ck, ikm)
	s.ck = ck
	s.MixHash(tempH)
	var key [cipher.KeySize]byte
	copy(key[:], tempK[:cipher.KeySize])
	return s.cipherState.InitializeKey(key)
}

// HasKey reports whether the embedded cipher is keyed.
func (s *SymmetricState) HasKey() bool { return s.cipherState.HasKey() }

// MixPreSharedKey implements the two-step HKDF2-then-mix_hash sequence
// set_pre_shared_key uses instead of a full MixKeyAndHash: ck, temp =
// HKDF2(ck, psk); temp is mixed into h. Unlike MixKeyAndHash, no cipher
// key is installed - set_pre_shared_key runs before the first DH result
// is ever mixed in, so there is nothing yet to rekey.
func (s *SymmetricState) MixPreSharedKey(psk []byte) {
	ck, temp := s.hashEngine.Hkdf2(s.ck, psk)
	s.ck = ck
	s.MixHash(temp)
}

// ResetCipher replaces the embedded CipherState with a fresh, unkeyed one
// using the same cipher algorithm - used by HandshakeState.Fallback, which
// must clear has_key/n/nonce_overflow entirely rather than merely zero
// them on the existing instance.
func (s *SymmetricState) ResetCipher() error {
	engine := cipher.FromString(s.cipherName)
	if engine == nil {
		return errUnsupportedComponent("cipher", s.cipherName)
	}
	s.cipherState = newCipherState(engine, s.rekeyer)
	return nil
}

// EncryptAndHash implements encrypt_and_hash: seal under ad=h when keyed,
// otherwise pass plaintext through unmodified; either way, mix the result
// into h.
func (s *SymmetricState) EncryptAndHash(plaintext []byte) ([]byte, error) {
	ciphertext, err := s.cipherState.EncryptWithAd(s.h, plaintext)
	if err != nil {
		return nil, errors.Wrap(err, "encrypt_and_hash failed")
	}
	s.MixHash(ciphertext)
	return ciphertext, nil
}

// DecryptAndHash implements decrypt_and_hash: open under ad=h when keyed,
// then mix the original ciphertext - not the recovered plaintext - into h.
func (s *SymmetricState) DecryptAndHash(ciphertext []byte) ([]byte, error) {
	plaintext, err := s.cipherState.DecryptWithAd(s.h, ciphertext)
	if err != nil {
		return nil, err
	}
	s.MixHash(ciphertext)
	return plaintext, nil
}

// Split implements SymmetricState.split. secondaryKey must be nil/empty or
// exactly cipher.KeySize bytes; when present it is folded into ck via one
// extra HKDF2 pass before the final key derivation, per the resolution of
// spec's split_with_key open question recorded in DESIGN.md. It returns
// two freshly constructed CipherStates with independent nonce counters,
// in (first, second) order as derived from ck - the caller (HandshakeState)
// is responsible for presenting them to the application as (send, recv) in
// the correct, role-dependent order.
func (s *SymmetricState) Split(secondaryKey []byte) (c1, c2 *CipherState, err error) {
	ck := s.ck
	switch len(secondaryKey) {
	case 0:
		// no secondary key, split directly off ck.
	case cipher.KeySize:
		ck, _ = s.hashEngine.Hkdf2(ck, secondaryKey)
	default:
		return nil, nil, errors.Wrap(ErrInvalidLength, "secondary key must be 0 or 32 bytes")
	}

	tempK1, tempK2 := s.hashEngine.Hkdf2(ck, nil)

	var k1, k2 [cipher.KeySize]byte
	copy(k1[:], tempK1[:cipher.KeySize])
	copy(k2[:], tempK2[:cipher.KeySize])

	e1 := cipher.FromString(s.cipherName)
	e2 := cipher.FromString(s.cipherName)

	c1 = newCipherState(e1, s.rekeyer)
	c2 = newCipherState(e2, s.rekeyer)
	if err := c1.InitializeKey(k1); err != nil {
		return nil, nil, err
	}
	if err := c2.InitializeKey(k2); err != nil {
		return nil, nil, err
	}
	return c1, c2, nil
}

// GetHandshakeHash returns h, HandshakeState's exported handshake hash.
func (s *SymmetricState) GetHandshakeHash() []byte {
	return append([]byte(nil), s.h...)
}

package noise

import (
	"github.com/pkg/errors"

	"github.com/crypto-y/noisecore/cipher"
	"github.com/crypto-y/noisecore/rekey"
)

// CipherState wraps a single cipher.AEAD engine together with the 64-bit
// nonce counter and has_key bit the noise specs attach to it. The same
// type backs both SymmetricState's internal, handshake-phase cipher and
// the two transport ciphers Split hands back to the application.
type CipherState struct {
	engine  cipher.AEAD
	hasKey  bool
	key     [cipher.KeySize]byte
	n       uint64
	overflow bool
	rekeyer rekey.Rekeyer
}

func newCipherState(engine cipher.AEAD, rekeyer rekey.Rekeyer) *CipherState {
	return &CipherState{engine: engine, rekeyer: rekeyer}
}

// HasKey reports whether a key has been installed.
func (cs *CipherState) HasKey() bool { return cs.hasKey }

// Nonce returns the next nonce that will be used.
func (cs *CipherState) Nonce() uint64 { return cs.n }

// InitializeKey installs key, resets the nonce counter to zero, and clears
// any overflow flag - mirrors mix_key's effect on the embedded cipher.
func (cs *CipherState) InitializeKey(key [cipher.KeySize]byte) error {
	if err := cs.engine.InitCipher(key); err != nil {
		return err
	}
	cs.key = key
	cs.hasKey = true
	cs.n = 0
	cs.overflow = false
	return nil
}

// EncryptWithAd implements encrypt_and_hash's cipher step: a no-op on
// plaintext when unkeyed, otherwise an AEAD seal under the next nonce.
func (cs *CipherState) EncryptWithAd(ad, plaintext []byte) ([]byte, error) {
	if !cs.hasKey {
		return plaintext, nil
	}
	if cs.overflow {
		return nil, ErrNonceOverflow
	}
	out, err := cs.engine.Encrypt(cs.n, ad, plaintext)
	if err != nil {
		if errors.Is(err, cipher.ErrNonceOverflow) {
			cs.overflow = true
			return nil, ErrNonceOverflow
		}
		return nil, err
	}
	cs.n++
	if cs.n == cipher.MaxNonce {
		cs.overflow = true
	}
	return out, nil
}

// DecryptWithAd implements decrypt_and_hash's cipher step, returning
// ErrMacFailure on authentication failure.
func (cs *CipherState) DecryptWithAd(ad, ciphertext []byte) ([]byte, error) {
	if !cs.hasKey {
		return ciphertext, nil
	}
	if cs.overflow {
		return nil, ErrNonceOverflow
	}
	out, err := cs.engine.Decrypt(cs.n, ad, ciphertext)
	if err != nil {
		if errors.Is(err, cipher.ErrNonceOverflow) {
			cs.overflow = true
			return nil, ErrNonceOverflow
		}
		return nil, errors.Wrap(ErrMacFailure, err.Error())
	}
	cs.n++
	if cs.n == cipher.MaxNonce {
		cs.overflow = true
	}
	return out, nil
}

// Rekey rotates the current key using the configured Rekeyer, or the
// engine's own default Rekey method when none was configured. It is never
// called automatically by the handshake core or by Encrypt/DecryptWithAd;
// an application drives this itself against a transport CipherState
// returned from Split.
func (cs *CipherState) Rekey() error {
	if !cs.hasKey {
		return errors.Wrap(ErrInvalidState, "cannot rekey an unkeyed cipher state")
	}

	var raw []byte
	var err error
	if cs.rekeyer != nil {
		raw, err = cs.rekeyer.Rekey(cs.key)
	} else {
		raw, err = cs.engine.Rekey(cs.key)
	}
	if err != nil {
		return errors.Wrap(err, "rekey failed")
	}

	var newKey [cipher.KeySize]byte
	copy(newKey[:], raw)
	n, overflow := cs.n, cs.overflow
	if err := cs.InitializeKey(newKey); err != nil {
		return err
	}
	if cs.rekeyer == nil || !cs.rekeyer.ResetsNonce() {
		cs.n = n
		cs.overflow = overflow
	}
	return nil
}

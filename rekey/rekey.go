// Package rekey provides an optional helper for applications that want to
// periodically rotate the key of a transport CipherState returned by a
// completed handshake's Split.
//
// Nothing in the handshake core invokes a Rekeyer automatically: the noise
// specs only require that "split" emit two transport keys, and leave
// whatever happens to them afterwards entirely up to the application. A
// Rekeyer is therefore a policy object an application consults itself,
// typically after every N transport messages.
package rekey

import "github.com/crypto-y/noisecore/cipher"

// Rekeyer decides when and how a CipherState's key should be rotated.
type Rekeyer interface {
	// Interval returns the number of messages after which the caller
	// should consider rekeying, or 0 if the Rekeyer does not recommend a
	// fixed interval.
	Interval() uint64

	// ResetsNonce reports whether a rekey operation should also reset the
	// cipher's nonce counter back to zero.
	ResetsNonce() bool

	// Rekey derives a new key from the current one.
	Rekey(key [cipher.KeySize]byte) ([]byte, error)
}

// defaultRekeyer rekeys using the AEAD engine's own Rekey method.
type defaultRekeyer struct {
	interval    uint64
	engine      cipher.AEAD
	resetsNonce bool
}

func (d *defaultRekeyer) Interval() uint64 { return d.interval }

func (d *defaultRekeyer) ResetsNonce() bool { return d.resetsNonce }

func (d *defaultRekeyer) Rekey(key [cipher.KeySize]byte) ([]byte, error) {
	return d.engine.Rekey(key)
}

// NewDefault builds a Rekeyer that recommends rekeying every interval
// messages, derives the new key via engine's own Rekey method, and resets
// the nonce counter when resetNonce is true.
func NewDefault(interval uint64, engine cipher.AEAD, resetNonce bool) Rekeyer {
	return &defaultRekeyer{
		interval:    interval,
		engine:      engine,
		resetsNonce: resetNonce,
	}
}

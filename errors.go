package noise

import "github.com/pkg/errors"

// Sentinel errors for the taxonomy a HandshakeState/SymmetricState can
// raise. They are deliberately coarse-grained, matching the error kinds a
// caller needs to branch on; the wrapped context (added with
// errors.Wrap/Wrapf at the call site) carries the rest.
var (
	// ErrInvalidParam covers nil pointers or an unknown role. A secondary
	// key of the wrong length is reported as ErrInvalidLength.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrInvalidLength covers message, payload or key sizes outside their
	// contract.
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidState covers an operation called out of sequence: e.g.
	// set_prologue after start, read when write was expected, split
	// before the token stream reaches End.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidPublicKey is returned when a remote ephemeral DH public
	// key is the all-zero point.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrNotApplicable covers a PSK operation on a non-PSK protocol, or a
	// Fallback attempt from a pattern other than IK.
	ErrNotApplicable = errors.New("not applicable")

	// ErrMacFailure is returned when AEAD verification fails on read.
	ErrMacFailure = errors.New("MAC verification failed")

	// ErrLocalKeyRequired is returned from Start when a required local
	// key was never supplied.
	ErrLocalKeyRequired = errors.New("local key required")

	// ErrRemoteKeyRequired is returned from Start when a required remote
	// public key was never supplied.
	ErrRemoteKeyRequired = errors.New("remote key required")

	// ErrPskRequired is returned from Start when the pattern carries a
	// psk modifier but SetPreSharedKey was never called.
	ErrPskRequired = errors.New("pre-shared key required")

	// ErrProtocolInvalidName is returned when a protocol name does not
	// parse into exactly five "Noise_PATTERN_DH_CIPHER_HASH" components.
	ErrProtocolInvalidName = errors.New("invalid protocol name")

	// ErrNonceOverflow is returned when a cipher's 64-bit nonce counter
	// has been exhausted.
	ErrNonceOverflow = errors.New("nonce counter exhausted")
)

func errUnsupportedComponent(kind, name string) error {
	return errors.Wrapf(ErrProtocolInvalidName, "%s component %q is not supported", kind, name)
}

package noise

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/crypto-y/noisecore/cipher"
	"github.com/crypto-y/noisecore/dh"
	"github.com/crypto-y/noisecore/hash"
	"github.com/crypto-y/noisecore/pattern"
	"github.com/crypto-y/noisecore/rekey"
)

// NoisePrefix is the mandatory prefix defined by the noise protocol framework.
const NoisePrefix = "Noise"

const defaultRekeyInterval = 10000

// ProtocolConfig is used for constructing a new handshake state.
type ProtocolConfig struct {
	// Name is the protocol name defined by the noise specs, e.g.,
	// Noise_XX_25519_AESGCM_SHA256
	Name string

	// Initiator specifies whether it's the handshake initiator.
	Initiator bool

	// Prologue is optional information to be mixed into the transcript
	// hash before the first message. Both parties must provide identical
	// prologue data, otherwise the handshake will fail with a MAC error.
	Prologue string

	// Rekeyer is a rekey manager, which controls when/how a rekey should be
	// performed, and whether the cipher nonce should be reset. It is only
	// ever consulted by CipherState.Rekey, which an application calls
	// explicitly against a transport cipher returned from Split.
	Rekeyer rekey.Rekeyer

	// LocalStaticPriv is the s from the noise spec. Only provide it when
	// it's needed by the message pattern, otherwise leave it empty.
	LocalStaticPriv []byte

	// LocalEphemeralPriv is the e from the noise spec. Only provide it
	// when it's needed by the message pattern, otherwise leave it empty.
	LocalEphemeralPriv []byte

	// RemoteStaticPub is the rs from the noise spec. Only provide it when
	// it's needed by the message pattern, otherwise leave it empty.
	RemoteStaticPub []byte

	// RemoteEphemeralPub is the re from the noise spec. Only provide it
	// when it's needed by the message pattern, otherwise leave it empty.
	RemoteEphemeralPub []byte

	// Psk is the pre-shared symmetric key used if the pattern carries a
	// "psk" modifier. It must be exactly 32 bytes.
	Psk []byte

	// autoPadding is for internal usage: if true, required local keys
	// that were not supplied are generated automatically.
	autoPadding bool
}

// handshakeConfig is the parsed, but not yet key-loaded, representation of
// a protocol name.
type handshakeConfig struct {
	patternName string
	curveName   string
	cipherName  string
	hashName    string

	pattern *pattern.HandshakePattern
	curve   dh.Curve
	hashFn  hash.Hash
}

// NewProtocol creates a new handshake state from a protocol name, prologue
// and role, using sensible defaults:
//  - a default Rekeyer is used, which recommends rekeying every 10000
//    transport messages and resets the nonce counter when it does.
//  - any local static/ephemeral key the pattern requires but that wasn't
//    otherwise supplied is generated automatically. Remote keys are never
//    fabricated this way - use NewProtocolWithConfig to supply them, or
//    to enable PSK mode.
func NewProtocol(name, prologue string, initiator bool) (*HandshakeState, error) {
	if name == "" {
		return nil, errors.Wrap(ErrProtocolInvalidName, "missing protocol name")
	}

	hsc, err := parseProtocolName(name)
	if err != nil {
		return nil, err
	}
	engine := cipher.FromString(hsc.cipherName)
	if engine == nil {
		return nil, errUnsupportedComponent("cipher", hsc.cipherName)
	}
	rekeyer := rekey.NewDefault(defaultRekeyInterval, engine, true)

	config := &ProtocolConfig{
		Name:        name,
		Prologue:    prologue,
		Initiator:   initiator,
		autoPadding: true,
		Rekeyer:     rekeyer,
	}
	return NewProtocolWithConfig(config)
}

// NewProtocolWithConfig creates a handshake state from a fully specified
// ProtocolConfig.
func NewProtocolWithConfig(config *ProtocolConfig) (*HandshakeState, error) {
	name := config.Name
	if name == "" {
		return nil, errors.Wrap(ErrProtocolInvalidName, "missing protocol name")
	}

	hsc, err := parseProtocolName(name)
	if err != nil {
		return nil, err
	}

	params := handshakeParams{
		protocolName: []byte(name),
		prologue:     []byte(config.Prologue),
		pattern:      hsc.pattern,
		curve:        hsc.curve,
		curveName:    hsc.curveName,
		cipherName:   hsc.cipherName,
		hash:         hsc.hashFn,
		initiator:    config.Initiator,
		rekeyer:      config.Rekeyer,
		psk:          config.Psk,
		autoPadding:  config.autoPadding,
	}

	if config.LocalStaticPriv != nil {
		s, err := hsc.curve.LoadPrivateKey(config.LocalStaticPriv)
		if err != nil {
			return nil, errors.Wrap(err, "failed loading local static key")
		}
		params.localStatic = s
	}
	if config.LocalEphemeralPriv != nil {
		e, err := hsc.curve.LoadPrivateKey(config.LocalEphemeralPriv)
		if err != nil {
			return nil, errors.Wrap(err, "failed loading local ephemeral key")
		}
		params.localEphemeral = e
	}
	if config.RemoteStaticPub != nil {
		rs, err := hsc.curve.LoadPublicKey(config.RemoteStaticPub)
		if err != nil {
			return nil, errors.Wrap(err, "failed loading remote static key")
		}
		params.remoteStatic = rs
	}
	if config.RemoteEphemeralPub != nil {
		re, err := hsc.curve.LoadPublicKey(config.RemoteEphemeralPub)
		if err != nil {
			return nil, errors.Wrap(err, "failed loading remote ephemeral key")
		}
		params.remoteEphemeral = re
	}

	return newHandshakeState(params)
}

// parseProtocolName splits a full protocol name into its five
// "Noise_PATTERN_DH_CIPHER_HASH" components and resolves each against its
// package's registry.
func parseProtocolName(s string) (*handshakeConfig, error) {
	components := strings.Split(s, "_")
	if len(components) != 5 || components[0] != NoisePrefix {
		return nil, errors.Wrapf(ErrProtocolInvalidName, "%q", s)
	}

	patternName, curveName, cipherName, hashName := components[1], components[2], components[3], components[4]

	p, err := pattern.FromString(patternName)
	if err != nil {
		return nil, errUnsupportedComponent("pattern", patternName)
	}

	d := dh.FromString(curveName)
	if d == nil {
		return nil, errUnsupportedComponent("dh", curveName)
	}

	c := cipher.FromString(cipherName)
	if c == nil {
		return nil, errUnsupportedComponent("cipher", cipherName)
	}

	h := hash.FromString(hashName)
	if h == nil {
		return nil, errUnsupportedComponent("hash", hashName)
	}

	return &handshakeConfig{
		patternName: patternName,
		curveName:   curveName,
		cipherName:  cipherName,
		hashName:    hashName,
		pattern:     p,
		curve:       d,
		hashFn:      h,
	}, nil
}

// buildProtocolName assembles a "Noise_PATTERN_DH_CIPHER_HASH" name, used
// by HandshakeState.Fallback to re-key InitializeSymmetric after swapping
// in the XXfallback pattern.
func buildProtocolName(patternName, curveName, cipherName, hashName string) ([]byte, error) {
	if patternName == "" || curveName == "" || cipherName == "" || hashName == "" {
		return nil, errors.Wrap(ErrInvalidParam, "missing protocol component")
	}
	return []byte(fmt.Sprintf("%s_%s_%s_%s_%s", NoisePrefix, patternName, curveName, cipherName, hashName)), nil
}

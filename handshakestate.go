package noise

import (
	"github.com/pkg/errors"

	"github.com/crypto-y/noisecore/cipher"
	"github.com/crypto-y/noisecore/dh"
	"github.com/crypto-y/noisecore/hash"
	"github.com/crypto-y/noisecore/pattern"
	"github.com/crypto-y/noisecore/rekey"
)

// requirement is the bitset HandshakeState derives from a pattern's flags
// at construction and recomputes at Fallback, gating what must be supplied
// before Start will succeed.
type requirement uint16

const (
	reqPrologue requirement = 1 << iota
	reqLocalRequired
	reqLocalPremsg
	reqRemoteRequired
	reqRemotePremsg
	reqFallbackPremsg
	reqPSK
)

func deriveRequirements(flags pattern.Flag) requirement {
	req := reqPrologue
	if flags&pattern.FlagLocalStatic != 0 {
		req |= reqLocalRequired
	}
	if flags&pattern.FlagLocalStaticPremsg != 0 {
		req |= reqLocalRequired | reqLocalPremsg
	}
	if flags&pattern.FlagRemoteStaticPremsg != 0 {
		req |= reqRemoteRequired | reqRemotePremsg
	}
	if flags&(pattern.FlagLocalEphemeralPremsg|pattern.FlagRemoteEphemeralPremsg) != 0 {
		req |= reqFallbackPremsg
	}
	if flags&pattern.FlagPSK != 0 {
		req |= reqPSK
	}
	return req
}

// handshakeParams bundles the resolved construction inputs for
// newHandshakeState - it exists so NewProtocolWithConfig's protocol-name
// parsing stays decoupled from HandshakeState's own invariants.
type handshakeParams struct {
	protocolName []byte
	prologue     []byte

	pattern    *pattern.HandshakePattern
	curve      dh.Curve
	curveName  string
	cipherName string
	hash       hash.Hash

	initiator bool

	localStatic     dh.PrivateKey
	localEphemeral  dh.PrivateKey
	remoteStatic    dh.PublicKey
	remoteEphemeral dh.PublicKey

	psk     []byte
	rekeyer rekey.Rekeyer

	// autoPadding generates a missing required local key automatically
	// rather than failing construction; it never fabricates a remote key.
	autoPadding bool
}

// HandshakeState drives a noise pattern's token stream, token by token,
// over a SymmetricState it owns. See section 4.1 of the noise specs.
type HandshakeState struct {
	symmetric *SymmetricState

	role   Role
	action Action

	curve      dh.Curve
	curveName  string
	cipherName string
	hashName   string

	pat          *pattern.HandshakePattern
	cursor       int
	requirements requirement

	localStatic     dh.PrivateKey
	localEphemeral  dh.PrivateKey
	remoteStatic    dh.PublicKey
	remoteEphemeral dh.PublicKey

	fixedEphemeral dh.PrivateKey

	psk     []byte
	rekeyer rekey.Rekeyer
}

func newHandshakeState(p handshakeParams) (*HandshakeState, error) {
	if p.pattern == nil {
		return nil, errors.Wrap(ErrInvalidParam, "pattern is required")
	}

	role := Responder
	if p.initiator {
		role = Initiator
	}

	flags := p.pattern.Flags
	if role == Responder {
		flags = pattern.ReverseFlags(flags)
	}

	hs := &HandshakeState{
		role:            role,
		action:          ActionNone,
		curve:           p.curve,
		curveName:       p.curveName,
		cipherName:      p.cipherName,
		hashName:        p.hash.String(),
		pat:             p.pattern,
		requirements:    deriveRequirements(flags),
		localStatic:     p.localStatic,
		localEphemeral:  p.localEphemeral,
		remoteStatic:    p.remoteStatic,
		remoteEphemeral: p.remoteEphemeral,
		rekeyer:         p.rekeyer,
	}

	if p.autoPadding {
		if hs.requirements&reqLocalRequired != 0 && hs.localStatic == nil {
			priv, err := p.curve.GenerateKeyPair(nil)
			if err != nil {
				return nil, errors.Wrap(err, "failed generating local static key")
			}
			hs.localStatic = priv
		}
	}

	ss, err := newSymmetricState(p.cipherName, p.hash, p.rekeyer)
	if err != nil {
		return nil, err
	}
	hs.symmetric = ss
	ss.InitializeSymmetric(p.protocolName)

	if len(p.prologue) > 0 {
		hs.symmetric.MixHash(p.prologue)
		hs.requirements &^= reqPrologue
	}

	if len(p.psk) > 0 {
		if err := hs.SetPreSharedKey(p.psk); err != nil {
			return nil, err
		}
	}

	return hs, nil
}

// GetRole returns whether this instance is the Initiator or Responder.
func (hs *HandshakeState) GetRole() Role { return hs.role }

// GetAction returns what the caller should do next.
func (hs *HandshakeState) GetAction() Action { return hs.action }

// DHLen returns DHLEN, the public key size of the configured curve.
func (hs *HandshakeState) DHLen() int { return hs.curve.Size() }

// NeedsLocalKeypair reports whether a local static key is required but has
// not been supplied.
func (hs *HandshakeState) NeedsLocalKeypair() bool {
	return hs.requirements&reqLocalRequired != 0 && hs.localStatic == nil
}

// HasLocalKeypair reports whether a local static key is set.
func (hs *HandshakeState) HasLocalKeypair() bool { return hs.localStatic != nil }

// NeedsRemotePublicKey reports whether a remote static key is required but
// has not been supplied.
func (hs *HandshakeState) NeedsRemotePublicKey() bool {
	return hs.requirements&reqRemoteRequired != 0 && hs.remoteStatic == nil
}

// HasRemotePublicKey reports whether a remote static key is set.
func (hs *HandshakeState) HasRemotePublicKey() bool { return hs.remoteStatic != nil }

// NeedsPreSharedKey reports whether the pattern carries a psk modifier
// that has not yet been satisfied.
func (hs *HandshakeState) NeedsPreSharedKey() bool {
	return hs.requirements&reqPSK != 0
}

// HasPreSharedKey reports whether a pre-shared key has been set.
func (hs *HandshakeState) HasPreSharedKey() bool { return hs.psk != nil }

// GetLocalStaticPublicKey returns the local static public key, or nil if
// none is set.
func (hs *HandshakeState) GetLocalStaticPublicKey() dh.PublicKey {
	if hs.localStatic == nil {
		return nil
	}
	return hs.localStatic.PubKey()
}

// SetFixedEphemeralKeypair pins the ephemeral key HandshakeState will use
// the next time it needs to generate one. It exists solely to reproduce
// the official noise test vectors, whose messages are only bit-exact when
// both sides' ephemerals are pinned instead of drawn from entropy.
func (hs *HandshakeState) SetFixedEphemeralKeypair(priv dh.PrivateKey) {
	hs.fixedEphemeral = priv
}

// GetFixedEphemeralDh returns the pinned ephemeral key, or nil if none was
// set via SetFixedEphemeralKeypair.
func (hs *HandshakeState) GetFixedEphemeralDh() dh.PrivateKey { return hs.fixedEphemeral }

// SetPrologue mixes prologue data into the transcript hash. It may only be
// called once, before Start, and only when the pattern expects one.
func (hs *HandshakeState) SetPrologue(data []byte) error {
	if hs.action != ActionNone {
		return errors.Wrap(ErrInvalidState, "set_prologue called after start")
	}
	if hs.requirements&reqPrologue == 0 {
		return errors.Wrap(ErrInvalidState, "prologue already set")
	}
	hs.symmetric.MixHash(data)
	hs.requirements &^= reqPrologue
	return nil
}

// SetPreSharedKey installs a 32-byte pre-shared key, mixing it into ck and
// h before any message is written. An empty prologue is absorbed first if
// SetPrologue was never called.
func (hs *HandshakeState) SetPreSharedKey(key []byte) error {
	if hs.action != ActionNone {
		return errors.Wrap(ErrInvalidState, "set_pre_shared_key called after start")
	}
	if hs.requirements&reqPSK == 0 {
		return errors.Wrap(ErrNotApplicable, "pattern does not use a pre-shared key")
	}
	if len(key) != cipher.KeySize {
		return errors.Wrapf(ErrInvalidLength, "pre-shared key must be %d bytes", cipher.KeySize)
	}
	if hs.requirements&reqPrologue != 0 {
		hs.symmetric.MixHash(nil)
		hs.requirements &^= reqPrologue
	}
	hs.symmetric.MixPreSharedKey(key)
	hs.psk = append([]byte(nil), key...)
	hs.requirements &^= reqPSK
	return nil
}

// Start validates that every prerequisite has been met, absorbs any
// pre-message public keys into h in role order, and sets the first Action.
func (hs *HandshakeState) Start() error {
	if hs.action != ActionNone {
		return errors.Wrap(ErrInvalidState, "start called more than once")
	}

	flags := hs.effectiveFlags()

	if flags&(pattern.FlagLocalEphemeralPremsg|pattern.FlagRemoteEphemeralPremsg) != 0 {
		if flags&pattern.FlagRemoteEphemeralPremsg != 0 && hs.remoteEphemeral == nil {
			return errors.Wrap(ErrInvalidState, "fallback not reached: remote ephemeral premessage missing")
		}
		if flags&pattern.FlagLocalEphemeralPremsg != 0 && hs.localEphemeral == nil {
			return errors.Wrap(ErrInvalidState, "fallback not reached: local ephemeral premessage missing")
		}
	}

	if hs.requirements&reqLocalRequired != 0 && hs.localStatic == nil {
		return ErrLocalKeyRequired
	}
	if hs.requirements&reqRemoteRequired != 0 && hs.remoteStatic == nil {
		return ErrRemoteKeyRequired
	}
	if hs.requirements&reqPSK != 0 {
		return ErrPskRequired
	}
	if hs.requirements&reqPrologue != 0 {
		hs.symmetric.MixHash(nil)
		hs.requirements &^= reqPrologue
	}

	if hs.role == Initiator {
		if flags&pattern.FlagLocalStaticPremsg != 0 {
			hs.symmetric.MixHash(hs.localStatic.PubKey().Bytes())
		}
		if flags&pattern.FlagRemoteStaticPremsg != 0 {
			hs.symmetric.MixHash(hs.remoteStatic.Bytes())
		}
		if flags&pattern.FlagRemoteEphemeralPremsg != 0 {
			hs.symmetric.MixHash(hs.remoteEphemeral.Bytes())
		}
	} else {
		if flags&pattern.FlagRemoteStaticPremsg != 0 {
			hs.symmetric.MixHash(hs.remoteStatic.Bytes())
		}
		if flags&pattern.FlagLocalStaticPremsg != 0 {
			hs.symmetric.MixHash(hs.localStatic.PubKey().Bytes())
		}
		if flags&pattern.FlagLocalEphemeralPremsg != 0 {
			hs.symmetric.MixHash(hs.localEphemeral.PubKey().Bytes())
		}
	}

	hs.cursor = 0
	if hs.role == Initiator {
		hs.action = ActionWriteMessage
	} else {
		hs.action = ActionReadMessage
	}
	return nil
}

func (hs *HandshakeState) effectiveFlags() pattern.Flag {
	if hs.role == Responder {
		return pattern.ReverseFlags(hs.pat.Flags)
	}
	return hs.pat.Flags
}

// dh performs the DH crossover table from the token loop: DHEE and DHSS
// are symmetric; DHES and DHSE depend on role, applied consistently
// regardless of which side is currently reading or writing.
func (hs *HandshakeState) dh(tok pattern.OpToken) ([]byte, error) {
	switch tok {
	case pattern.OpDHEE:
		return hs.localEphemeral.DH(hs.remoteEphemeral.Bytes())
	case pattern.OpDHSS:
		return hs.localStatic.DH(hs.remoteStatic.Bytes())
	case pattern.OpDHES:
		if hs.role == Initiator {
			return hs.localEphemeral.DH(hs.remoteStatic.Bytes())
		}
		return hs.localStatic.DH(hs.remoteEphemeral.Bytes())
	case pattern.OpDHSE:
		if hs.role == Initiator {
			return hs.localStatic.DH(hs.remoteEphemeral.Bytes())
		}
		return hs.localEphemeral.DH(hs.remoteStatic.Bytes())
	default:
		return nil, errors.Wrap(ErrInvalidParam, "not a DH token")
	}
}

// WriteMessage advances the token stream for one outgoing message, writing
// generated/static public keys and the encrypted payload into the
// returned buffer.
func (hs *HandshakeState) WriteMessage(payload []byte) ([]byte, error) {
	if hs.action != ActionWriteMessage {
		return nil, errors.Wrap(ErrInvalidState, "write_message called out of sequence")
	}

	var buf []byte
	for {
		tok := hs.pat.Tokens[hs.cursor]
		hs.cursor++

		switch tok {
		case pattern.OpE:
			e := hs.fixedEphemeral
			if e == nil {
				var err error
				e, err = hs.curve.GenerateKeyPair(nil)
				if err != nil {
					hs.action = ActionFailed
					return nil, errors.Wrap(err, "failed generating ephemeral key")
				}
			}
			hs.localEphemeral = e
			pub := e.PubKey().Bytes()
			buf = append(buf, pub...)
			hs.symmetric.MixHash(pub)
			if hs.pat.Flags&pattern.FlagPSK != 0 {
				if err := hs.symmetric.MixKey(pub); err != nil {
					hs.action = ActionFailed
					return nil, err
				}
			}

		case pattern.OpS:
			if hs.localStatic == nil {
				hs.action = ActionFailed
				return nil, ErrLocalKeyRequired
			}
			ct, err := hs.symmetric.EncryptAndHash(hs.localStatic.PubKey().Bytes())
			if err != nil {
				hs.action = ActionFailed
				return nil, err
			}
			buf = append(buf, ct...)

		case pattern.OpDHEE, pattern.OpDHES, pattern.OpDHSE, pattern.OpDHSS:
			shared, err := hs.dh(tok)
			if err != nil {
				hs.action = ActionFailed
				return nil, err
			}
			if err := hs.symmetric.MixKey(shared); err != nil {
				hs.action = ActionFailed
				return nil, err
			}

		case pattern.OpFlipDir:
			hs.action = ActionReadMessage
			goto messageComplete

		case pattern.OpEnd:
			hs.action = ActionSplit
			goto messageComplete
		}
	}

messageComplete:
	ct, err := hs.symmetric.EncryptAndHash(payload)
	if err != nil {
		hs.action = ActionFailed
		return nil, err
	}
	buf = append(buf, ct...)
	return buf, nil
}

// ReadMessage advances the token stream for one incoming message, parsing
// public keys and the encrypted payload out of message.
func (hs *HandshakeState) ReadMessage(message []byte) ([]byte, error) {
	if hs.action != ActionReadMessage {
		return nil, errors.Wrap(ErrInvalidState, "read_message called out of sequence")
	}

	pos := 0
	for {
		tok := hs.pat.Tokens[hs.cursor]
		hs.cursor++

		switch tok {
		case pattern.OpE:
			pubLen := hs.curve.Size()
			if len(message)-pos < pubLen {
				hs.action = ActionFailed
				return nil, errors.Wrap(ErrInvalidLength, "message too short for e")
			}
			raw := message[pos : pos+pubLen]
			pos += pubLen
			if dh.IsNullPublicKey(raw) {
				hs.action = ActionFailed
				return nil, ErrInvalidPublicKey
			}
			pub, err := hs.curve.LoadPublicKey(raw)
			if err != nil {
				hs.action = ActionFailed
				return nil, errors.Wrap(err, "invalid remote ephemeral key")
			}
			hs.remoteEphemeral = pub
			hs.symmetric.MixHash(raw)
			if hs.pat.Flags&pattern.FlagPSK != 0 {
				if err := hs.symmetric.MixKey(raw); err != nil {
					hs.action = ActionFailed
					return nil, err
				}
			}

		case pattern.OpS:
			pubLen := hs.curve.Size()
			want := pubLen
			if hs.symmetric.HasKey() {
				want += cipher.ADSize
			}
			if len(message)-pos < want {
				hs.action = ActionFailed
				return nil, errors.Wrap(ErrInvalidLength, "message too short for s")
			}
			ct := message[pos : pos+want]
			pos += want
			raw, err := hs.symmetric.DecryptAndHash(ct)
			if err != nil {
				hs.action = ActionFailed
				return nil, err
			}
			pub, err := hs.curve.LoadPublicKey(raw)
			if err != nil {
				hs.action = ActionFailed
				return nil, errors.Wrap(err, "invalid remote static key")
			}
			hs.remoteStatic = pub

		case pattern.OpDHEE, pattern.OpDHES, pattern.OpDHSE, pattern.OpDHSS:
			shared, err := hs.dh(tok)
			if err != nil {
				hs.action = ActionFailed
				return nil, err
			}
			if err := hs.symmetric.MixKey(shared); err != nil {
				hs.action = ActionFailed
				return nil, err
			}

		case pattern.OpFlipDir:
			hs.action = ActionWriteMessage
			goto messageComplete

		case pattern.OpEnd:
			hs.action = ActionSplit
			goto messageComplete
		}
	}

messageComplete:
	payload, err := hs.symmetric.DecryptAndHash(message[pos:])
	if err != nil {
		hs.action = ActionFailed
		return nil, err
	}
	return payload, nil
}

// Fallback converts a failed (or in-flight) IK session into an XXfallback
// session with reversed roles, per Noise Pipes. See section 4.1 of the
// noise specs and DESIGN.md for the token-crossover derivation.
func (hs *HandshakeState) Fallback() error {
	if hs.pat.Name != "IK" {
		return errors.Wrap(ErrNotApplicable, "fallback is only defined from IK")
	}

	switch hs.role {
	case Initiator:
		if hs.action != ActionFailed && hs.action != ActionReadMessage {
			return errors.Wrap(ErrInvalidState, "fallback not eligible from current action")
		}
		if hs.localEphemeral == nil {
			return errors.Wrap(ErrInvalidState, "fallback requires a sent local ephemeral")
		}
		hs.role = Responder
		hs.remoteEphemeral = nil
	case Responder:
		if hs.action != ActionFailed && hs.action != ActionWriteMessage {
			return errors.Wrap(ErrInvalidState, "fallback not eligible from current action")
		}
		if hs.remoteEphemeral == nil {
			return errors.Wrap(ErrInvalidState, "fallback requires a received remote ephemeral")
		}
		hs.role = Initiator
		hs.localEphemeral = nil
	}
	hs.remoteStatic = nil

	fallbackPattern, err := pattern.FromString("XXfallback")
	if err != nil {
		return err
	}
	hs.pat = fallbackPattern
	hs.cursor = 0
	hs.requirements = deriveRequirements(hs.effectiveFlags())

	name, err := buildProtocolName(hs.pat.Name, hs.curveName, hs.cipherName, hs.hashName)
	if err != nil {
		return err
	}
	hs.symmetric.InitializeSymmetric(name)
	if err := hs.symmetric.ResetCipher(); err != nil {
		return err
	}

	hs.action = ActionNone
	return nil
}

// Split terminates the handshake, deriving two transport CipherStates.
// Send and recv are returned from the caller's own point of view: the
// responder's pair is swapped relative to SymmetricState.Split's raw
// (first, second) order.
func (hs *HandshakeState) Split() (send, recv *CipherState, err error) {
	return hs.SplitWithKey(nil)
}

// SplitWithKey is Split, optionally folding a secondary key (0 or 32
// bytes) into the key derivation first.
func (hs *HandshakeState) SplitWithKey(secondaryKey []byte) (send, recv *CipherState, err error) {
	if hs.action != ActionSplit {
		return nil, nil, errors.Wrap(ErrInvalidState, "split called before the handshake completed")
	}
	c1, c2, err := hs.symmetric.Split(secondaryKey)
	if err != nil {
		return nil, nil, err
	}
	hs.action = ActionDone
	if hs.role == Initiator {
		return c1, c2, nil
	}
	return c2, c1, nil
}

// GetHandshakeHash returns the transcript hash h.
func (hs *HandshakeState) GetHandshakeHash() []byte {
	return hs.symmetric.GetHandshakeHash()
}

package pattern

import "strings"

// OpToken is the compiled, single-byte representation of a handshake
// pattern step, as opposed to Token, which is the human-readable grammar
// used to validate and describe a pattern in the "e, s, ee, ->" notation.
// HandshakeState drives its token loop off OpToken, never off Token.
type OpToken byte

const (
	// OpE generates or reads an ephemeral public key.
	OpE OpToken = iota
	// OpS sends or reads a static public key, encrypted when the cipher is keyed.
	OpS
	// OpDHEE mixes DH(local_ephemeral, remote_ephemeral).
	OpDHEE
	// OpDHES mixes DH crossed over between local/remote ephemeral/static,
	// see the table in HandshakeState's token loop.
	OpDHES
	// OpDHSE is the mirror of OpDHES.
	OpDHSE
	// OpDHSS mixes DH(local_static, remote_static).
	OpDHSS
	// OpFlipDir switches the direction of the next message.
	OpFlipDir
	// OpEnd marks the end of the handshake phase.
	OpEnd
)

// HandshakePattern is the compiled representation of a named pattern: its
// requirement flags plus the flat token stream, read until OpFlipDir or
// OpEnd, mirroring the noise specs' "flags byte followed by a sequence of
// single-byte tokens" data model.
type HandshakePattern struct {
	Name   string
	Flags  Flag
	Tokens []OpToken

	// No psk token positions are recorded. The psk0..pskN modifiers
	// accepted by FromString only set FlagPSK, and the pre-shared key is
	// mixed as a single pre-start SymmetricState operation; see DESIGN.md.
}

var patterns = map[string]*HandshakePattern{}

func register(p *HandshakePattern) {
	patterns[p.Name] = p
}

// FromString looks up a pattern by its protocol-name component, e.g. "XX"
// or "NNpsk0". Any trailing "pskN" suffix is stripped before the table
// lookup and sets FlagPSK on a copy of the matched pattern, so the table
// itself only needs to carry the un-modified base patterns.
func FromString(s string) (*HandshakePattern, error) {
	base := s
	psk := false
	if idx := strings.Index(s, "psk"); idx >= 0 {
		base = s[:idx]
		psk = true
	}

	p, ok := patterns[base]
	if !ok {
		return nil, errUnknownPattern(s)
	}
	if !psk {
		return p, nil
	}

	clone := *p
	clone.Name = s
	clone.Flags |= FlagPSK
	return &clone, nil
}

// SupportedPatterns gives the names of all the base patterns registered.
func SupportedPatterns() string {
	keys := make([]string, 0, len(patterns))
	for k := range patterns {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}

func errUnknownPattern(s string) error {
	return &unknownPatternError{s}
}

type unknownPatternError struct{ name string }

func (e *unknownPatternError) Error() string {
	return "pattern '" + e.name + "' is not supported"
}

func init() {
	// One-way patterns.
	register(&HandshakePattern{
		Name:  "N",
		Flags: FlagRemoteStatic | FlagRemoteStaticPremsg | FlagOneWay,
		Tokens: []OpToken{
			OpE, OpDHES,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "K",
		Flags: FlagLocalStatic | FlagLocalStaticPremsg | FlagRemoteStatic | FlagRemoteStaticPremsg | FlagOneWay,
		Tokens: []OpToken{
			OpE, OpDHES, OpDHSS,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "X",
		Flags: FlagLocalStatic | FlagRemoteStatic | FlagRemoteStaticPremsg | FlagOneWay,
		Tokens: []OpToken{
			OpE, OpDHES, OpS, OpDHSS,
			OpEnd,
		},
	})

	// Interactive, 2-message patterns.
	register(&HandshakePattern{
		Name: "NN",
		Tokens: []OpToken{
			OpE,
			OpFlipDir,
			OpE, OpDHEE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "KN",
		Flags: FlagLocalStatic | FlagLocalStaticPremsg,
		Tokens: []OpToken{
			OpE,
			OpFlipDir,
			OpE, OpDHEE, OpDHSE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "NK",
		Flags: FlagRemoteStatic | FlagRemoteStaticPremsg,
		Tokens: []OpToken{
			OpE, OpDHES,
			OpFlipDir,
			OpE, OpDHEE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name: "KK",
		Flags: FlagLocalStatic | FlagLocalStaticPremsg |
			FlagRemoteStatic | FlagRemoteStaticPremsg,
		Tokens: []OpToken{
			OpE, OpDHES, OpDHSS,
			OpFlipDir,
			OpE, OpDHEE, OpDHSE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "NX",
		Flags: FlagRemoteStatic,
		Tokens: []OpToken{
			OpE,
			OpFlipDir,
			OpE, OpDHEE, OpS, OpDHES,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "KX",
		Flags: FlagLocalStatic | FlagLocalStaticPremsg | FlagRemoteStatic,
		Tokens: []OpToken{
			OpE,
			OpFlipDir,
			OpE, OpDHEE, OpDHSE, OpS, OpDHES,
			OpEnd,
		},
	})

	// Interactive, 3-message patterns.
	register(&HandshakePattern{
		Name:  "XN",
		Flags: FlagLocalStatic,
		Tokens: []OpToken{
			OpE,
			OpFlipDir,
			OpE, OpDHEE,
			OpFlipDir,
			OpS, OpDHSE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "XK",
		Flags: FlagLocalStatic | FlagRemoteStatic | FlagRemoteStaticPremsg,
		Tokens: []OpToken{
			OpE, OpDHES,
			OpFlipDir,
			OpE, OpDHEE,
			OpFlipDir,
			OpS, OpDHSE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "XX",
		Flags: FlagLocalStatic | FlagRemoteStatic,
		Tokens: []OpToken{
			OpE,
			OpFlipDir,
			OpE, OpDHEE, OpS, OpDHES,
			OpFlipDir,
			OpS, OpDHSE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "IN",
		Flags: FlagLocalStatic,
		Tokens: []OpToken{
			OpE, OpS,
			OpFlipDir,
			OpE, OpDHEE, OpDHSE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "IK",
		Flags: FlagLocalStatic | FlagRemoteStatic | FlagRemoteStaticPremsg,
		Tokens: []OpToken{
			OpE, OpDHES, OpS, OpDHSS,
			OpFlipDir,
			OpE, OpDHEE, OpDHSE,
			OpEnd,
		},
	})
	register(&HandshakePattern{
		Name:  "IX",
		Flags: FlagLocalStatic | FlagRemoteStatic,
		Tokens: []OpToken{
			OpE, OpS,
			OpFlipDir,
			OpE, OpDHEE, OpDHSE, OpS, OpDHES,
			OpEnd,
		},
	})

	// Noise Pipes recovery pattern. See DESIGN.md for the derivation of
	// this token sequence: the DHSE/DHES assignment below is the one that
	// keeps both parties' shared secrets consistent once role is swapped
	// by HandshakeState.Fallback, given the remote ephemeral pre-message.
	register(&HandshakePattern{
		Name:  "XXfallback",
		Flags: FlagLocalStatic | FlagRemoteStatic | FlagRemoteEphemeralPremsg,
		Tokens: []OpToken{
			OpE, OpDHEE, OpS, OpDHSE,
			OpFlipDir,
			OpS, OpDHES,
			OpEnd,
		},
	})
}

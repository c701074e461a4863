package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// tableCase cross-checks a registered HandshakePattern's compiled Tokens
// and Flags against the human-readable "e, s, ee" grammar tokenize and
// validatePattern/validatePrePattern already know how to parse, so the
// hand-authored table in table.go never silently drifts from the grammar
// every pattern is normally described in.
type tableCase struct {
	name    string
	pre     string // pre-message block, "" if none
	message string // interactive message block
}

var tableCases = []tableCase{
	{name: "N", pre: "<- s", message: "-> e, es"},
	{name: "K", pre: "-> s\n<- s", message: "-> e, es, ss"},
	{name: "X", pre: "<- s", message: "-> e, es, s, ss"},

	{name: "NN", message: "-> e\n<- e, ee"},
	{name: "KN", pre: "-> s", message: "-> e\n<- e, ee, se"},
	{name: "NK", pre: "<- s", message: "-> e, es\n<- e, ee"},
	{name: "KK", pre: "-> s\n<- s", message: "-> e, es, ss\n<- e, ee, se"},
	{name: "NX", message: "-> e\n<- e, ee, s, es"},
	{name: "KX", pre: "-> s", message: "-> e\n<- e, ee, se, s, es"},

	{name: "XN", message: "-> e\n<- e, ee\n-> s, se"},
	{name: "XK", pre: "<- s", message: "-> e, es\n<- e, ee\n-> s, se"},
	{name: "XX", message: "-> e\n<- e, ee, s, es\n-> s, se"},
	{name: "IN", message: "-> e, s\n<- e, ee, se"},
	{name: "IK", pre: "<- s", message: "-> e, es, s, ss\n<- e, ee, se"},
	{name: "IX", message: "-> e, s\n<- e, ee, se, s, es"},
}

var tokenToOp = map[Token]OpToken{
	TokenE:  OpE,
	TokenS:  OpS,
	TokenEe: OpDHEE,
	TokenEs: OpDHES,
	TokenSe: OpDHSE,
	TokenSs: OpDHSS,
}

// premsgFlag reports the premessage flag a "-> tok" / "<- tok" line
// contributes, read from the initiator's point of view - the same frame
// table.go's base Flags are written in, before HandshakeState applies
// ReverseFlags for a responder.
func premsgFlag(dir, tok Token) Flag {
	fromInitiator := dir == TokenInitiator
	switch tok {
	case TokenS:
		if fromInitiator {
			return FlagLocalStaticPremsg
		}
		return FlagRemoteStaticPremsg
	case TokenE:
		if fromInitiator {
			return FlagLocalEphemeralPremsg
		}
		return FlagRemoteEphemeralPremsg
	default:
		return 0
	}
}

func compileExpected(t *testing.T, pre, message string) ([]OpToken, Flag) {
	t.Helper()

	var flags Flag
	if pre != "" {
		prePattern, err := tokenize(pre, true)
		require.NoError(t, err)
		for _, line := range prePattern {
			dir := line[0]
			for _, tok := range line[1:] {
				flags |= premsgFlag(dir, tok)
			}
		}
	}

	msgPattern, err := tokenize(message, false)
	require.NoError(t, err)

	var tokens []OpToken
	for i, line := range msgPattern {
		if i > 0 {
			tokens = append(tokens, OpFlipDir)
		}
		for _, tok := range line[1:] {
			op, ok := tokenToOp[tok]
			require.Truef(t, ok, "unexpected token %s", tok)
			tokens = append(tokens, op)
		}
	}
	tokens = append(tokens, OpEnd)
	return tokens, flags
}

func TestTableMatchesGrammar(t *testing.T) {
	for _, tc := range tableCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			p, ok := patterns[tc.name]
			require.True(t, ok, "pattern %s not registered", tc.name)

			wantTokens, wantPremsgFlags := compileExpected(t, tc.pre, tc.message)
			require.Equal(t, wantTokens, p.Tokens)

			// Premessage flags are a strict subset of the registered flags:
			// table.go also sets FlagLocalStatic/FlagRemoteStatic/FlagOneWay,
			// which the grammar snippets above don't encode.
			require.Equal(t, wantPremsgFlags, p.Flags&wantPremsgFlags)
		})
	}
}

func TestFromStringStripsPskSuffix(t *testing.T) {
	p, err := FromString("XXpsk0")
	require.NoError(t, err)
	require.Equal(t, "XXpsk0", p.Name)
	require.NotZero(t, p.Flags&FlagPSK)

	base, err := FromString("XX")
	require.NoError(t, err)
	require.Zero(t, base.Flags&FlagPSK)
}

func TestFromStringUnknownPattern(t *testing.T) {
	_, err := FromString("bogus")
	require.Error(t, err)
}

func TestReverseFlagsSwapsLocalAndRemote(t *testing.T) {
	f := FlagLocalStatic | FlagRemoteStaticPremsg | FlagPSK
	r := ReverseFlags(f)
	require.NotZero(t, r&FlagRemoteStatic)
	require.NotZero(t, r&FlagLocalStaticPremsg)
	require.NotZero(t, r&FlagPSK)
	require.Equal(t, f, ReverseFlags(r))
}

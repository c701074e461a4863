package pattern

// Flag is a bitset describing the pre-message and static-key requirements
// of a handshake pattern, from the local party's point of view.
type Flag uint16

const (
	// FlagLocalStatic is set when the pattern uses the local static key at
	// some point during the handshake (as a pre-message or mid-stream).
	FlagLocalStatic Flag = 1 << iota

	// FlagRemoteStatic is set when the pattern uses the remote static key.
	FlagRemoteStatic

	// FlagLocalStaticPremsg is set when the local static key must be known
	// to the peer before start() is called.
	FlagLocalStaticPremsg

	// FlagRemoteStaticPremsg is set when the remote static key must be
	// known locally before start() is called.
	FlagRemoteStaticPremsg

	// FlagLocalEphemeralPremsg is set on a fallback pattern when the local
	// ephemeral key was already transmitted during the handshake attempt
	// that is being recovered from.
	FlagLocalEphemeralPremsg

	// FlagRemoteEphemeralPremsg is set on a fallback pattern when the
	// remote ephemeral key was already received during the handshake
	// attempt that is being recovered from.
	FlagRemoteEphemeralPremsg

	// FlagPSK is set when the protocol name carries a "psk" modifier.
	FlagPSK

	// FlagOneWay is set for N, K and X: patterns with a single message and
	// no responder reply.
	FlagOneWay
)

// ReverseFlags swaps every local/remote bit pair, producing the flags as
// seen from the other party. PSK and OneWay are symmetric and pass
// through unchanged.
func ReverseFlags(f Flag) Flag {
	var out Flag
	if f&FlagLocalStatic != 0 {
		out |= FlagRemoteStatic
	}
	if f&FlagRemoteStatic != 0 {
		out |= FlagLocalStatic
	}
	if f&FlagLocalStaticPremsg != 0 {
		out |= FlagRemoteStaticPremsg
	}
	if f&FlagRemoteStaticPremsg != 0 {
		out |= FlagLocalStaticPremsg
	}
	if f&FlagLocalEphemeralPremsg != 0 {
		out |= FlagRemoteEphemeralPremsg
	}
	if f&FlagRemoteEphemeralPremsg != 0 {
		out |= FlagLocalEphemeralPremsg
	}
	out |= f & (FlagPSK | FlagOneWay)
	return out
}

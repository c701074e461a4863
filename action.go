package noise

// Role identifies which side of the handshake a HandshakeState plays.
type Role uint8

const (
	// Responder is the party that reacts to the initiator's first message.
	Responder Role = iota
	// Initiator is the party that sends the first message.
	Initiator
)

func (r Role) String() string {
	if r == Initiator {
		return "initiator"
	}
	return "responder"
}

// Action reports what a HandshakeState expects to happen next.
type Action uint8

const (
	// ActionNone means Start has not yet been called.
	ActionNone Action = iota
	// ActionWriteMessage means the caller should call WriteMessage next.
	ActionWriteMessage
	// ActionReadMessage means the caller should call ReadMessage next.
	ActionReadMessage
	// ActionFailed means the last WriteMessage/ReadMessage failed; only
	// Fallback (when eligible) can recover from this state.
	ActionFailed
	// ActionSplit means the token stream reached its End and Split may be
	// called.
	ActionSplit
	// ActionDone means Split has already been called; every handshake
	// operation is now terminal.
	ActionDone
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionWriteMessage:
		return "write_message"
	case ActionReadMessage:
		return "read_message"
	case ActionFailed:
		return "failed"
	case ActionSplit:
		return "split"
	case ActionDone:
		return "done"
	default:
		return "unknown"
	}
}

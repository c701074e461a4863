package noise

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/crypto-y/noisecore/cipher"
	"github.com/crypto-y/noisecore/dh"
)

// runHandshake drives initiator and responder to completion, returning
// their respective (send, recv) transport CipherStates.
func runHandshake(t *testing.T, initiator, responder *HandshakeState, payloads [][2][]byte) (iSend, iRecv, rSend, rRecv *CipherState) {
	t.Helper()
	require.NoError(t, initiator.Start())
	require.NoError(t, responder.Start())

	for _, pair := range payloads {
		switch initiator.GetAction() {
		case ActionWriteMessage:
			msg, err := initiator.WriteMessage(pair[0])
			require.NoError(t, err)
			_, err = responder.ReadMessage(msg)
			require.NoError(t, err)
		case ActionReadMessage:
			msg, err := responder.WriteMessage(pair[1])
			require.NoError(t, err)
			_, err = initiator.ReadMessage(msg)
			require.NoError(t, err)
		default:
			t.Fatalf("unexpected action %s", initiator.GetAction())
		}
	}

	require.Equal(t, ActionSplit, initiator.GetAction())
	require.Equal(t, ActionSplit, responder.GetAction())

	iSend, iRecv, err := initiator.Split()
	require.NoError(t, err)
	rSend, rRecv, err = responder.Split()
	require.NoError(t, err)
	return iSend, iRecv, rSend, rRecv
}

func TestNNHandshakeSymmetryAndSplit(t *testing.T) {
	initiator, err := NewProtocol("Noise_NN_25519_ChaChaPoly_BLAKE2s", "", true)
	require.NoError(t, err)
	responder, err := NewProtocol("Noise_NN_25519_ChaChaPoly_BLAKE2s", "", false)
	require.NoError(t, err)

	iSend, iRecv, rSend, rRecv := runHandshake(t, initiator, responder, [][2][]byte{
		{[]byte("hello"), nil},
		{nil, []byte("world")},
	})

	require.Equal(t, initiator.GetHandshakeHash(), responder.GetHandshakeHash())

	ct, err := iSend.EncryptWithAd(nil, []byte("ping"))
	require.NoError(t, err)
	pt, err := rRecv.DecryptWithAd(nil, ct)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), pt)

	ct, err = rSend.EncryptWithAd(nil, []byte("pong"))
	require.NoError(t, err)
	pt, err = iRecv.DecryptWithAd(nil, ct)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), pt)
}

func TestXXHandshakeWithPayloadsAndTransport(t *testing.T) {
	initiator, err := NewProtocol("Noise_XX_25519_AESGCM_SHA256", "", true)
	require.NoError(t, err)
	responder, err := NewProtocol("Noise_XX_25519_AESGCM_SHA256", "", false)
	require.NoError(t, err)

	require.NoError(t, initiator.Start())
	require.NoError(t, responder.Start())

	msg1, err := initiator.WriteMessage([]byte("hello"))
	require.NoError(t, err)
	payload1, err := responder.ReadMessage(msg1)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), payload1)

	msg2, err := responder.WriteMessage([]byte("world"))
	require.NoError(t, err)
	payload2, err := initiator.ReadMessage(msg2)
	require.NoError(t, err)
	require.Equal(t, []byte("world"), payload2)

	msg3, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	_, err = responder.ReadMessage(msg3)
	require.NoError(t, err)

	iSend, iRecv, err := initiator.Split()
	require.NoError(t, err)
	rSend, rRecv, err := responder.Split()
	require.NoError(t, err)

	ct, err := iSend.EncryptWithAd(nil, []byte("ping"))
	require.NoError(t, err)
	pt, err := rRecv.DecryptWithAd(nil, ct)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), pt)

	ct, err = rSend.EncryptWithAd(nil, []byte("pong"))
	require.NoError(t, err)
	pt, err = iRecv.DecryptWithAd(nil, ct)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), pt)
}

func TestHandshakeHashIdenticalAfterSplit(t *testing.T) {
	initiator, err := NewProtocol("Noise_NN_448_AESGCM_SHA512", "", true)
	require.NoError(t, err)
	responder, err := NewProtocol("Noise_NN_448_AESGCM_SHA512", "", false)
	require.NoError(t, err)

	runHandshake(t, initiator, responder, [][2][]byte{
		{nil, nil},
		{nil, nil},
	})
	require.Equal(t, initiator.GetHandshakeHash(), responder.GetHandshakeHash())
}

func TestNullRemoteEphemeralRejected(t *testing.T) {
	initiator, err := NewProtocol("Noise_NN_25519_ChaChaPoly_SHA256", "", true)
	require.NoError(t, err)
	responder, err := NewProtocol("Noise_NN_25519_ChaChaPoly_SHA256", "", false)
	require.NoError(t, err)
	require.NoError(t, initiator.Start())
	require.NoError(t, responder.Start())

	curve := dh.FromString("25519")
	zeroEphemeral := make([]byte, curve.Size())

	_, err = responder.ReadMessage(zeroEphemeral)
	require.True(t, errors.Is(err, ErrInvalidPublicKey))
}

func TestMacFailureOnBitFlip(t *testing.T) {
	initiator, err := NewProtocol("Noise_XX_25519_ChaChaPoly_SHA256", "", true)
	require.NoError(t, err)
	responder, err := NewProtocol("Noise_XX_25519_ChaChaPoly_SHA256", "", false)
	require.NoError(t, err)
	require.NoError(t, initiator.Start())
	require.NoError(t, responder.Start())

	msg1, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	_, err = responder.ReadMessage(msg1)
	require.NoError(t, err)

	msg2, err := responder.WriteMessage(nil)
	require.NoError(t, err)
	_, err = initiator.ReadMessage(msg2)
	require.NoError(t, err)

	msg3, err := initiator.WriteMessage([]byte("secret"))
	require.NoError(t, err)
	msg3[len(msg3)-1] ^= 0x01

	_, err = responder.ReadMessage(msg3)
	require.True(t, errors.Is(err, ErrMacFailure))
}

func TestPskRequiredBeforeStart(t *testing.T) {
	_, err := NewProtocol("Noise_NNpsk0_25519_ChaChaPoly_SHA256", "", true)
	// NewProtocol's default config never supplies a PSK, so construction
	// itself succeeds (the requirement is only checked at Start).
	require.NoError(t, err)

	hs, err := NewProtocol("Noise_NNpsk0_25519_ChaChaPoly_SHA256", "", true)
	require.NoError(t, err)
	err = hs.Start()
	require.True(t, errors.Is(err, ErrPskRequired))
}

func TestPskPathMatchesMixKeyAndHashEquivalence(t *testing.T) {
	psk := make([]byte, cipher.KeySize)
	for i := range psk {
		psk[i] = byte(i + 1)
	}

	config := &ProtocolConfig{
		Name:        "Noise_NNpsk0_25519_ChaChaPoly_SHA256",
		Initiator:   true,
		Psk:         psk,
		autoPadding: true,
	}
	hs, err := NewProtocolWithConfig(config)
	require.NoError(t, err)
	require.NoError(t, hs.Start())

	// A freshly constructed symmetric state mixing the same psk via
	// MixKeyAndHash directly must reach the same ck and h - HKDF3's first
	// two outputs are HKDF2's, so the two paths differ only in the cipher
	// key MixKeyAndHash also installs (see property 7).
	ss, err := newSymmetricState("ChaChaPoly", hs.symmetric.hashEngine, nil)
	require.NoError(t, err)
	ss.InitializeSymmetric([]byte("Noise_NNpsk0_25519_ChaChaPoly_SHA256"))
	ss.MixHash(nil)
	require.NoError(t, ss.MixKeyAndHash(psk))

	require.Equal(t, hs.symmetric.ck, ss.ck)
	require.Equal(t, hs.symmetric.h, ss.h)
}

// TestPskHandshakeMixesEphemeralIntoKey independently replays the single
// "e" token of an NNpsk0 first message, plus its empty payload, against a
// bare SymmetricState and checks it against the live HandshakeState's
// (ck, h) right after that first message is written. Unlike TestPskPathMatchesMixKeyAndHashEquivalence,
// which only checks state before Start processes any token, this exercises
// the token loop itself: a PSK pattern's "e" token must mix_hash AND
// mix_key the ephemeral, not just mix_hash it, and comparing two
// independently constructed peers against each other would not catch a
// bug that both peers share identically.
func TestPskHandshakeMixesEphemeralIntoKey(t *testing.T) {
	psk := make([]byte, cipher.KeySize)
	for i := range psk {
		psk[i] = byte(i + 1)
	}
	name := "Noise_NNpsk0_25519_ChaChaPoly_SHA256"

	hs, err := NewProtocolWithConfig(&ProtocolConfig{
		Name:        name,
		Initiator:   true,
		Psk:         psk,
		autoPadding: true,
	})
	require.NoError(t, err)
	require.NoError(t, hs.Start())

	msg1, err := hs.WriteMessage(nil)
	require.NoError(t, err)

	ephemeral := msg1[:hs.DHLen()]

	ref, err := newSymmetricState("ChaChaPoly", hs.symmetric.hashEngine, nil)
	require.NoError(t, err)
	ref.InitializeSymmetric([]byte(name))
	ref.MixHash(nil)
	ref.MixPreSharedKey(psk)
	ref.MixHash(ephemeral)
	require.NoError(t, ref.MixKey(ephemeral))
	_, err = ref.EncryptAndHash(nil)
	require.NoError(t, err)

	require.Equal(t, ref.ck, hs.symmetric.ck)
	require.Equal(t, ref.h, hs.symmetric.h)
}

// TestFixedEphemeralNNHandshakeIsBitExactlyReproducible exercises property
// 3: pinning identical ephemeral keys on both sides of the same pattern,
// keys and payloads must reproduce byte-identical messages and a
// byte-identical final h across independent runs. The official Noise
// vectors pin concrete ephemerals for exactly this reason; no vector
// fixture ships in the retrieved pack (see DESIGN.md), so this asserts the
// reproducibility property directly by running the NN/25519/ChaChaPoly/
// BLAKE2s handshake twice from scratch with the same fixed ephemerals.
func TestFixedEphemeralNNHandshakeIsBitExactlyReproducible(t *testing.T) {
	curve := dh.FromString("25519")
	name := "Noise_NN_25519_ChaChaPoly_BLAKE2s"

	initEphemeralSeed := make([]byte, curve.Size())
	respEphemeralSeed := make([]byte, curve.Size())
	for i := range initEphemeralSeed {
		initEphemeralSeed[i] = byte(i + 1)
		respEphemeralSeed[i] = byte(i + 101)
	}

	run := func() (msg1, msg2, h []byte) {
		initiator, err := NewProtocol(name, "", true)
		require.NoError(t, err)
		responder, err := NewProtocol(name, "", false)
		require.NoError(t, err)

		initEphemeral, err := curve.LoadPrivateKey(initEphemeralSeed)
		require.NoError(t, err)
		respEphemeral, err := curve.LoadPrivateKey(respEphemeralSeed)
		require.NoError(t, err)
		initiator.SetFixedEphemeralKeypair(initEphemeral)
		responder.SetFixedEphemeralKeypair(respEphemeral)

		require.NoError(t, initiator.Start())
		require.NoError(t, responder.Start())

		msg1, err = initiator.WriteMessage(nil)
		require.NoError(t, err)
		_, err = responder.ReadMessage(msg1)
		require.NoError(t, err)

		msg2, err = responder.WriteMessage(nil)
		require.NoError(t, err)
		_, err = initiator.ReadMessage(msg2)
		require.NoError(t, err)

		require.Equal(t, initiator.GetHandshakeHash(), responder.GetHandshakeHash())
		return msg1, msg2, initiator.GetHandshakeHash()
	}

	msg1a, msg2a, ha := run()
	msg1b, msg2b, hb := run()

	require.Equal(t, msg1a, msg1b)
	require.Equal(t, msg2a, msg2b)
	require.Equal(t, ha, hb)
}

func TestIKMismatchFallsBackToXX(t *testing.T) {
	curve := dh.FromString("25519")

	responderReal, err := curve.GenerateKeyPair(nil)
	require.NoError(t, err)
	responderWrong, err := curve.GenerateKeyPair(nil)
	require.NoError(t, err)

	initiatorConfig := &ProtocolConfig{
		Name:            "Noise_IK_25519_AESGCM_SHA256",
		Initiator:       true,
		RemoteStaticPub: responderWrong.PubKey().Bytes(), // initiator has the wrong key
		autoPadding:     true,
	}
	initiator, err := NewProtocolWithConfig(initiatorConfig)
	require.NoError(t, err)

	responderConfig := &ProtocolConfig{
		Name:            "Noise_IK_25519_AESGCM_SHA256",
		Initiator:       false,
		LocalStaticPriv: responderReal.Bytes(),
		autoPadding:     true,
	}
	responder, err := NewProtocolWithConfig(responderConfig)
	require.NoError(t, err)

	require.NoError(t, initiator.Start())
	require.NoError(t, responder.Start())

	msg1, err := initiator.WriteMessage([]byte("hello"))
	require.NoError(t, err)

	_, err = responder.ReadMessage(msg1)
	require.Error(t, err)
	require.Equal(t, ActionFailed, responder.GetAction())

	// The initiator never learns the read failed until its own next
	// operation; in IK it is still sitting on ActionReadMessage, waiting
	// for message 2, so it too is fallback-eligible.
	require.Equal(t, ActionReadMessage, initiator.GetAction())

	require.NoError(t, responder.Fallback())
	require.Equal(t, "XXfallback", responder.pat.Name)
	require.Equal(t, Initiator, responder.GetRole())

	require.NoError(t, initiator.Fallback())
	require.Equal(t, "XXfallback", initiator.pat.Name)
	require.Equal(t, Responder, initiator.GetRole())

	// initiator is now the XXfallback responder and responder is now the
	// XXfallback initiator; drive the recovered handshake to completion.
	xxInitiator, xxResponder := responder, initiator

	require.NoError(t, xxInitiator.Start())
	require.NoError(t, xxResponder.Start())

	msg2, err := xxInitiator.WriteMessage([]byte("hello again"))
	require.NoError(t, err)
	payload2, err := xxResponder.ReadMessage(msg2)
	require.NoError(t, err)
	require.Equal(t, []byte("hello again"), payload2)

	msg3, err := xxResponder.WriteMessage([]byte("world"))
	require.NoError(t, err)
	payload3, err := xxInitiator.ReadMessage(msg3)
	require.NoError(t, err)
	require.Equal(t, []byte("world"), payload3)

	require.Equal(t, ActionSplit, xxInitiator.GetAction())
	require.Equal(t, ActionSplit, xxResponder.GetAction())

	iSend, iRecv, err := xxInitiator.Split()
	require.NoError(t, err)
	rSend, rRecv, err := xxResponder.Split()
	require.NoError(t, err)

	ct, err := iSend.EncryptWithAd(nil, []byte("ping"))
	require.NoError(t, err)
	pt, err := rRecv.DecryptWithAd(nil, ct)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), pt)

	ct, err = rSend.EncryptWithAd(nil, []byte("pong"))
	require.NoError(t, err)
	pt, err = iRecv.DecryptWithAd(nil, ct)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), pt)
}

func TestNonceExhaustionRefusesFurtherEncrypt(t *testing.T) {
	engine := cipher.FromString("ChaChaPoly")
	cs := newCipherState(engine, nil)
	var key [cipher.KeySize]byte
	require.NoError(t, cs.InitializeKey(key))
	cs.n = cipher.MaxNonce

	_, err := cs.EncryptWithAd(nil, []byte("x"))
	require.True(t, errors.Is(err, ErrNonceOverflow) || errors.Is(err, cipher.ErrNonceOverflow))
}

func TestTruncatedReadYieldsInvalidLength(t *testing.T) {
	initiator, err := NewProtocol("Noise_XX_25519_AESGCM_SHA256", "", true)
	require.NoError(t, err)
	responder, err := NewProtocol("Noise_XX_25519_AESGCM_SHA256", "", false)
	require.NoError(t, err)
	require.NoError(t, initiator.Start())
	require.NoError(t, responder.Start())

	msg1, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	truncated := msg1[:len(msg1)-1]

	hBefore := append([]byte(nil), responder.symmetric.h...)
	_, err = responder.ReadMessage(truncated)
	require.True(t, errors.Is(err, ErrInvalidLength))
	require.Equal(t, ActionFailed, responder.GetAction())
	require.Equal(t, hBefore, responder.symmetric.h)
}

func TestTerminationAfterSplit(t *testing.T) {
	initiator, err := NewProtocol("Noise_NN_25519_ChaChaPoly_SHA256", "", true)
	require.NoError(t, err)
	responder, err := NewProtocol("Noise_NN_25519_ChaChaPoly_SHA256", "", false)
	require.NoError(t, err)

	runHandshake(t, initiator, responder, [][2][]byte{
		{nil, nil},
		{nil, nil},
	})

	_, _, err = initiator.Split()
	require.True(t, errors.Is(err, ErrInvalidState))

	_, err = initiator.WriteMessage(nil)
	require.True(t, errors.Is(err, ErrInvalidState))

	_, err = initiator.ReadMessage(nil)
	require.True(t, errors.Is(err, ErrInvalidState))
}

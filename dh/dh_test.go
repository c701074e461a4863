package dh

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurvesAgreeOnSharedSecret(t *testing.T) {
	for _, name := range []string{"25519", "448"} {
		name := name
		t.Run(name, func(t *testing.T) {
			curve := FromString(name)
			require.NotNil(t, curve)

			alice, err := curve.GenerateKeyPair(nil)
			require.NoError(t, err)
			bob, err := curve.GenerateKeyPair(nil)
			require.NoError(t, err)

			require.Equal(t, curve.Size(), len(alice.PubKey().Bytes()))

			s1, err := alice.DH(bob.PubKey().Bytes())
			require.NoError(t, err)
			s2, err := bob.DH(alice.PubKey().Bytes())
			require.NoError(t, err)
			require.Equal(t, s1, s2)
		})
	}
}

func TestSecp256k1AgreesOnSharedSecret(t *testing.T) {
	curve := FromString("secp256k1")
	require.NotNil(t, curve)

	alice, err := curve.GenerateKeyPair(nil)
	require.NoError(t, err)
	bob, err := curve.GenerateKeyPair(nil)
	require.NoError(t, err)

	require.Equal(t, curve.Size(), len(alice.PubKey().Bytes()))

	s1, err := alice.DH(bob.PubKey().Bytes())
	require.NoError(t, err)
	s2, err := bob.DH(alice.PubKey().Bytes())
	require.NoError(t, err)
	require.Equal(t, s1, s2)

	loaded, err := curve.LoadPublicKey(alice.PubKey().Bytes())
	require.NoError(t, err)
	require.Equal(t, alice.PubKey().Bytes(), loaded.Bytes())
}

func TestLoadPrivateKeyIsDeterministic(t *testing.T) {
	curve := FromString("25519")
	seed := make([]byte, curve.Size())
	for i := range seed {
		seed[i] = byte(i)
	}

	p1, err := curve.LoadPrivateKey(seed)
	require.NoError(t, err)
	p2, err := curve.LoadPrivateKey(seed)
	require.NoError(t, err)
	require.Equal(t, p1.PubKey().Bytes(), p2.PubKey().Bytes())
}

func TestFromStringUnknownCurve(t *testing.T) {
	require.Nil(t, FromString("bogus"))
}

func TestSupportedCurvesListsRegistered(t *testing.T) {
	s := SupportedCurves()
	require.True(t, strings.Contains(s, "25519"))
	require.True(t, strings.Contains(s, "448"))
}

func TestIsNullPublicKey(t *testing.T) {
	require.True(t, IsNullPublicKey(make([]byte, 32)))

	nonZero := make([]byte, 32)
	nonZero[31] = 1
	require.False(t, IsNullPublicKey(nonZero))

	require.False(t, IsNullPublicKey(nil))
}

func TestGenerateKeyPairRejectsShortEntropy(t *testing.T) {
	curve := FromString("25519")
	_, err := curve.GenerateKeyPair([]byte{1, 2, 3})
	require.Error(t, err)
}

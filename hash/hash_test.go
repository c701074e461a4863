package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSupportedHashesBasics(t *testing.T) {
	for _, name := range []string{"SHA256", "SHA512", "BLAKE2s", "BLAKE2b"} {
		name := name
		t.Run(name, func(t *testing.T) {
			h := FromString(name)
			require.NotNil(t, h)
			require.Equal(t, name, h.String())
			require.Equal(t, h.HashLen(), len(h.HashOne([]byte("abc"))))

			// HashOne must be deterministic.
			require.Equal(t, h.HashOne([]byte("abc")), h.HashOne([]byte("abc")))
			require.NotEqual(t, h.HashOne([]byte("abc")), h.HashOne([]byte("abd")))
		})
	}
}

func TestFromStringUnknownHash(t *testing.T) {
	require.Nil(t, FromString("bogus"))
}

func TestSupportedHashesListsRegistered(t *testing.T) {
	s := SupportedHashes()
	for _, name := range []string{"SHA256", "SHA512", "BLAKE2s", "BLAKE2b"} {
		require.True(t, strings.Contains(s, name))
	}
}

func TestHkdf2IsDeterministicAndDistinctOutputs(t *testing.T) {
	h := FromString("SHA256")
	ck := []byte("chaining-key")
	ikm := []byte("input-key-material")

	a1, a2 := h.Hkdf2(ck, ikm)
	b1, b2 := h.Hkdf2(ck, ikm)
	require.Equal(t, a1, b1)
	require.Equal(t, a2, b2)
	require.NotEqual(t, a1, a2)
	require.Len(t, a1, h.HashLen())
	require.Len(t, a2, h.HashLen())
}

func TestHkdf3ReusesHkdf2Prefix(t *testing.T) {
	h := FromString("SHA256")
	ck := []byte("chaining-key")
	ikm := []byte("input-key-material")

	o1, o2 := h.Hkdf2(ck, ikm)
	t1, t2, t3 := h.Hkdf3(ck, ikm)

	require.Equal(t, o1, t1)
	require.Equal(t, o2, t2)
	require.Len(t, t3, h.HashLen())
	require.NotEqual(t, t2, t3)
}

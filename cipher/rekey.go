package cipher

// defaultRekey implements the fallback Rekey behaviour documented on the
// AEAD interface: encrypt 32 zero bytes under nonce MaxNonce with an empty
// ad, and keep the first KeySize bytes of the result as the new key.
//
// MaxNonce is reserved by the noise specs for exactly this use and is
// never a nonce a normal Encrypt/Decrypt call is allowed to reach, so this
// seals directly against the underlying cipher.AEAD rather than going
// through AEAD.Encrypt, which rejects n == MaxNonce. It is shared by every
// built-in cipher since none of them define a bespoke rekey operation.
func defaultRekey(a AEAD, key [KeySize]byte) ([]byte, error) {
	if err := a.InitCipher(key); err != nil {
		return nil, err
	}
	out := a.Cipher().Seal(nil, a.EncodeNonce(MaxNonce), ZEROS[:], ZEROLEN)
	return out[:KeySize], nil
}

package dh

import (
	"crypto/rand"
	"encoding/hex"

	"gitlab.com/yawning/x448.git"
)

// dhlen448 is the DHLEN for Curve448.
const dhlen448 = 56

// publicKey448 implements the PublicKey interface.
type publicKey448 struct {
	data [dhlen448]byte
}

func (pk *publicKey448) Bytes() []byte { return pk.data[:] }

func (pk *publicKey448) Hex() string { return hex.EncodeToString(pk.data[:]) }

// privateKey448 implements the PrivateKey interface.
type privateKey448 struct {
	data [dhlen448]byte
	pub  *publicKey448
}

func (pk *privateKey448) Bytes() []byte { return pk.data[:] }

// DH performs X448(priv, pub).
func (pk *privateKey448) DH(pub []byte) ([]byte, error) {
	if len(pub) != dhlen448 {
		return nil, errMismatchedKey("public", dhlen448, len(pub))
	}
	var scalar, point, shared [dhlen448]byte
	copy(scalar[:], pk.data[:])
	copy(point[:], pub)
	x448.ScalarMult(&shared, &scalar, &point)
	return shared[:], nil
}

func (pk *privateKey448) PubKey() PublicKey { return pk.pub }

// curve448DH implements the Curve interface for Curve448.
type curve448DH struct{}

func (c *curve448DH) GenerateKeyPair(entropy []byte) (PrivateKey, error) {
	var secret [dhlen448]byte
	if entropy != nil {
		if len(entropy) < dhlen448 {
			return nil, errMismatchedKey("private", dhlen448, len(entropy))
		}
		copy(secret[:], entropy[:dhlen448])
	} else if _, err := rand.Read(secret[:]); err != nil {
		return nil, err
	}
	return c.LoadPrivateKey(secret[:])
}

func (c *curve448DH) LoadPrivateKey(data []byte) (PrivateKey, error) {
	if len(data) != dhlen448 {
		return nil, errMismatchedKey("private", dhlen448, len(data))
	}
	p := &privateKey448{}
	copy(p.data[:], data)

	var scalar, pub [dhlen448]byte
	copy(scalar[:], p.data[:])
	x448.ScalarBaseMult(&pub, &scalar)

	p.pub = &publicKey448{}
	copy(p.pub.data[:], pub[:])
	return p, nil
}

func (c *curve448DH) LoadPublicKey(data []byte) (PublicKey, error) {
	if len(data) != dhlen448 {
		return nil, errMismatchedKey("public", dhlen448, len(data))
	}
	p := &publicKey448{}
	copy(p.data[:], data)
	return p, nil
}

func (c *curve448DH) Size() int { return dhlen448 }

func (c *curve448DH) String() string { return "448" }

func newCurve448() Curve { return &curve448DH{} }

func init() {
	Register("448", newCurve448)
}

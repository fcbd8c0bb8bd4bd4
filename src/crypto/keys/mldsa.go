package keys

import (
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/schemes"
)

// MLDSASchemeName is the name of the default, post-quantum signature scheme.
const MLDSASchemeName = "ML-DSA-65"

// MLDSA implements Scheme with the ML-DSA-65 lattice signature scheme
// (FIPS 204).
type MLDSA struct {
	scheme sign.Scheme
}

// NewMLDSA returns the ML-DSA-65 signature scheme.
func NewMLDSA() *MLDSA {
	return &MLDSA{
		scheme: schemes.ByName(MLDSASchemeName),
	}
}

// Name implements the Scheme interface.
func (m *MLDSA) Name() string {
	return MLDSASchemeName
}

// GenerateKey implements the Scheme interface.
func (m *MLDSA) GenerateKey() ([]byte, []byte, error) {
	pub, priv, err := m.scheme.GenerateKey()
	if err != nil {
		return nil, nil, err
	}

	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}

	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}

	return privBytes, pubBytes, nil
}

// Sign implements the Scheme interface.
func (m *MLDSA) Sign(priv []byte, message []byte) ([]byte, error) {
	sk, err := m.scheme.UnmarshalBinaryPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %v", err)
	}

	return m.scheme.Sign(sk, message, nil), nil
}

// Verify implements the Scheme interface.
func (m *MLDSA) Verify(pub []byte, message []byte, signature []byte) bool {
	pk, err := m.scheme.UnmarshalBinaryPublicKey(pub)
	if err != nil {
		return false
	}

	return m.scheme.Verify(pk, message, signature, nil)
}

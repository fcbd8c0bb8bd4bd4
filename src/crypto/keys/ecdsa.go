package keys

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec"

	zcrypto "github.com/zialiel/zialiel/src/crypto"
)

// ECDSASchemeName identifies the secp256k1 ECDSA scheme. It is kept as an
// alternative to ML-DSA for deployments that interoperate with existing
// secp256k1 key material. It is not post-quantum safe.
const ECDSASchemeName = "secp256k1"

// ECDSA implements Scheme with ECDSA over the secp256k1 curve, the curve used
// by Bitcoin and Ethereum. Signatures are computed over the SHA256 hash of the
// message and serialized in DER format. Public keys use the compressed
// 33-byte encoding.
type ECDSA struct{}

// NewECDSA returns the secp256k1 ECDSA signature scheme.
func NewECDSA() *ECDSA {
	return &ECDSA{}
}

// Name implements the Scheme interface.
func (e *ECDSA) Name() string {
	return ECDSASchemeName
}

// GenerateKey implements the Scheme interface.
func (e *ECDSA) GenerateKey() ([]byte, []byte, error) {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, nil, err
	}

	return priv.Serialize(), priv.PubKey().SerializeCompressed(), nil
}

// Sign implements the Scheme interface.
func (e *ECDSA) Sign(priv []byte, message []byte) ([]byte, error) {
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), priv)
	if key == nil {
		return nil, fmt.Errorf("parsing private key")
	}

	sig, err := key.Sign(zcrypto.SHA256(message))
	if err != nil {
		return nil, err
	}

	return sig.Serialize(), nil
}

// Verify implements the Scheme interface.
func (e *ECDSA) Verify(pub []byte, message []byte, signature []byte) bool {
	key, err := btcec.ParsePubKey(pub, btcec.S256())
	if err != nil {
		return false
	}

	sig, err := btcec.ParseDERSignature(signature, btcec.S256())
	if err != nil {
		return false
	}

	return sig.Verify(zcrypto.SHA256(message), key)
}

package keys

import "fmt"

// Scheme is the signature capability consumed by the rest of the system. Keys
// and signatures are opaque byte strings; the consensus and ledger layers
// never inspect key material.
type Scheme interface {
	// Name returns the scheme identifier, as accepted by SchemeByName.
	Name() string

	// GenerateKey produces a new private/public key pair.
	GenerateKey() (priv []byte, pub []byte, err error)

	// Sign signs a message with a private key.
	Sign(priv []byte, message []byte) ([]byte, error)

	// Verify checks a signature over a message against a public key.
	Verify(pub []byte, message []byte, signature []byte) bool
}

// SchemeByName returns the Scheme registered under the given name. The default
// scheme is ML-DSA-65.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", MLDSASchemeName:
		return NewMLDSA(), nil
	case ECDSASchemeName:
		return NewECDSA(), nil
	}
	return nil, fmt.Errorf("unknown signature scheme: %s", name)
}

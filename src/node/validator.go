package node

import (
	"github.com/zialiel/zialiel/src/common"
	"github.com/zialiel/zialiel/src/crypto/keys"
)

//Validator struct holds the signing identity of a node
type Validator struct {
	Moniker string
	Scheme  keys.Scheme

	privKey []byte
	pubKey  []byte

	id     uint32
	pubHex string
}

//NewValidator is a factory method for a Validator
func NewValidator(moniker string, scheme keys.Scheme, privKey, pubKey []byte) *Validator {
	return &Validator{
		Moniker: moniker,
		Scheme:  scheme,
		privKey: privKey,
		pubKey:  pubKey,
	}
}

//GenerateValidator creates a Validator with a fresh key pair
func GenerateValidator(moniker string, scheme keys.Scheme) (*Validator, error) {
	priv, pub, err := scheme.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewValidator(moniker, scheme, priv, pub), nil
}

//ID returns an ID for the validator
func (v *Validator) ID() uint32 {
	if v.id == 0 {
		v.id = common.Hash32(v.pubKey)
	}
	return v.id
}

//PublicKeyBytes returns the validator's public key as a byte array
func (v *Validator) PublicKeyBytes() []byte {
	return v.pubKey
}

//PublicKeyHex returns the validator's public key as a hex string
func (v *Validator) PublicKeyHex() string {
	if len(v.pubHex) == 0 {
		v.pubHex = common.EncodeToString(v.pubKey)
	}
	return v.pubHex
}

//Sign signs a message with the validator's private key
func (v *Validator) Sign(message []byte) ([]byte, error) {
	return v.Scheme.Sign(v.privKey, message)
}

//PrivateKeyBytes returns the validator's private key as a byte array
func (v *Validator) PrivateKeyBytes() []byte {
	return v.privKey
}

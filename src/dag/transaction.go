package dag

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/ugorji/go/codec"

	"github.com/zialiel/zialiel/src/common"
	"github.com/zialiel/zialiel/src/crypto"
	"github.com/zialiel/zialiel/src/crypto/keys"
)

// canonicalMarshal encodes v with a canonical JSON codec. Canonical encoding
// guarantees that independent nodes hashing the same value obtain the same
// bytes.
func canonicalMarshal(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func canonicalUnmarshal(data []byte, v interface{}) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(v)
}

// Transaction is a signed value transfer. It is immutable once signed; the
// signature covers every field except itself.
type Transaction struct {
	ID        string
	Sender    string
	Recipient string
	Amount    int64
	Fee       int64
	Timestamp int64
	Signature []byte

	hash []byte
	hex  string
}

type wireTransaction struct {
	ID        string
	Sender    string
	Recipient string
	Amount    int64
	Fee       int64
	Timestamp int64
}

// NewTransaction creates an unsigned Transaction with a fresh unique ID and
// the current timestamp.
func NewTransaction(sender, recipient string, amount, fee int64) *Transaction {
	return &Transaction{
		ID:        uuid.New().String(),
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Fee:       fee,
		Timestamp: time.Now().UnixNano(),
	}
}

// SignBytes returns the canonical encoding of the transaction without its
// signature. This is the message that gets signed and verified.
func (t *Transaction) SignBytes() ([]byte, error) {
	return canonicalMarshal(wireTransaction{
		ID:        t.ID,
		Sender:    t.Sender,
		Recipient: t.Recipient,
		Amount:    t.Amount,
		Fee:       t.Fee,
		Timestamp: t.Timestamp,
	})
}

// Sign signs the transaction with the sender's private key.
func (t *Transaction) Sign(scheme keys.Scheme, privKey []byte) error {
	signBytes, err := t.SignBytes()
	if err != nil {
		return err
	}

	sig, err := scheme.Sign(privKey, signBytes)
	if err != nil {
		return err
	}

	t.Signature = sig

	return nil
}

// Verify checks the transaction's signature against the sender's public key.
func (t *Transaction) Verify(scheme keys.Scheme, pubKey []byte) (bool, error) {
	signBytes, err := t.SignBytes()
	if err != nil {
		return false, err
	}

	return scheme.Verify(pubKey, signBytes, t.Signature), nil
}

// Hash returns the transaction's content address. It does not cover the
// signature, so it is stable from creation.
func (t *Transaction) Hash() ([]byte, error) {
	if len(t.hash) == 0 {
		signBytes, err := t.SignBytes()
		if err != nil {
			return nil, err
		}
		t.hash = crypto.SHA256(signBytes)
	}
	return t.hash, nil
}

// Hex ...
func (t *Transaction) Hex() string {
	if t.hex == "" {
		hash, _ := t.Hash()
		t.hex = common.EncodeToString(hash)
	}
	return t.hex
}

// Marshal ...
func (t *Transaction) Marshal() ([]byte, error) {
	return canonicalMarshal(t)
}

// Unmarshal ...
func (t *Transaction) Unmarshal(data []byte) error {
	return canonicalUnmarshal(data, t)
}

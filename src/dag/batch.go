package dag

import (
	"time"

	"github.com/zialiel/zialiel/src/common"
	"github.com/zialiel/zialiel/src/crypto"
	"github.com/zialiel/zialiel/src/crypto/keys"
)

// Genesis is the sentinel parent digest. It is a valid parent for both
// batches and checkpoints and never resolves to a stored record.
const Genesis = "genesis"

// BatchRecord is a content-addressed batch of transactions plus causal parent
// links; it is the DAG node unit. Transaction order is significant and
// preserved. A BatchRecord is immutable once created; its digest is its sole
// identity key.
type BatchRecord struct {
	Transactions []*Transaction
	Parents      []string
	Creator      string
	Timestamp    int64
	Signature    []byte

	hash []byte
	hex  string
}

type wireBatch struct {
	TxHashes  []string
	Parents   []string
	Creator   string
	Timestamp int64
}

// NewBatchRecord creates a BatchRecord over an ordered list of transactions.
func NewBatchRecord(txs []*Transaction, parents []string, creator string) *BatchRecord {
	return &BatchRecord{
		Transactions: txs,
		Parents:      parents,
		Creator:      creator,
		Timestamp:    time.Now().UnixNano(),
	}
}

func (b *BatchRecord) digestBytes() ([]byte, error) {
	txHashes := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		txHashes[i] = tx.Hex()
	}

	return canonicalMarshal(wireBatch{
		TxHashes:  txHashes,
		Parents:   b.Parents,
		Creator:   b.Creator,
		Timestamp: b.Timestamp,
	})
}

// Hash returns the batch digest, computed over the ordered transaction
// hashes, the parent digests, the creator, and the timestamp.
func (b *BatchRecord) Hash() ([]byte, error) {
	if len(b.hash) == 0 {
		digestBytes, err := b.digestBytes()
		if err != nil {
			return nil, err
		}
		b.hash = crypto.SHA256(digestBytes)
	}
	return b.hash, nil
}

// Hex ...
func (b *BatchRecord) Hex() string {
	if b.hex == "" {
		hash, _ := b.Hash()
		b.hex = common.EncodeToString(hash)
	}
	return b.hex
}

// Sign signs the batch digest with the creator's private key.
func (b *BatchRecord) Sign(scheme keys.Scheme, privKey []byte) error {
	hash, err := b.Hash()
	if err != nil {
		return err
	}

	sig, err := scheme.Sign(privKey, hash)
	if err != nil {
		return err
	}

	b.Signature = sig

	return nil
}

// Verify checks the creator's signature over the batch digest.
func (b *BatchRecord) Verify(scheme keys.Scheme, pubKey []byte) (bool, error) {
	hash, err := b.Hash()
	if err != nil {
		return false, err
	}

	return scheme.Verify(pubKey, hash, b.Signature), nil
}

// Marshal ...
func (b *BatchRecord) Marshal() ([]byte, error) {
	return canonicalMarshal(b)
}

// Unmarshal ...
func (b *BatchRecord) Unmarshal(data []byte) error {
	return canonicalUnmarshal(data, b)
}

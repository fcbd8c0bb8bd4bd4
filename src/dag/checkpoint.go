package dag

import (
	"time"

	"github.com/zialiel/zialiel/src/common"
	"github.com/zialiel/zialiel/src/crypto"
	"github.com/zialiel/zialiel/src/crypto/keys"
)

// Checkpoint is a content-addressed aggregation over a cohort of batch
// digests; it is the unit the committee votes to finalize. It carries two
// Merkle roots. Both roots are currently computed over the same cohort digest
// list; a stricter contract would derive TxRoot from the transactions inside
// each batch.
type Checkpoint struct {
	Cohort     []string
	Parent     string
	Creator    string
	Timestamp  int64
	TxRoot     string
	StructRoot string
	Signature  []byte

	hash []byte
	hex  string
}

type wireCheckpoint struct {
	Parent     string
	Creator    string
	Timestamp  int64
	TxRoot     string
	StructRoot string
}

// NewCheckpoint builds a Checkpoint over a cohort of batch digests. Identical
// cohort lists, including order, always yield identical roots; independent
// nodes recomputing the same Checkpoint rely on this.
func NewCheckpoint(cohort []string, parent string, creator string) *Checkpoint {
	txRoot := common.EncodeToString(crypto.MerkleRoot(cohort))
	structRoot := common.EncodeToString(crypto.MerkleRoot(cohort))

	return &Checkpoint{
		Cohort:     cohort,
		Parent:     parent,
		Creator:    creator,
		Timestamp:  time.Now().UnixNano(),
		TxRoot:     txRoot,
		StructRoot: structRoot,
	}
}

func (c *Checkpoint) digestBytes() ([]byte, error) {
	return canonicalMarshal(wireCheckpoint{
		Parent:     c.Parent,
		Creator:    c.Creator,
		Timestamp:  c.Timestamp,
		TxRoot:     c.TxRoot,
		StructRoot: c.StructRoot,
	})
}

// Hash returns the Checkpoint digest, computed over the parent digest, the
// creator, the timestamp, and both Merkle roots.
func (c *Checkpoint) Hash() ([]byte, error) {
	if len(c.hash) == 0 {
		digestBytes, err := c.digestBytes()
		if err != nil {
			return nil, err
		}
		c.hash = crypto.SHA256(digestBytes)
	}
	return c.hash, nil
}

// Hex ...
func (c *Checkpoint) Hex() string {
	if c.hex == "" {
		hash, _ := c.Hash()
		c.hex = common.EncodeToString(hash)
	}
	return c.hex
}

// Sign signs the Checkpoint digest with the proposer's private key.
func (c *Checkpoint) Sign(scheme keys.Scheme, privKey []byte) error {
	hash, err := c.Hash()
	if err != nil {
		return err
	}

	sig, err := scheme.Sign(privKey, hash)
	if err != nil {
		return err
	}

	c.Signature = sig

	return nil
}

// Verify checks the proposer's signature over the Checkpoint digest.
func (c *Checkpoint) Verify(scheme keys.Scheme, pubKey []byte) (bool, error) {
	hash, err := c.Hash()
	if err != nil {
		return false, err
	}

	return scheme.Verify(pubKey, hash, c.Signature), nil
}

// Marshal ...
func (c *Checkpoint) Marshal() ([]byte, error) {
	return canonicalMarshal(c)
}

// Unmarshal ...
func (c *Checkpoint) Unmarshal(data []byte) error {
	return canonicalUnmarshal(data, c)
}

package dag

import (
	"testing"

	"github.com/zialiel/zialiel/src/crypto/keys"
)

func TestTransactionSignVerify(t *testing.T) {
	scheme, err := keys.SchemeByName("")
	if err != nil {
		t.Fatal(err)
	}

	priv, pub, err := scheme.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	tx := NewTransaction("alice", "bob", 100, 10)

	if err := tx.Sign(scheme, priv); err != nil {
		t.Fatal(err)
	}

	ok, err := tx.Verify(scheme, pub)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("transaction signature should verify")
	}

	// The signature covers the amount
	tampered := *tx
	tampered.Amount = 1000
	tampered.hash = nil
	tampered.hex = ""

	ok, err = tampered.Verify(scheme, pub)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("tampered transaction should not verify")
	}
}

func TestTransactionHashStable(t *testing.T) {
	tx := NewTransaction("alice", "bob", 100, 10)

	before := tx.Hex()

	scheme, err := keys.SchemeByName("")
	if err != nil {
		t.Fatal(err)
	}
	priv, _, err := scheme.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	if err := tx.Sign(scheme, priv); err != nil {
		t.Fatal(err)
	}

	if tx.Hex() != before {
		t.Fatalf("signing should not change the transaction hash")
	}
}

func TestTransactionMarshalRoundtrip(t *testing.T) {
	tx := NewTransaction("alice", "bob", 100, 10)

	data, err := tx.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	decoded := new(Transaction)
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatal(err)
	}

	if decoded.Hex() != tx.Hex() {
		t.Fatalf("decoded transaction hash %s, expected %s", decoded.Hex(), tx.Hex())
	}
}

func TestBatchDigest(t *testing.T) {
	tx := NewTransaction("alice", "bob", 100, 10)

	b1 := NewBatchRecord([]*Transaction{tx}, []string{Genesis}, "val0")
	b2 := &BatchRecord{
		Transactions: b1.Transactions,
		Parents:      b1.Parents,
		Creator:      b1.Creator,
		Timestamp:    b1.Timestamp,
	}

	if b1.Hex() != b2.Hex() {
		t.Fatalf("identical batch content should produce identical digests")
	}

	b3 := NewBatchRecord([]*Transaction{tx}, []string{Genesis}, "val1")
	if b1.Hex() == b3.Hex() {
		t.Fatalf("batch digest should depend on the creator")
	}
}

func TestBatchSignVerify(t *testing.T) {
	scheme, err := keys.SchemeByName("")
	if err != nil {
		t.Fatal(err)
	}

	priv, pub, err := scheme.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	tx := NewTransaction("alice", "bob", 100, 10)
	batch := NewBatchRecord([]*Transaction{tx}, []string{Genesis}, "val0")

	if err := batch.Sign(scheme, priv); err != nil {
		t.Fatal(err)
	}

	ok, err := batch.Verify(scheme, pub)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("batch signature should verify")
	}
}

func TestCheckpointDigest(t *testing.T) {
	cohort := []string{"b1", "b2", "b3"}

	c1 := NewCheckpoint(cohort, Genesis, "val0")
	c2 := &Checkpoint{
		Cohort:     c1.Cohort,
		Parent:     c1.Parent,
		Creator:    c1.Creator,
		Timestamp:  c1.Timestamp,
		TxRoot:     c1.TxRoot,
		StructRoot: c1.StructRoot,
	}

	if c1.Hex() != c2.Hex() {
		t.Fatalf("identical checkpoint content should produce identical digests")
	}

	if c1.TxRoot != c1.StructRoot {
		t.Fatalf("both roots are computed over the cohort digest list")
	}

	reordered := NewCheckpoint([]string{"b2", "b1", "b3"}, Genesis, "val0")
	if reordered.TxRoot == c1.TxRoot {
		t.Fatalf("roots should depend on cohort order")
	}
}

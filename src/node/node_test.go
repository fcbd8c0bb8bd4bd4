package node

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/zialiel/zialiel/src/committee"
	"github.com/zialiel/zialiel/src/common"
	"github.com/zialiel/zialiel/src/consensus"
	"github.com/zialiel/zialiel/src/crypto/keys"
	"github.com/zialiel/zialiel/src/dag"
	"github.com/zialiel/zialiel/src/ledger"
)

type testUser struct {
	moniker string
	priv    []byte
	pub     []byte
}

func newTestUser(t *testing.T, scheme keys.Scheme, moniker string) *testUser {
	priv, pub, err := scheme.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return &testUser{moniker, priv, pub}
}

// initNodes builds n validators around a shared consensus State and a shared
// in-memory DAG store. Each node keeps its own ledger.
func initNodes(t *testing.T, n int) []*Node {
	scheme, err := keys.SchemeByName("")
	if err != nil {
		t.Fatal(err)
	}

	validators := []*Validator{}
	members := []*committee.Member{}
	for i := 0; i < n; i++ {
		v, err := GenerateValidator(fmt.Sprintf("val%d", i), scheme)
		if err != nil {
			t.Fatal(err)
		}
		validators = append(validators, v)
		members = append(members, committee.NewMember(v.Moniker, v.PublicKeyBytes()))
	}

	state := consensus.NewState()
	store := dag.NewInmemStore()
	logger := common.NewTestEntry(t, logrus.DebugLevel)

	nodes := []*Node{}
	for _, v := range validators {
		nodes = append(nodes, NewNode(v, store, committee.NewCommittee(members), state, logger))
	}

	return nodes
}

func signedTransfer(t *testing.T, scheme keys.Scheme, from *testUser, to string, amount, fee int64) *dag.Transaction {
	tx := dag.NewTransaction(from.moniker, to, amount, fee)
	if err := tx.Sign(scheme, from.priv); err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestFullRound(t *testing.T) {
	nodes := initNodes(t, 4)
	scheme := nodes[0].Validator().Scheme

	alice := newTestUser(t, scheme, "alice")
	bob := newTestUser(t, scheme, "bob")

	for _, n := range nodes {
		n.RegisterAccount(alice.moniker, alice.pub)
		n.RegisterAccount(bob.moniker, bob.pub)
		n.Ledger().Credit(alice.moniker, 10000)
		n.Ledger().Credit(bob.moniker, 10000)
	}

	nodes[0].SubmitTransaction(signedTransfer(t, scheme, alice, "bob", 100, 10))
	nodes[0].SubmitTransaction(signedTransfer(t, scheme, bob, "alice", 50, 5))

	batch, err := nodes[0].CreateBatch()
	if err != nil {
		t.Fatal(err)
	}
	if batch == nil {
		t.Fatalf("batch should have been created")
	}

	checkpoint, err := nodes[0].ProposeCheckpoint()
	if err != nil {
		t.Fatal(err)
	}
	if checkpoint == nil {
		t.Fatalf("checkpoint should have been proposed")
	}

	digest := checkpoint.Hex()

	// The proposal was node 0's vote; two more reach quorum 3
	if err := nodes[1].VoteCheckpoint(digest); err != nil {
		t.Fatal(err)
	}
	if err := nodes[2].VoteCheckpoint(digest); err != nil {
		t.Fatal(err)
	}

	if !nodes[0].Engine().State().IsFinalized(digest) {
		t.Fatalf("checkpoint should be finalized at quorum")
	}

	for _, n := range nodes {
		n.DrainFinalized()
	}

	for i, n := range nodes {
		if b := n.Ledger().GetBalance("alice"); b != 9940 {
			t.Fatalf("node %d: alice's balance should be 9940, not %d", i, b)
		}
		if b := n.Ledger().GetBalance("bob"); b != 10045 {
			t.Fatalf("node %d: bob's balance should be 10045, not %d", i, b)
		}

		if p := n.Ledger().PoolBalance(ledger.PoolValidator); p != 10 {
			t.Fatalf("node %d: validator pool should hold 10, not %d", i, p)
		}
		if p := n.Ledger().PoolBalance(ledger.PoolUBI); p != 3 {
			t.Fatalf("node %d: UBI pool should hold 3, not %d", i, p)
		}
		if p := n.Ledger().PoolBalance(ledger.PoolCarbon); p != 1 {
			t.Fatalf("node %d: carbon pool should hold 1, not %d", i, p)
		}
		if p := n.Ledger().PoolBalance(ledger.PoolGratitude); p != 1 {
			t.Fatalf("node %d: gratitude pool should hold 1, not %d", i, p)
		}
	}

	finalized := nodes[0].Store().Finalized()
	if len(finalized) != 1 || finalized[0] != digest {
		t.Fatalf("store should record the finalized digest, got %v", finalized)
	}
}

func TestApplyCheckpointIdempotent(t *testing.T) {
	nodes := initNodes(t, 4)
	scheme := nodes[0].Validator().Scheme

	alice := newTestUser(t, scheme, "alice")
	nodes[0].RegisterAccount(alice.moniker, alice.pub)
	nodes[0].Ledger().Credit(alice.moniker, 1000)

	nodes[0].SubmitTransaction(signedTransfer(t, scheme, alice, "bob", 100, 10))

	if _, err := nodes[0].CreateBatch(); err != nil {
		t.Fatal(err)
	}

	checkpoint, err := nodes[0].ProposeCheckpoint()
	if err != nil {
		t.Fatal(err)
	}

	digest := checkpoint.Hex()

	if err := nodes[0].ApplyCheckpoint(digest); err != nil {
		t.Fatal(err)
	}

	if b := nodes[0].Ledger().GetBalance(alice.moniker); b != 890 {
		t.Fatalf("alice's balance should be 890, not %d", b)
	}

	if err := nodes[0].ApplyCheckpoint(digest); err != nil {
		t.Fatal(err)
	}

	if b := nodes[0].Ledger().GetBalance(alice.moniker); b != 890 {
		t.Fatalf("re-applying should not change balances, got %d", b)
	}
}

func TestApplySkipsBadTransactions(t *testing.T) {
	nodes := initNodes(t, 4)
	scheme := nodes[0].Validator().Scheme

	alice := newTestUser(t, scheme, "alice")
	mallory := newTestUser(t, scheme, "mallory")
	pauper := newTestUser(t, scheme, "pauper")

	nodes[0].RegisterAccount(alice.moniker, alice.pub)
	nodes[0].RegisterAccount(mallory.moniker, mallory.pub)
	nodes[0].RegisterAccount(pauper.moniker, pauper.pub)
	nodes[0].Ledger().Credit(alice.moniker, 1000)
	nodes[0].Ledger().Credit(mallory.moniker, 1000)

	// A valid transfer
	nodes[0].SubmitTransaction(signedTransfer(t, scheme, alice, "bob", 100, 10))

	// A transfer whose signature does not match its content
	forged := signedTransfer(t, scheme, mallory, "bob", 1, 1)
	forged.Amount = 500
	nodes[0].SubmitTransaction(forged)

	// A transfer from a sender with no registered key
	stranger := newTestUser(t, scheme, "stranger")
	nodes[0].SubmitTransaction(signedTransfer(t, scheme, stranger, "bob", 10, 1))

	// A transfer exceeding the sender's balance
	nodes[0].SubmitTransaction(signedTransfer(t, scheme, pauper, "bob", 100, 10))

	if _, err := nodes[0].CreateBatch(); err != nil {
		t.Fatal(err)
	}

	checkpoint, err := nodes[0].ProposeCheckpoint()
	if err != nil {
		t.Fatal(err)
	}

	if err := nodes[0].ApplyCheckpoint(checkpoint.Hex()); err != nil {
		t.Fatal(err)
	}

	if b := nodes[0].Ledger().GetBalance("bob"); b != 100 {
		t.Fatalf("only the valid transfer should apply; bob holds %d", b)
	}
	if b := nodes[0].Ledger().GetBalance(mallory.moniker); b != 1000 {
		t.Fatalf("the forged transfer should be skipped; mallory holds %d", b)
	}
	if b := nodes[0].Ledger().GetBalance(pauper.moniker); b != 0 {
		t.Fatalf("the unfunded transfer should be skipped; pauper holds %d", b)
	}
}

func TestApplySkipsMissingBatch(t *testing.T) {
	nodes := initNodes(t, 4)

	checkpoint := dag.NewCheckpoint([]string{"missing"}, dag.Genesis, "val0")

	if err := nodes[0].ReceiveCheckpoint(checkpoint); err != nil {
		t.Fatal(err)
	}

	// The missing batch is skipped without error
	if err := nodes[0].ApplyCheckpoint(checkpoint.Hex()); err != nil {
		t.Fatal(err)
	}
}

func TestCreateBatchEmptyMempool(t *testing.T) {
	nodes := initNodes(t, 1)

	batch, err := nodes[0].CreateBatch()
	if err != nil {
		t.Fatal(err)
	}
	if batch != nil {
		t.Fatalf("empty mempool should produce no batch")
	}
}

func TestProposeCheckpointNothingUnconfirmed(t *testing.T) {
	nodes := initNodes(t, 1)

	checkpoint, err := nodes[0].ProposeCheckpoint()
	if err != nil {
		t.Fatal(err)
	}
	if checkpoint != nil {
		t.Fatalf("nothing unconfirmed should produce no checkpoint")
	}
}

func TestBootstrapFromStore(t *testing.T) {
	nodes := initNodes(t, 4)
	scheme := nodes[0].Validator().Scheme

	alice := newTestUser(t, scheme, "alice")

	for _, n := range nodes {
		n.RegisterAccount(alice.moniker, alice.pub)
		n.Ledger().Credit(alice.moniker, 1000)
	}

	nodes[0].SubmitTransaction(signedTransfer(t, scheme, alice, "bob", 100, 10))

	if _, err := nodes[0].CreateBatch(); err != nil {
		t.Fatal(err)
	}
	checkpoint, err := nodes[0].ProposeCheckpoint()
	if err != nil {
		t.Fatal(err)
	}

	digest := checkpoint.Hex()

	if err := nodes[1].VoteCheckpoint(digest); err != nil {
		t.Fatal(err)
	}
	if err := nodes[2].VoteCheckpoint(digest); err != nil {
		t.Fatal(err)
	}

	nodes[0].DrainFinalized()

	// A fresh node over the same store reconstructs the ledger from the
	// finalized log.
	lateValidator, err := GenerateValidator("late", scheme)
	if err != nil {
		t.Fatal(err)
	}

	fresh := NewNode(
		lateValidator,
		nodes[0].Store(),
		nodes[0].Committee(),
		consensus.NewState(),
		common.NewTestEntry(t, logrus.DebugLevel),
	)
	fresh.RegisterAccount(alice.moniker, alice.pub)
	fresh.Ledger().Credit(alice.moniker, 1000)

	fresh.Bootstrap()

	if b := fresh.Ledger().GetBalance(alice.moniker); b != 890 {
		t.Fatalf("bootstrapped ledger should hold 890 for alice, not %d", b)
	}
	if b := fresh.Ledger().GetBalance("bob"); b != 100 {
		t.Fatalf("bootstrapped ledger should hold 100 for bob, not %d", b)
	}
}

func TestGetStats(t *testing.T) {
	nodes := initNodes(t, 4)

	stats := nodes[0].GetStats()

	if stats["moniker"] != "val0" {
		t.Fatalf("stats moniker should be val0, not %s", stats["moniker"])
	}
	if stats["committee_size"] != "4" {
		t.Fatalf("stats committee_size should be 4, not %s", stats["committee_size"])
	}
	if stats["quorum"] != "3" {
		t.Fatalf("stats quorum should be 3, not %s", stats["quorum"])
	}
}

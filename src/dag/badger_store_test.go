package dag

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func initBadgerStore(t *testing.T) (*BadgerStore, string) {
	dir, err := ioutil.TempDir("", "badger")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "badger_db")

	store, err := NewBadgerStore(path)
	if err != nil {
		t.Fatal(err)
	}

	return store, dir
}

func TestNewBadgerStore(t *testing.T) {
	store, dir := initBadgerStore(t)
	defer os.RemoveAll(dir)
	defer store.Close()

	if store.StorePath() == "" {
		t.Fatalf("BadgerStore should report its path")
	}

	b0 := testBatch(t, []string{Genesis}, "val0", "a")
	if err := store.AddBatch(b0); err != nil {
		t.Fatal(err)
	}

	retrieved, err := store.GetBatch(b0.Hex())
	if err != nil {
		t.Fatal(err)
	}
	if retrieved.Hex() != b0.Hex() {
		t.Fatalf("retrieved batch hash mismatch")
	}
}

func TestBadgerStoreBootstrap(t *testing.T) {
	store, dir := initBadgerStore(t)
	defer os.RemoveAll(dir)

	b0 := testBatch(t, []string{Genesis}, "val0", "a")
	b1 := testBatch(t, []string{b0.Hex()}, "val1", "b")

	if err := store.AddBatch(b0); err != nil {
		t.Fatal(err)
	}
	if err := store.AddBatch(b1); err != nil {
		t.Fatal(err)
	}

	checkpoint := NewCheckpoint([]string{b0.Hex()}, Genesis, "val0")
	if err := store.AddCheckpoint(checkpoint); err != nil {
		t.Fatal(err)
	}

	if err := store.AddFinalized(checkpoint.Hex()); err != nil {
		t.Fatal(err)
	}

	path := store.StorePath()

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadBadgerStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()

	if loaded.BatchCount() != 2 {
		t.Fatalf("bootstrapped store should hold 2 batches, not %d", loaded.BatchCount())
	}

	checkpoints := loaded.Checkpoints()
	if len(checkpoints) != 1 || checkpoints[0] != checkpoint.Hex() {
		t.Fatalf("bootstrapped checkpoints should be [%s], not %v", checkpoint.Hex(), checkpoints)
	}

	finalized := loaded.Finalized()
	if len(finalized) != 1 || finalized[0] != checkpoint.Hex() {
		t.Fatalf("bootstrapped finalized should be [%s], not %v", checkpoint.Hex(), finalized)
	}

	tips := loaded.Tips()
	if len(tips) != 1 || tips[0] != b1.Hex() {
		t.Fatalf("bootstrapped tips should be [%s], not %v", b1.Hex(), tips)
	}

	unconfirmed := loaded.UnconfirmedBatches()
	if len(unconfirmed) != 1 || unconfirmed[0].Hex() != b1.Hex() {
		t.Fatalf("bootstrapped unconfirmed should be [%s]", b1.Hex())
	}
}

package dag

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger"

	cm "github.com/zialiel/zialiel/src/common"
)

const (
	batchPrefix      = "batch"
	checkpointPrefix = "checkpoint"
	topoPrefix       = "topo"
	finalPrefix      = "final"

	kindBatch      = "b"
	kindCheckpoint = "c"
)

// topoRecord is one entry of the topological insertion log. Replaying the log
// in order at bootstrap reconstructs the DAG store deterministically.
type topoRecord struct {
	Kind string
	Hex  string
}

// BadgerStore implements the Store interface with a Badger key-value database
// behind an InmemStore. Every admitted batch, checkpoint, and finalize marker
// is appended to the database, and replayed at load time.
type BadgerStore struct {
	inmemStore *InmemStore
	db         *badger.DB
	path       string

	topoCount  int
	finalCount int
}

// NewBadgerStore creates a brand new Store with a new database.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = nil
	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(),
		db:         handle,
		path:       path,
	}

	return store, nil
}

// LoadBadgerStore creates a Store from an existing database, replaying the
// topological log into a fresh InmemStore.
func LoadBadgerStore(path string) (*BadgerStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = nil
	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(),
		db:         handle,
		path:       path,
	}

	if err := store.bootstrap(); err != nil {
		store.db.Close()
		return nil, err
	}

	return store, nil
}

func (s *BadgerStore) bootstrap() error {
	for i := 0; ; i++ {
		data, err := s.dbGet(topoKey(i))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				break
			}
			return err
		}

		var record topoRecord
		if err := canonicalUnmarshal(data, &record); err != nil {
			return err
		}

		switch record.Kind {
		case kindBatch:
			batch, err := s.dbGetBatch(record.Hex)
			if err != nil {
				return err
			}
			if err := s.inmemStore.AddBatch(batch); err != nil {
				return err
			}
		case kindCheckpoint:
			checkpoint, err := s.dbGetCheckpoint(record.Hex)
			if err != nil {
				return err
			}
			if err := s.inmemStore.AddCheckpoint(checkpoint); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown topo record kind: %q", record.Kind)
		}

		s.topoCount = i + 1
	}

	for i := 0; ; i++ {
		data, err := s.dbGet(finalKey(i))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				break
			}
			return err
		}

		if err := s.inmemStore.AddFinalized(string(data)); err != nil {
			return err
		}

		s.finalCount = i + 1
	}

	return nil
}

// AddBatch implements the Store interface. The batch is admitted to the
// in-memory store first, so structural rejections never reach the database.
func (s *BadgerStore) AddBatch(batch *BatchRecord) error {
	if err := s.inmemStore.AddBatch(batch); err != nil {
		return err
	}

	data, err := batch.Marshal()
	if err != nil {
		return err
	}

	topo, err := canonicalMarshal(topoRecord{Kind: kindBatch, Hex: batch.Hex()})
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(batchKey(batch.Hex()), data); err != nil {
			return err
		}
		return txn.Set(topoKey(s.topoCount), topo)
	})
	if err != nil {
		return err
	}

	s.topoCount++

	return nil
}

// GetBatch implements the Store interface.
func (s *BadgerStore) GetBatch(hex string) (*BatchRecord, error) {
	batch, err := s.inmemStore.GetBatch(hex)
	if err != nil {
		batch, err = s.dbGetBatch(hex)
	}
	return batch, mapBadgerErr("Batch", hex, err)
}

// BatchCount implements the Store interface.
func (s *BadgerStore) BatchCount() int {
	return s.inmemStore.BatchCount()
}

// AddCheckpoint implements the Store interface.
func (s *BadgerStore) AddCheckpoint(checkpoint *Checkpoint) error {
	if err := s.inmemStore.AddCheckpoint(checkpoint); err != nil {
		return err
	}

	data, err := checkpoint.Marshal()
	if err != nil {
		return err
	}

	topo, err := canonicalMarshal(topoRecord{Kind: kindCheckpoint, Hex: checkpoint.Hex()})
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(checkpointKey(checkpoint.Hex()), data); err != nil {
			return err
		}
		return txn.Set(topoKey(s.topoCount), topo)
	})
	if err != nil {
		return err
	}

	s.topoCount++

	return nil
}

// GetCheckpoint implements the Store interface.
func (s *BadgerStore) GetCheckpoint(hex string) (*Checkpoint, error) {
	checkpoint, err := s.inmemStore.GetCheckpoint(hex)
	if err != nil {
		checkpoint, err = s.dbGetCheckpoint(hex)
	}
	return checkpoint, mapBadgerErr("Checkpoint", hex, err)
}

// Checkpoints implements the Store interface.
func (s *BadgerStore) Checkpoints() []string {
	return s.inmemStore.Checkpoints()
}

// Tips implements the Store interface.
func (s *BadgerStore) Tips() []string {
	return s.inmemStore.Tips()
}

// UnconfirmedBatches implements the Store interface.
func (s *BadgerStore) UnconfirmedBatches() []*BatchRecord {
	return s.inmemStore.UnconfirmedBatches()
}

// AddFinalized implements the Store interface.
func (s *BadgerStore) AddFinalized(hex string) error {
	for _, existing := range s.inmemStore.Finalized() {
		if existing == hex {
			return nil
		}
	}

	if err := s.inmemStore.AddFinalized(hex); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(finalKey(s.finalCount), []byte(hex))
	})
	if err != nil {
		return err
	}

	s.finalCount++

	return nil
}

// Finalized implements the Store interface.
func (s *BadgerStore) Finalized() []string {
	return s.inmemStore.Finalized()
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

/* DB helpers */

func batchKey(hex string) []byte {
	return []byte(fmt.Sprintf("%s_%s", batchPrefix, hex))
}

func checkpointKey(hex string) []byte {
	return []byte(fmt.Sprintf("%s_%s", checkpointPrefix, hex))
}

func topoKey(index int) []byte {
	return []byte(fmt.Sprintf("%s_%09d", topoPrefix, index))
}

func finalKey(index int) []byte {
	return []byte(fmt.Sprintf("%s_%09d", finalPrefix, index))
}

func (s *BadgerStore) dbGet(key []byte) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

func (s *BadgerStore) dbGetBatch(hex string) (*BatchRecord, error) {
	data, err := s.dbGet(batchKey(hex))
	if err != nil {
		return nil, err
	}

	batch := new(BatchRecord)
	if err := batch.Unmarshal(data); err != nil {
		return nil, err
	}

	return batch, nil
}

func (s *BadgerStore) dbGetCheckpoint(hex string) (*Checkpoint, error) {
	data, err := s.dbGet(checkpointKey(hex))
	if err != nil {
		return nil, err
	}

	checkpoint := new(Checkpoint)
	if err := checkpoint.Unmarshal(data); err != nil {
		return nil, err
	}

	return checkpoint, nil
}

func mapBadgerErr(dataType, key string, err error) error {
	if err == badger.ErrKeyNotFound {
		return cm.NewStoreErr(dataType, cm.KeyNotFound, key)
	}
	return err
}

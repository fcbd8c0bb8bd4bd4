package dag

import (
	"sync"

	cm "github.com/zialiel/zialiel/src/common"
)

// InmemStore implements the Store interface with in-memory maps. Insertion
// order is tracked so that scans over batches and checkpoints are
// deterministic across independent nodes fed the same records.
type InmemStore struct {
	mu sync.RWMutex

	batches    map[string]*BatchRecord
	batchOrder []string

	checkpoints     map[string]*Checkpoint
	checkpointOrder []string

	tips      map[string]bool
	confirmed map[string]bool

	finalized      map[string]bool
	finalizedOrder []string
}

// NewInmemStore creates an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		batches:     make(map[string]*BatchRecord),
		checkpoints: make(map[string]*Checkpoint),
		tips:        make(map[string]bool),
		confirmed:   make(map[string]bool),
		finalized:   make(map[string]bool),
	}
}

// AddBatch implements the Store interface.
func (s *InmemStore) AddBatch(batch *BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hex := batch.Hex()

	if _, ok := s.batches[hex]; ok {
		return cm.NewStoreErr("Batch", cm.KeyAlreadyExists, hex)
	}

	if len(batch.Parents) == 0 {
		return cm.NewStoreErr("Batch", cm.NoParents, hex)
	}

	for _, parent := range batch.Parents {
		if parent == Genesis {
			continue
		}
		if _, ok := s.batches[parent]; !ok {
			return cm.NewStoreErr("Batch", cm.MissingParent, parent)
		}
	}

	s.batches[hex] = batch
	s.batchOrder = append(s.batchOrder, hex)

	for _, parent := range batch.Parents {
		delete(s.tips, parent)
	}
	s.tips[hex] = true

	return nil
}

// GetBatch implements the Store interface.
func (s *InmemStore) GetBatch(hex string) (*BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[hex]
	if !ok {
		return nil, cm.NewStoreErr("Batch", cm.KeyNotFound, hex)
	}

	return batch, nil
}

// BatchCount implements the Store interface.
func (s *InmemStore) BatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.batches)
}

// AddCheckpoint implements the Store interface.
func (s *InmemStore) AddCheckpoint(checkpoint *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hex := checkpoint.Hex()

	if _, ok := s.checkpoints[hex]; ok {
		return cm.NewStoreErr("Checkpoint", cm.KeyAlreadyExists, hex)
	}

	s.checkpoints[hex] = checkpoint
	s.checkpointOrder = append(s.checkpointOrder, hex)

	for _, batchHex := range checkpoint.Cohort {
		s.confirmed[batchHex] = true
	}

	return nil
}

// GetCheckpoint implements the Store interface.
func (s *InmemStore) GetCheckpoint(hex string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoint, ok := s.checkpoints[hex]
	if !ok {
		return nil, cm.NewStoreErr("Checkpoint", cm.KeyNotFound, hex)
	}

	return checkpoint, nil
}

// Checkpoints implements the Store interface.
func (s *InmemStore) Checkpoints() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]string, len(s.checkpointOrder))
	copy(res, s.checkpointOrder)

	return res
}

// Tips implements the Store interface. Tips are returned in batch insertion
// order.
func (s *InmemStore) Tips() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []string{}
	for _, hex := range s.batchOrder {
		if s.tips[hex] {
			res = append(res, hex)
		}
	}

	return res
}

// UnconfirmedBatches implements the Store interface.
func (s *InmemStore) UnconfirmedBatches() []*BatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []*BatchRecord{}
	for _, hex := range s.batchOrder {
		if !s.confirmed[hex] {
			res = append(res, s.batches[hex])
		}
	}

	return res
}

// AddFinalized implements the Store interface. Membership is append-only and
// permanent; repeats are ignored.
func (s *InmemStore) AddFinalized(hex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized[hex] {
		return nil
	}

	s.finalized[hex] = true
	s.finalizedOrder = append(s.finalizedOrder, hex)

	return nil
}

// Finalized implements the Store interface.
func (s *InmemStore) Finalized() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]string, len(s.finalizedOrder))
	copy(res, s.finalizedOrder)

	return res
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}

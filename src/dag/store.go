package dag

// Store is an interface for DAG backend stores. Batches and checkpoints are
// immutable and never deleted; a batch is only superseded in relevance once
// covered by a Checkpoint.
type Store interface {
	// AddBatch admits a batch. It returns a KeyAlreadyExists error for a
	// duplicate digest, a NoParents error when the parent list is empty, and
	// a MissingParent error when a declared non-genesis parent is not already
	// stored. On success the batch becomes the only tip covering its parents.
	AddBatch(batch *BatchRecord) error
	// GetBatch returns a batch by digest.
	GetBatch(hex string) (*BatchRecord, error)
	// BatchCount returns the number of stored batches.
	BatchCount() int
	// AddCheckpoint admits a checkpoint. It returns a KeyAlreadyExists error
	// for a duplicate digest; cohort membership is not structurally validated
	// against the DAG.
	AddCheckpoint(checkpoint *Checkpoint) error
	// GetCheckpoint returns a checkpoint by digest.
	GetCheckpoint(hex string) (*Checkpoint, error)
	// Checkpoints returns the digests of all stored checkpoints in insertion
	// order.
	Checkpoints() []string
	// Tips returns the digests of stored batches that are not a declared
	// parent of any stored batch. They are the candidate parents for the next
	// batch.
	Tips() []string
	// UnconfirmedBatches returns all stored batches whose digest does not
	// appear in the cohort of any stored checkpoint, in insertion order.
	UnconfirmedBatches() []*BatchRecord
	// AddFinalized appends a checkpoint digest to the finalized record.
	AddFinalized(hex string) error
	// Finalized returns the finalized checkpoint digests in finalization
	// order.
	Finalized() []string
	// Close closes the underlying database.
	Close() error
	// StorePath returns the filepath of the underlying database, if any.
	StorePath() string
}

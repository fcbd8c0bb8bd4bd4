// Package dag contains the ledger's data entities (Transaction, BatchRecord,
// Checkpoint) and the DAG store that holds them. The store validates
// structural admission: a batch is only accepted once every declared
// non-genesis parent is already stored. Entities are content-addressed;
// digests are computed over a canonical encoding so that independent nodes
// obtain identical digests for identical content.
package dag

// Package node ties the pipeline together for one participant: transactions
// are collected into batches, batches are admitted to the DAG store,
// checkpoints are proposed and voted on through the finality engine, and
// finalized cohorts are applied to the node's own ledger with signature
// re-verification at the boundary.
package node

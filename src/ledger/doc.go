// Package ledger tracks account balances and the four named fee pools. It is
// the last stage of the pipeline: transfers reach it only after their
// enclosing checkpoint has been finalized by the committee.
package ledger

// Package consensus implements committee-based finality over checkpoints. A
// checkpoint moves from pending to finalized when floor(2N/3)+1 distinct
// committee members have signed its digest, where N is the committee size at
// the time of each quorum check. Finalization is permanent and exactly-once.
package consensus

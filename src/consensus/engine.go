package consensus

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/zialiel/zialiel/src/committee"
	"github.com/zialiel/zialiel/src/crypto/keys"
	"github.com/zialiel/zialiel/src/dag"
)

// Consensus errors. All are non-fatal: the engine logs, skips the offending
// vote or proposal, and preserves partial progress.
var (
	// ErrNotInCommittee is returned for a vote or proposal from an identity
	// outside the current committee.
	ErrNotInCommittee = errors.New("not in current committee")

	// ErrAlreadyFinalized is returned for a vote on a digest that has already
	// reached quorum. The vote is ignored; finalization is permanent.
	ErrAlreadyFinalized = errors.New("checkpoint already finalized")

	// ErrInvalidSignature is returned when a vote's signature does not verify
	// against the voter's registered public key.
	ErrInvalidSignature = errors.New("invalid vote signature")
)

// Engine tallies per-checkpoint votes against the live committee and declares
// finality at quorum. Each node runs its own Engine; engines share a State so
// their votes count into the same tallies.
//
// Votes are signatures over the checkpoint digest. Before counting a vote,
// the engine verifies the signature against the voter's public key from the
// committee registry; a vote the engine cannot verify is dropped.
type Engine struct {
	state     *State
	committee *committee.Committee
	scheme    keys.Scheme
	store     dag.Store
	logger    *logrus.Entry
}

// NewEngine instantiates an Engine around a shared State.
func NewEngine(
	state *State,
	c *committee.Committee,
	scheme keys.Scheme,
	store dag.Store,
	logger *logrus.Entry,
) *Engine {
	return &Engine{
		state:     state,
		committee: c,
		scheme:    scheme,
		store:     store,
		logger:    logger,
	}
}

// State returns the shared consensus state.
func (e *Engine) State() *State {
	return e.state
}

// Propose submits a checkpoint for finalization on behalf of a committee
// leader. The proposal counts as the proposer's own first vote.
func (e *Engine) Propose(checkpoint *dag.Checkpoint, proposer string, privKey []byte) error {
	if !e.committee.Contains(proposer) {
		e.logger.WithField("proposer", proposer).Warn("Proposer not in current committee")
		return ErrNotInCommittee
	}

	digest := checkpoint.Hex()

	e.state.SetCohort(digest, checkpoint.Cohort)

	e.logger.WithFields(logrus.Fields{
		"checkpoint": digest,
		"proposer":   proposer,
		"cohort":     len(checkpoint.Cohort),
	}).Debug("Proposing checkpoint")

	return e.CastVote(digest, proposer, privKey)
}

// CastVote casts a committee member's vote for a checkpoint digest. The vote
// is a signature over the digest. Re-voting by the same voter overwrites its
// prior signature and never changes the count. When the vote takes the tally
// to quorum, the digest is finalized exactly once and its tally discarded.
func (e *Engine) CastVote(digest string, voter string, privKey []byte) error {
	member, ok := e.committee.Member(voter)
	if !ok {
		e.logger.WithFields(logrus.Fields{
			"voter":      voter,
			"checkpoint": digest,
		}).Warn("Voter not in current committee")
		return ErrNotInCommittee
	}

	if e.state.IsFinalized(digest) {
		e.logger.WithField("checkpoint", digest).Debug("Vote on finalized checkpoint ignored")
		return ErrAlreadyFinalized
	}

	signature, err := e.scheme.Sign(privKey, []byte(digest))
	if err != nil {
		return err
	}

	if !e.scheme.Verify(member.PubKeyBytes(), []byte(digest), signature) {
		e.logger.WithFields(logrus.Fields{
			"voter":      voter,
			"checkpoint": digest,
		}).Warn("Vote signature does not verify against registered key")
		return ErrInvalidSignature
	}

	e.recordCohort(digest)

	finalized, err := e.state.AddVote(digest, voter, signature, e.committee.Quorum)
	if err != nil {
		return err
	}

	if finalized {
		e.logger.WithFields(logrus.Fields{
			"checkpoint": digest,
			"quorum":     e.committee.Quorum(),
		}).Info("Checkpoint finalized")
	} else {
		e.logger.WithFields(logrus.Fields{
			"checkpoint": digest,
			"voter":      voter,
			"votes":      e.state.PendingVotes(digest),
		}).Debug("Vote recorded")
	}

	return nil
}

// CountVote records an externally produced vote: a signature over the digest
// by a committee member's key, received from any transport. The signature is
// verified before counting.
func (e *Engine) CountVote(digest string, voter string, signature []byte) error {
	member, ok := e.committee.Member(voter)
	if !ok {
		e.logger.WithFields(logrus.Fields{
			"voter":      voter,
			"checkpoint": digest,
		}).Warn("Voter not in current committee")
		return ErrNotInCommittee
	}

	if e.state.IsFinalized(digest) {
		e.logger.WithField("checkpoint", digest).Debug("Vote on finalized checkpoint ignored")
		return ErrAlreadyFinalized
	}

	if !e.scheme.Verify(member.PubKeyBytes(), []byte(digest), signature) {
		e.logger.WithFields(logrus.Fields{
			"voter":      voter,
			"checkpoint": digest,
		}).Warn("Vote signature does not verify against registered key")
		return ErrInvalidSignature
	}

	e.recordCohort(digest)

	_, err := e.state.AddVote(digest, voter, signature, e.committee.Quorum)

	return err
}

// recordCohort makes the cohort available for the finalization event when the
// checkpoint is present in the local store and was not proposed through this
// engine.
func (e *Engine) recordCohort(digest string) {
	if e.store == nil {
		return
	}
	if checkpoint, err := e.store.GetCheckpoint(digest); err == nil {
		e.state.SetCohort(digest, checkpoint.Cohort)
	}
}

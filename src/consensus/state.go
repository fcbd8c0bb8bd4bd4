package consensus

import (
	"sync"
)

// FinalizedCheckpoint is the event emitted when a checkpoint reaches quorum.
// Downstream collaborators (payout schedulers, reputation updaters,
// governance) subscribe to these without participating in finality.
type FinalizedCheckpoint struct {
	Digest string
	Cohort []string
}

// State is the consensus state shared by every engine in a process: the
// pending vote tallies, the finalized set, and the subscriber list. It is an
// explicit, lock-guarded store passed by reference to each node's Engine, so
// that votes cast through different engines count towards the same tally.
//
// The check-and-finalize sequence runs under the state mutex: when two voters
// reach the threshold concurrently, exactly one of them transitions the
// digest into the finalized set. Vote tallies are ephemeral; the pending
// entry is discarded the instant its digest finalizes. The finalized set is
// append-only and membership is permanent.
type State struct {
	mu sync.Mutex

	pendingVotes map[string]map[string][]byte // digest => voter => signature
	cohorts      map[string][]string          // digest => cohort batch digests

	finalized      map[string]bool
	finalizedOrder []string

	subscribers []chan FinalizedCheckpoint
}

// NewState creates an empty consensus State.
func NewState() *State {
	return &State{
		pendingVotes: make(map[string]map[string][]byte),
		cohorts:      make(map[string][]string),
		finalized:    make(map[string]bool),
	}
}

// Subscribe registers a new subscriber and returns the channel on which it
// will receive every subsequent finalization event. Events are delivered in
// finalization order; subscribers must drain their channel.
func (s *State) Subscribe() <-chan FinalizedCheckpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan FinalizedCheckpoint, 64)
	s.subscribers = append(s.subscribers, ch)

	return ch
}

// SetCohort records the cohort of a checkpoint so that the finalization event
// can carry it. Recording again is a no-op.
func (s *State) SetCohort(digest string, cohort []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cohorts[digest]; !ok {
		s.cohorts[digest] = cohort
	}
}

// IsFinalized reports whether a digest is in the finalized set.
func (s *State) IsFinalized(digest string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.finalized[digest]
}

// Finalized returns the finalized digests in finalization order.
func (s *State) Finalized() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]string, len(s.finalizedOrder))
	copy(res, s.finalizedOrder)

	return res
}

// PendingVotes returns the number of distinct voters recorded for a digest.
// It is zero for finalized digests, whose tallies have been discarded.
func (s *State) PendingVotes(digest string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pendingVotes[digest])
}

// AddVote records a voter's signature for a digest and runs the quorum check
// atomically. Re-voting overwrites the voter's own prior signature; it never
// double-counts. The quorum threshold is read fresh, inside the critical
// section, so a committee rotation between votes is reflected at the next
// check. The returned bool reports whether this vote finalized the digest.
//
// When the digest finalizes: it joins the finalized set, its tally is
// discarded, and the finalization event is delivered to every subscriber
// (after the lock is released).
func (s *State) AddVote(digest, voter string, signature []byte, quorum func() int) (bool, error) {
	s.mu.Lock()

	if s.finalized[digest] {
		s.mu.Unlock()
		return false, ErrAlreadyFinalized
	}

	votes, ok := s.pendingVotes[digest]
	if !ok {
		votes = make(map[string][]byte)
		s.pendingVotes[digest] = votes
	}
	votes[voter] = signature

	if len(votes) < quorum() {
		s.mu.Unlock()
		return false, nil
	}

	s.finalized[digest] = true
	s.finalizedOrder = append(s.finalizedOrder, digest)
	delete(s.pendingVotes, digest)

	event := FinalizedCheckpoint{
		Digest: digest,
		Cohort: s.cohorts[digest],
	}
	subscribers := make([]chan FinalizedCheckpoint, len(s.subscribers))
	copy(subscribers, s.subscribers)

	s.mu.Unlock()

	for _, ch := range subscribers {
		ch <- event
	}

	return true, nil
}

package committee

import (
	"sync"
)

// Committee holds the current validator set and the full history of prior
// sets. The member list is only ever replaced wholesale by Rotate, never
// mutated incrementally. Reads always reflect the list that is current at the
// time of the call; the finality engine relies on this to evaluate quorum
// against the live committee size at each check.
type Committee struct {
	mu sync.RWMutex

	members   []*Member
	byMoniker map[string]*Member
	history   [][]*Member
}

// NewCommittee creates a Committee from the genesis validator list. The
// genesis list is the first entry of the history.
func NewCommittee(members []*Member) *Committee {
	c := &Committee{}
	c.install(members)
	c.history = [][]*Member{members}
	return c
}

func (c *Committee) install(members []*Member) {
	byMoniker := make(map[string]*Member, len(members))
	for _, m := range members {
		byMoniker[m.Moniker] = m
	}

	c.members = members
	c.byMoniker = byMoniker
}

// Current returns the active validator list.
func (c *Committee) Current() []*Member {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]*Member, len(c.members))
	copy(res, c.members)

	return res
}

// Member returns the active member with the given moniker.
func (c *Committee) Member(moniker string) (*Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.byMoniker[moniker]

	return m, ok
}

// Contains reports whether the moniker belongs to the active committee.
func (c *Committee) Contains(moniker string) bool {
	_, ok := c.Member(moniker)
	return ok
}

// Len returns the size of the active committee.
func (c *Committee) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.members)
}

// Quorum returns the number of distinct votes required to finalize a
// checkpoint: floor(2N/3) + 1 for the current committee size N.
func (c *Committee) Quorum() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return 2*len(c.members)/3 + 1
}

// Rotate replaces the active validator list and appends the incoming list to
// the history, so the history contains every list that was ever current.
func (c *Committee) Rotate(members []*Member) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.install(members)
	c.history = append(c.history, members)
}

// History returns every validator list that was ever current, oldest first.
func (c *Committee) History() [][]*Member {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([][]*Member, len(c.history))
	copy(res, c.history)

	return res
}

// Monikers returns the monikers of the active committee, in list order.
func (c *Committee) Monikers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]string, len(c.members))
	for i, m := range c.members {
		res[i] = m.Moniker
	}

	return res
}

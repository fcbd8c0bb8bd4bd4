package crypto

// MerkleRoot computes the root of a Merkle tree over a list of digest strings.
// Leaves are the SHA256 hashes of the items. Levels are combined pairwise,
// bottom-up; when a level has an odd number of elements, the last element is
// duplicated before pairing.
//
// The same ordered input list always produces the same root. A single-element
// list's root is the hash of that element, and an empty list hashes to
// SHA256(nil).
func MerkleRoot(items []string) []byte {
	if len(items) == 0 {
		return SHA256(nil)
	}

	level := make([][]byte, len(items))
	for i, item := range items {
		level[i] = SHA256([]byte(item))
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, SimpleHashFromTwoHashes(level[i], level[i+1]))
		}
		level = next
	}

	return level[0]
}

package ledger

// Pool enumerates the named fee pools. The set is closed: fee shares can only
// be routed to one of these four accumulators.
type Pool uint8

const (
	// PoolValidator receives the validator share of collected fees, plus any
	// flooring remainder.
	PoolValidator Pool = iota
	// PoolUBI receives the universal-basic-income share.
	PoolUBI
	// PoolCarbon receives the carbon-offset share.
	PoolCarbon
	// PoolGratitude receives the gratitude share.
	PoolGratitude

	numPools
)

// feeWeights are the fixed fee-split percentages, indexed by Pool. They sum
// to 100.
var feeWeights = [numPools]int64{
	PoolValidator: 60,
	PoolUBI:       20,
	PoolCarbon:    10,
	PoolGratitude: 10,
}

// Pools lists all pools in split order.
func Pools() []Pool {
	return []Pool{PoolValidator, PoolUBI, PoolCarbon, PoolGratitude}
}

// String ...
func (p Pool) String() string {
	switch p {
	case PoolValidator:
		return "validator"
	case PoolUBI:
		return "ubi"
	case PoolCarbon:
		return "carbon"
	case PoolGratitude:
		return "gratitude"
	}
	return "unknown"
}

// Split divides totalFee between the pools using integer floor division per
// share. The arithmetic remainder is added to the validator share, so the
// shares always sum exactly to totalFee. For totalFee < 1 all shares are
// zero.
func Split(totalFee int64) [numPools]int64 {
	var shares [numPools]int64

	if totalFee < 1 {
		return shares
	}

	var distributed int64
	for _, p := range Pools() {
		shares[p] = totalFee * feeWeights[p] / 100
		distributed += shares[p]
	}

	shares[PoolValidator] += totalFee - distributed

	return shares
}

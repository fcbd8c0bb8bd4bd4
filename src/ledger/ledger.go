package ledger

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrInsufficientFunds is returned by ApplyTransaction when the sender's
// balance does not cover amount plus fee. The transfer is skipped; no state
// is mutated.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNegativeAmount is returned when a transfer carries a negative amount or
// fee.
var ErrNegativeAmount = errors.New("negative amount")

// Ledger holds account balances and the fee pools. It records the
// consequences of finalized transactions: ApplyTransaction and DistributeFee
// are its only writers besides the Credit faucet used to seed genesis
// balances. All operations are deterministic given the same ordered input, so
// identical finalized checkpoints yield identical ledger state on every node.
type Ledger struct {
	mu sync.RWMutex

	balances map[string]int64
	pools    [numPools]int64

	logger *logrus.Entry
}

// NewLedger creates an empty Ledger.
func NewLedger(logger *logrus.Entry) *Ledger {
	return &Ledger{
		balances: make(map[string]int64),
		logger:   logger,
	}
}

// ApplyTransaction debits the sender by amount+fee and credits the recipient
// by amount. The fee leaves the sender's balance here but is not credited
// anywhere; it must be separately routed via DistributeFee. On failure
// nothing is mutated.
func (l *Ledger) ApplyTransaction(sender, recipient string, amount, fee int64) error {
	if amount < 0 || fee < 0 {
		return ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	total := amount + fee

	if l.balances[sender] < total {
		l.logger.WithFields(logrus.Fields{
			"sender":  sender,
			"balance": l.balances[sender],
			"needed":  total,
		}).Warn("Insufficient funds")
		return ErrInsufficientFunds
	}

	l.balances[sender] -= total
	l.balances[recipient] += amount

	return nil
}

// DistributeFee splits totalFee between the fee pools and credits each pool
// by its share. The shares always sum exactly to totalFee.
func (l *Ledger) DistributeFee(totalFee int64) {
	shares := Split(totalFee)

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range Pools() {
		l.pools[p] += shares[p]
	}
}

// Credit unconditionally credits an account. Negative amounts are rejected
// with a warning and no mutation.
func (l *Ledger) Credit(account string, amount int64) {
	if amount < 0 {
		l.logger.WithFields(logrus.Fields{
			"account": account,
			"amount":  amount,
		}).Warn("Attempted to credit a negative amount")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[account] += amount
}

// GetBalance returns the balance of an account, zero for unknown accounts.
func (l *Ledger) GetBalance(account string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[account]
}

// PoolBalance returns the accumulated total of a fee pool.
func (l *Ledger) PoolBalance(p Pool) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.pools[p]
}

// PoolBalances returns a snapshot of all pool totals keyed by pool name.
func (l *Ledger) PoolBalances() map[string]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res := make(map[string]int64, int(numPools))
	for _, p := range Pools() {
		res[p.String()] = l.pools[p]
	}

	return res
}

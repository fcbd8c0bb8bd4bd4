package ledger

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/zialiel/zialiel/src/common"
)

func testLedger(t *testing.T) *Ledger {
	return NewLedger(common.NewTestEntry(t, logrus.DebugLevel))
}

func TestSplitConservation(t *testing.T) {
	for fee := int64(1); fee <= 1000; fee++ {
		shares := Split(fee)

		var sum int64
		for _, s := range shares {
			sum += s
		}

		if sum != fee {
			t.Fatalf("shares for fee %d sum to %d", fee, sum)
		}
	}
}

func TestSplitWeights(t *testing.T) {
	shares := Split(100)

	if shares[PoolValidator] != 60 {
		t.Fatalf("validator share of 100 should be 60, not %d", shares[PoolValidator])
	}
	if shares[PoolUBI] != 20 {
		t.Fatalf("UBI share of 100 should be 20, not %d", shares[PoolUBI])
	}
	if shares[PoolCarbon] != 10 {
		t.Fatalf("carbon share of 100 should be 10, not %d", shares[PoolCarbon])
	}
	if shares[PoolGratitude] != 10 {
		t.Fatalf("gratitude share of 100 should be 10, not %d", shares[PoolGratitude])
	}
}

func TestSplitRemainder(t *testing.T) {
	// 15 splits into 9/3/1/1 by weight; the remainder of 1 goes to the
	// validator pool.
	shares := Split(15)

	if shares[PoolValidator] != 10 {
		t.Fatalf("validator share of 15 should be 10, not %d", shares[PoolValidator])
	}
	if shares[PoolUBI] != 3 {
		t.Fatalf("UBI share of 15 should be 3, not %d", shares[PoolUBI])
	}
	if shares[PoolCarbon] != 1 {
		t.Fatalf("carbon share of 15 should be 1, not %d", shares[PoolCarbon])
	}
	if shares[PoolGratitude] != 1 {
		t.Fatalf("gratitude share of 15 should be 1, not %d", shares[PoolGratitude])
	}
}

func TestSplitNonPositive(t *testing.T) {
	for _, fee := range []int64{0, -5} {
		shares := Split(fee)
		for _, s := range shares {
			if s != 0 {
				t.Fatalf("non-positive fee %d should yield zero shares", fee)
			}
		}
	}
}

func TestApplyTransaction(t *testing.T) {
	l := testLedger(t)

	l.Credit("alice", 110)

	if err := l.ApplyTransaction("alice", "bob", 100, 10); err != nil {
		t.Fatal(err)
	}

	if b := l.GetBalance("alice"); b != 0 {
		t.Fatalf("alice's balance should be 0, not %d", b)
	}
	if b := l.GetBalance("bob"); b != 100 {
		t.Fatalf("bob's balance should be 100, not %d", b)
	}
}

func TestApplyTransactionInsufficientFunds(t *testing.T) {
	l := testLedger(t)

	l.Credit("alice", 50)

	err := l.ApplyTransaction("alice", "bob", 100, 10)
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if b := l.GetBalance("alice"); b != 50 {
		t.Fatalf("failed transfer should not mutate sender balance, got %d", b)
	}
	if b := l.GetBalance("bob"); b != 0 {
		t.Fatalf("failed transfer should not mutate recipient balance, got %d", b)
	}
}

func TestApplyTransactionNegative(t *testing.T) {
	l := testLedger(t)

	l.Credit("alice", 100)

	if err := l.ApplyTransaction("alice", "bob", -10, 1); err != ErrNegativeAmount {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if err := l.ApplyTransaction("alice", "bob", 10, -1); err != ErrNegativeAmount {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestCreditNegative(t *testing.T) {
	l := testLedger(t)

	l.Credit("alice", 100)
	l.Credit("alice", -50)

	if b := l.GetBalance("alice"); b != 100 {
		t.Fatalf("negative credit should be a no-op, got %d", b)
	}
}

func TestDistributeFee(t *testing.T) {
	l := testLedger(t)

	l.DistributeFee(10)
	l.DistributeFee(5)

	var total int64
	for _, p := range Pools() {
		total += l.PoolBalance(p)
	}

	if total != 15 {
		t.Fatalf("pool totals should sum to 15, not %d", total)
	}

	balances := l.PoolBalances()
	if len(balances) != 4 {
		t.Fatalf("expected 4 pools, got %d", len(balances))
	}
}

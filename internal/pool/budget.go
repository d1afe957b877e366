package pool

import (
	"sync/atomic"
)

// Budget caps the total number of page outcomes a run may produce. All
// methods are safe for concurrent use.
type Budget struct {
	unlimited bool
	remaining atomic.Int64
}

// NewBudget returns a budget allowing exactly limit acquisitions.
// Negative limits behave like zero.
func NewBudget(limit int) *Budget {
	b := &Budget{}
	if limit > 0 {
		b.remaining.Store(int64(limit))
	}
	return b
}

// Unlimited returns a budget that never exhausts.
func Unlimited() *Budget {
	return &Budget{unlimited: true}
}

// TryAcquire atomically claims one unit. It reports false once the
// budget is exhausted; the counter never goes negative.
func (b *Budget) TryAcquire() bool {
	if b.unlimited {
		return true
	}
	for {
		cur := b.remaining.Load()
		if cur <= 0 {
			return false
		}
		if b.remaining.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Exhausted reports whether no units remain. Always false for an
// unlimited budget.
func (b *Budget) Exhausted() bool {
	return !b.unlimited && b.remaining.Load() <= 0
}

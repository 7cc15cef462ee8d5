package kv

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
)

// PredicateLock implements the RowPredicateLock contract of spec.md
// §6.2: an in-memory registry of open scan ranges per index, consulted
// (not waited on) by a concurrent insert to decide whether it falls
// inside a range some repeatable-read scan has promised to observe
// consistently. Grounded on the teacher's in-process
// TransactionManager.txns map (pkg/resource/badger/transaction.go),
// keyed by index name instead of transaction ID, and tagged with a
// uuid per guard so a caller can tell two overlapping guards on the
// same index apart in logs.
type PredicateLock struct {
	mu      sync.Mutex
	byIndex map[string][]*rangeGuard
}

type rangeGuard struct {
	id                          uuid.UUID
	low, high                   []byte
	lowInclusive, highInclusive bool
}

func (g *rangeGuard) contains(key []byte) bool {
	if g.low != nil {
		cmp := bytes.Compare(key, g.low)
		if cmp < 0 || (cmp == 0 && !g.lowInclusive) {
			return false
		}
	}
	if g.high != nil {
		cmp := bytes.Compare(key, g.high)
		if cmp > 0 || (cmp == 0 && !g.highInclusive) {
			return false
		}
	}
	return true
}

func NewPredicateLock() *PredicateLock {
	return &PredicateLock{byIndex: make(map[string][]*rangeGuard)}
}

// OpenAcquire registers a guard over [low,high] on indexName and
// returns a closer that removes it; the caller is responsible for
// calling the closer on every exit path (success, error, or panic),
// per spec.md §4's scoped-acquisition rule.
func (p *PredicateLock) OpenAcquire(indexName string, low, high []byte, lowInclusive, highInclusive bool) func() {
	g := &rangeGuard{id: uuid.New(), low: low, high: high, lowInclusive: lowInclusive, highInclusive: highInclusive}
	p.mu.Lock()
	p.byIndex[indexName] = append(p.byIndex[indexName], g)
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		guards := p.byIndex[indexName]
		for i, existing := range guards {
			if existing == g {
				p.byIndex[indexName] = append(guards[:i], guards[i+1:]...)
				break
			}
		}
	}
}

// TryOpenAcquire is the non-blocking form of OpenAcquire. This lock
// never blocks its callers — it is only ever consulted by AddGuard —
// so it always succeeds.
func (p *PredicateLock) TryOpenAcquire(indexName string, low, high []byte, lowInclusive, highInclusive bool) (func(), bool) {
	return p.OpenAcquire(indexName, low, high, lowInclusive, highInclusive), true
}

// AddGuard reports whether key falls inside any range currently open
// on indexName. The table write path does not call it: Insert registers
// its own point guard with OpenAcquire and does not check for
// overlapping open ranges.
func (p *PredicateLock) AddGuard(indexName string, key []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, g := range p.byIndex[indexName] {
		if g.contains(key) {
			return true
		}
	}
	return false
}

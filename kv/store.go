// Package kv adapts the ordered-KV-store contract consumed by the core
// (spec.md §6.1/§6.2) onto Badger, grounded on the teacher's
// pkg/resource/badger package: Store plays the role of
// BadgerDataSource, Index plays IndexManager's per-index key-prefix
// scheme, and Cursor wraps a badger.Iterator the way the teacher's
// cursor-shaped helpers wrap badger.Txn.
package kv

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Store owns one Badger database and the sequences it hands out for
// automatic columns.
type Store struct {
	db     *badger.DB
	logger *zap.Logger

	seqMu sync.Mutex
	seqs  map[string]*badger.Sequence
}

// Open opens (creating if necessary) the Badger database described by
// opts. A nil logger defaults to zap.NewNop(), matching the rest of
// this module's packages.
func Open(opts *Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := badger.Open(opts.badgerOptions())
	if err != nil {
		return nil, fmt.Errorf("kv: open: %w", err)
	}
	return &Store{db: db, logger: logger, seqs: make(map[string]*badger.Sequence)}, nil
}

// Close releases every sequence this store handed out, then closes the
// underlying database.
func (s *Store) Close() error {
	s.seqMu.Lock()
	for name, seq := range s.seqs {
		if err := seq.Release(); err != nil {
			s.logger.Warn("kv: release sequence failed", zap.String("sequence", name), zap.Error(err))
		}
	}
	s.seqs = make(map[string]*badger.Sequence)
	s.seqMu.Unlock()
	return s.db.Close()
}

// Begin starts a new Transaction, read-only or read-write, under the
// given isolation level (spec.md §6.2). The transaction itself is the
// outermost scope (depth 1); Enter/Exit nest further scopes inside it.
func (s *Store) Begin(readOnly bool, isolation IsolationLevel) *Transaction {
	return &Transaction{txn: s.db.NewTransaction(!readOnly), isolation: isolation, depth: 1}
}

// Index returns the named Index, a key sub-range within this store
// identified by the prefix "row:<name>:", mirroring the teacher's
// PrefixRow/PrefixIndex scheme (pkg/resource/badger/types.go).
func (s *Store) Index(name string) *Index {
	return &Index{store: s, name: name, prefix: []byte("row:" + name + ":")}
}

// Sequence returns the monotonic badger.Sequence backing name's
// automatic-column generator, creating and banding it (claiming
// bandwidth keys at a time) on first use. Grounded on the teacher's
// SequenceManager (pkg/resource/badger/transaction.go).
func (s *Store) Sequence(name string, bandwidth uint64) (*badger.Sequence, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	if seq, ok := s.seqs[name]; ok {
		return seq, nil
	}
	seq, err := s.db.GetSequence([]byte("seq:"+name), bandwidth)
	if err != nil {
		return nil, fmt.Errorf("kv: sequence %s: %w", name, err)
	}
	s.seqs[name] = seq
	return seq, nil
}

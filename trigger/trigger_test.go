package trigger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/badgerrow/rowindex/rowdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHooks struct {
	mu       sync.Mutex
	inserted int
}

func (h *recordingHooks) Insert(txn any, row *rowdata.Row) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inserted++
	return nil
}
func (h *recordingHooks) Store(txn any, oldRow, newRow *rowdata.Row) error { return nil }
func (h *recordingHooks) Update(txn any, row *rowdata.Row, key, oldValue, newValue []byte) error {
	return nil
}
func (h *recordingHooks) Delete(txn any, row *rowdata.Row, key, oldValue []byte) error { return nil }

func TestRunInvokesHooksUnderActiveTrigger(t *testing.T) {
	hooks := &recordingHooks{}
	holder := NewHolder(New(Active, hooks))

	err := Run(holder,
		func(h Hooks) error { return h.Insert(nil, nil) },
		func() error { return errors.New("should not run") },
	)
	require.NoError(t, err)
	assert.Equal(t, 1, hooks.inserted)
}

func TestRunSkipsHooksUnderSkipTrigger(t *testing.T) {
	holder := NewHolder(New(Skip, nil))
	called := false

	err := Run(holder,
		func(h Hooks) error { return errors.New("should not run") },
		func() error { called = true; return nil },
	)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRunWithNoTriggerInstalledSkipsHooks(t *testing.T) {
	holder := NewHolder(nil)
	called := false

	err := Run(holder,
		func(h Hooks) error { return errors.New("should not run") },
		func() error { called = true; return nil },
	)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRunUsesReplacementTrigger(t *testing.T) {
	hooks := &recordingHooks{}
	holder := NewHolder(New(Active, hooks))

	// Swap in a fresh trigger before Run starts; the old one is disabled
	// as part of the swap, and Run runs the hooks of the new one.
	holder.Replace(New(Active, hooks))

	err := Run(holder,
		func(h Hooks) error { return h.Insert(nil, nil) },
		func() error { return errors.New("should not run") },
	)
	require.NoError(t, err)
	assert.Equal(t, 1, hooks.inserted)
}

func TestHolderReplaceDrainsInFlightReader(t *testing.T) {
	hooks := &recordingHooks{}
	first := New(Active, hooks)
	holder := NewHolder(first)

	releaseReader := make(chan struct{})
	readerStarted := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		mode := first.LockShared()
		close(readerStarted)
		<-releaseReader
		if mode == Active {
			_ = hooks.Insert(nil, nil)
		}
		first.Unlock()
		close(readerDone)
	}()

	<-readerStarted

	replaceDone := make(chan struct{})
	go func() {
		holder.Replace(New(Active, hooks))
		close(replaceDone)
	}()

	// Replace must block on the drain until the in-flight reader
	// releases its shared lock.
	select {
	case <-replaceDone:
		t.Fatal("Replace returned before the in-flight reader released its lock")
	case <-time.After(20 * time.Millisecond):
	}

	close(releaseReader)
	<-readerDone
	<-replaceDone

	assert.Equal(t, 1, hooks.inserted)
	assert.NotSame(t, first, holder.Current())
}

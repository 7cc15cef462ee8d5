package trigger

// Run implements the write-path contract of spec.md §4.6 exactly:
//
//	loop:
//	  t := table.current_trigger()
//	  t.lock_shared()
//	  m := t.mode()
//	  if m == SKIP: proceed-without-hooks; release when done; break
//	  if m == DISABLED: t.release_shared(); continue
//	  proceed-with-hooks on t; release when done; break
//
// withHooks runs under an ACTIVE trigger's shared lock with that
// trigger's Hooks; withoutHooks runs under a SKIP trigger's shared
// lock. If holder has no trigger installed at all, withoutHooks runs
// with no lock held.
func Run(holder *Holder, withHooks func(Hooks) error, withoutHooks func() error) error {
	for {
		t := holder.Current()
		if t == nil {
			return withoutHooks()
		}
		switch t.LockShared() {
		case Skip:
			err := withoutHooks()
			t.Unlock()
			return err
		case Disabled:
			t.Unlock()
			continue
		default: // Active
			err := withHooks(t.HooksFor())
			t.Unlock()
			return err
		}
	}
}

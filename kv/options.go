package kv

import "github.com/dgraph-io/badger/v4"

// Options configures a Store's underlying Badger instance, mirroring
// the teacher's DataSourceConfig (pkg/resource/badger/types.go) pared
// down to the settings this package actually threads through to
// badger.Options.
type Options struct {
	// Dir is the on-disk data directory. Ignored when InMemory is true.
	Dir string

	// InMemory runs Badger with no disk persistence, as used by this
	// module's own tests.
	InMemory bool

	// SyncWrites syncs every commit to disk before it returns.
	SyncWrites bool

	// ValueThreshold is the size above which a value is stored in
	// Badger's value log instead of inline in the LSM tree.
	ValueThreshold int64
}

// DefaultOptions returns sane defaults for a disk-backed store rooted
// at dir.
func DefaultOptions(dir string) *Options {
	return &Options{
		Dir:            dir,
		SyncWrites:     false,
		ValueThreshold: 1 << 10,
	}
}

func (o *Options) badgerOptions() badger.Options {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(o.Dir)
	}
	return opts.WithSyncWrites(o.SyncWrites).WithValueThreshold(o.ValueThreshold).WithLogger(nil)
}

package dbobj

import (
	"time"

	"go.uber.org/zap"
)

type ObjectOption func(o *objectOption)

type objectOption struct {
	hooks  *Hooks
	logger *zap.Logger
}

// WithHooks sets the dispatcher used for save filters and actions.
func WithHooks(h *Hooks) ObjectOption {
	return func(o *objectOption) {
		o.hooks = h
	}
}

func WithLogger(l *zap.Logger) ObjectOption {
	return func(o *objectOption) {
		o.logger = l
	}
}

type StoreOption func(o *storeOption)

type storeOption struct {
	logger        *zap.Logger
	slowThreshold time.Duration
	counters      string
}

func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(o *storeOption) {
		o.logger = l
	}
}

// WithSlowThreshold makes statements slower than d log at warn level.
func WithSlowThreshold(d time.Duration) StoreOption {
	return func(o *storeOption) {
		o.slowThreshold = d
	}
}

// WithCounterCollection sets the collection the Mongo store allocates keys
// from. Defaults to "counters".
func WithCounterCollection(name string) StoreOption {
	return func(o *storeOption) {
		o.counters = name
	}
}

func newStoreOption(options []StoreOption) *storeOption {
	opt := &storeOption{
		counters: "counters",
	}
	for _, op := range options {
		op(opt)
	}

	if opt.logger == nil {
		opt.logger = zap.NewNop()
	}

	return opt
}

package btree

import "go.uber.org/zap"

// DuplicatePolicy decides what Insert does with a key that is already present.
type DuplicatePolicy int

const (
	// OverwriteDuplicates replaces the stored value.
	OverwriteDuplicates DuplicatePolicy = iota
	// RejectDuplicates keeps the stored value and ignores the insert.
	RejectDuplicates
)

func (p DuplicatePolicy) String() string {
	switch p {
	case OverwriteDuplicates:
		return "overwrite"
	case RejectDuplicates:
		return "reject"
	default:
		return "unknown"
	}
}

// Option configures a Btree built by NewBTree.
type Option func(*Btree)

// WithLogger logs root splits and collapses at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Btree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithDuplicatePolicy sets how Insert treats a key that is already stored.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(t *Btree) {
		t.policy = p
	}
}

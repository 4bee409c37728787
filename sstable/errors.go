package sstable

import "github.com/cockroachdb/errors"

var (
	// ErrUnsorted is returned by Writer.Add when keys do not strictly ascend.
	ErrUnsorted = errors.New("sstable: keys must be added in ascending order")
	// ErrCorrupt is returned by Open for files that fail the layout checks.
	ErrCorrupt = errors.New("sstable: corrupt table")
)

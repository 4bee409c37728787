package wal

import "github.com/cockroachdb/errors"

var (
	// ErrClosed is returned when writing to a journal after Close.
	ErrClosed = errors.New("wal: writer closed")
	// ErrTornRecord marks a record cut short, usually by a crash mid-write.
	// Everything before Reader.Offset is intact.
	ErrTornRecord = errors.New("wal: torn record")
)

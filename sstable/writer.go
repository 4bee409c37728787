package sstable

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
)

// 2 methods -- `Close() error` and `Sync() error`
type syncCloser interface {
	io.Closer
	Sync() error
}

type syncWriteCloser interface {
	io.Writer
	syncCloser
}

// Writer lays out pairs handed to it in ascending key order as
// data entries | offset table | footer.
type Writer struct {
	file    syncCloser
	bw      *bufio.Writer
	block   *blockWriter
	lastKey string
	count   int
}

func NewWriter(file syncWriteCloser) *Writer {
	return &Writer{
		file:  file,
		bw:    bufio.NewWriter(file),
		block: newBlockWriter(),
	}
}

func (w *Writer) Add(key, val string) error {
	if w.count > 0 && key <= w.lastKey {
		return errors.Wrapf(ErrUnsorted, "%q after %q", key, w.lastKey)
	}
	if err := w.block.add(key, val); err != nil {
		return err
	}
	w.lastKey = key
	w.count++

	// hand over staged entries once a block's worth has accumulated
	if w.block.buf.Len() >= maxBlockSize {
		return w.flushBlock()
	}
	return nil
}

func (w *Writer) flushBlock() error {
	if _, err := w.bw.ReadFrom(w.block.buf); err != nil {
		return errors.Wrap(err, "sstable: write block")
	}
	return nil
}

func (w *Writer) Close() error {
	if err := w.block.finish(); err != nil {
		return err
	}
	if err := w.flushBlock(); err != nil {
		return err
	}
	// Flush any remaining data from the buffer.
	if err := w.bw.Flush(); err != nil {
		return errors.Wrap(err, "sstable: flush")
	}
	// Force OS to flush its I/O buffers and write data to disk.
	if err := w.file.Sync(); err != nil {
		return errors.Wrap(err, "sstable: sync")
	}
	err := w.file.Close()
	w.bw = nil
	w.file = nil
	return errors.Wrap(err, "sstable: close")
}

package wal

import (
	"bytes"
	"encoding/binary"
	"io"

	"btree/encoder"

	"github.com/cockroachdb/errors"
)

const headerSize = 3

const (
	chunkTypeFull   = 1
	chunkTypeFirst  = 2
	chunkTypeMiddle = 3
	chunkTypeLast   = 4
)

const blockSize = 4 << 10 // 4 KiB

type block struct {
	buf    [blockSize]byte // used as a scratch space for writing records in memory
	offset int             // current position within the block that data should be written to or read from
	len    int             // total size of the data block (can be <blockSize for last block)
}

type syncWriteCloser interface {
	io.WriteCloser
	Sync() error
}

// assembles data blocks in memory before writing them to the journal file
type Writer struct {
	block   *block
	file    syncWriteCloser
	encoder *encoder.Encoder
	buf     *bytes.Buffer // staging area for splitting the full payload into chunks that fit into the fixed-size block buffer
}

// NewWriter appends to a journal that already holds size bytes. A journal left
// unsealed by a crash ends mid-block, so writing resumes at that block offset.
func NewWriter(logFile syncWriteCloser, size int64) *Writer {
	w := &Writer{
		block:   &block{},
		file:    logFile,
		encoder: encoder.NewEncoder(),
		buf:     &bytes.Buffer{},
	}
	w.block.offset = int(size % blockSize)
	return w
}

// handle the dynamic resizing of the bytes.Buffer based on the length of the incoming payload
func (w *Writer) scratchBuf(needed int) []byte {
	available := w.buf.Available()
	if needed > available {
		w.buf.Grow(needed)
	}
	buf := w.buf.AvailableBuffer()
	return buf[:needed]
}

// writeAndSync writes to the underlying journal file and forces a sync of its contents to stable storage
func (w *Writer) writeAndSync(p []byte) error {
	if _, err := w.file.Write(p); err != nil {
		return errors.Wrap(err, "wal: write")
	}
	if err := w.file.Sync(); err != nil {
		return errors.Wrap(err, "wal: sync")
	}
	return nil
}

// sealBlock applies zero padding to the current block and calls writeAndSync to persist it to stable storage
func (w *Writer) sealBlock() error {
	b := w.block
	// nothing written to this block yet, so there is nothing to pad
	if b.offset == 0 {
		return nil
	}
	clear(b.buf[b.offset:])
	if err := w.writeAndSync(b.buf[b.offset:]); err != nil {
		return err
	}
	b.offset = 0
	return nil
}

func (w *Writer) record(key string, val []byte) error {
	if w.file == nil {
		return ErrClosed
	}
	// determine the maximum possible payload length
	keyLen, valLen := len(key), len(val)
	maxLen := 2*binary.MaxVarintLen64 + keyLen + valLen
	// place the entire payload into the scratch buffer
	scratch := w.scratchBuf(maxLen)
	n := binary.PutUvarint(scratch[:], uint64(keyLen))
	n += binary.PutUvarint(scratch[n:], uint64(valLen))
	copy(scratch[n:], key)
	copy(scratch[n+keyLen:], val)
	scratch = scratch[:n+keyLen+valLen]

	// start splitting the payload into chunks
	for chunk := 0; len(scratch) > 0; chunk++ {
		b := w.block
		// seal the block if it doesn't have enough room to accommodate this chunk
		if b.offset+headerSize >= blockSize {
			if err := w.sealBlock(); err != nil {
				return err
			}
		}
		// fill the data block with as much of the available payload as possible
		buf := b.buf[b.offset:]
		dataLen := copy(buf[headerSize:], scratch)
		binary.LittleEndian.PutUint16(buf, uint16(dataLen))
		scratch = scratch[dataLen:]
		b.offset += dataLen + headerSize

		// determine the chunk type and write it to the chunk header
		switch last := len(scratch) == 0; {
		case chunk == 0 && last:
			buf[2] = chunkTypeFull
		case chunk == 0:
			buf[2] = chunkTypeFirst
		case last:
			buf[2] = chunkTypeLast
		default:
			buf[2] = chunkTypeMiddle
		}

		// flush updated data block portion to disk
		if err := w.writeAndSync(buf[:dataLen+headerSize]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) RecordInsertion(key, val string) error {
	return w.record(key, w.encoder.Encode(encoder.OpKindSet, val))
}

func (w *Writer) RecordDeletion(key string) error {
	return w.record(key, w.encoder.Encode(encoder.OpKindDelete, ""))
}

func (w *Writer) Close() error {
	if w.file == nil {
		return ErrClosed
	}
	// seal remaining portion of data block's buffer in memory
	if err := w.sealBlock(); err != nil {
		return err
	}
	err := w.file.Close()
	w.file = nil
	return errors.Wrap(err, "wal: close")
}

package wal

import (
	"bytes"
	"encoding/binary"
	"io"

	"btree/encoder"

	"github.com/cockroachdb/errors"
)

// retrieve records from a journal file, one block at a time
type Reader struct {
	file     io.Reader
	blockNum int //-1 -> no blocks loaded yet
	block    *block
	encoder  *encoder.Encoder
	buf      *bytes.Buffer
	offset   int64 // end of the last record returned by Next
}

func NewReader(logFile io.Reader) *Reader {
	return &Reader{
		file:     logFile,
		blockNum: -1,
		block:    &block{},
		encoder:  encoder.NewEncoder(),
		buf:      &bytes.Buffer{},
	}
}

// Offset returns the file position just past the last record read successfully.
func (r *Reader) Offset() int64 {
	return r.offset
}

// sequentially load data blocks (4 KiB each) from the journal into memory
func (r *Reader) loadNextBlock() (err error) {
	b := r.block
	b.len, err = io.ReadFull(r.file, b.buf[:])
	// The last block may be shorter than blockSize if the journal was not sealed
	// before the process stopped, so io.ErrUnexpectedEOF is expected here.
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	b.offset = 0
	r.blockNum++
	return nil
}

/*
Next goes through the journal block by block and chunk by chunk to reconstruct the full
representation of each record. It returns io.EOF once no records are left, and an error
marked with ErrTornRecord if the journal ends in the middle of a record.
*/
func (r *Reader) Next() (key string, val *encoder.EncodedValue, err error) {
	b := r.block
	// load the very first block into memory
	if r.blockNum == -1 {
		if err = r.loadNextBlock(); err != nil {
			return
		}
	}
	for {
		// Only the last block of an unsealed journal is short. Leftover bytes
		// there that cannot hold a chunk header are a write cut short by a crash.
		remaining := b.len - b.offset
		short := b.len < blockSize
		if short && remaining > 0 && remaining <= headerSize {
			err = r.torn("chunk header cut short")
			return
		}
		// the writer never starts a chunk in the last headerSize bytes of a block
		if remaining <= headerSize {
			if err = r.loadNextBlock(); err != nil {
				return
			}
			continue
		}
		if b.buf[b.offset+2] != 0 {
			break
		}
		// a zero chunk type is the padding of a block sealed by Close, which
		// always fills the block
		if short {
			err = r.torn("zero chunk type")
			return
		}
		b.offset = b.len
	}
	// start with a clean scratch buffer
	r.buf.Reset()
	// recover all chunks to form the full payload
	for chunk := 0; ; chunk++ {
		start := b.offset
		if b.len-start < headerSize {
			err = r.torn("chunk header cut short")
			return
		}
		dataLen := int(binary.LittleEndian.Uint16(b.buf[start : start+2]))
		chunkType := b.buf[start+2]
		if start+headerSize+dataLen > b.len {
			err = r.torn("chunk payload cut short")
			return
		}
		r.buf.Write(b.buf[start+headerSize : start+headerSize+dataLen])
		b.offset += headerSize + dataLen
		if chunkType == chunkTypeFull || chunkType == chunkTypeLast {
			break
		}
		// load next block to retrieve the subsequent chunk
		if err = r.loadNextBlock(); err != nil {
			if errors.Is(err, io.EOF) {
				err = r.torn("missing continuation chunk")
			}
			return
		}
	}

	// parse the record
	scratch := r.buf.Bytes()
	keyLen, n := binary.Uvarint(scratch)
	if n <= 0 {
		err = r.torn("bad key length")
		return
	}
	valLen, m := binary.Uvarint(scratch[n:])
	if m <= 0 || uint64(len(scratch)-n-m) != keyLen+valLen {
		err = r.torn("bad value length")
		return
	}
	key = string(scratch[n+m : n+m+int(keyLen)])
	val, err = r.encoder.Parse(scratch[n+m+int(keyLen):])
	if err != nil {
		return "", nil, errors.Mark(err, ErrTornRecord)
	}
	r.offset = int64(r.blockNum)*blockSize + int64(b.offset)
	return key, val, nil
}

func (r *Reader) torn(reason string) error {
	return errors.Wrapf(ErrTornRecord, "%s after offset %d", reason, r.offset)
}

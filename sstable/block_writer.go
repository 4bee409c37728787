package sstable

import (
	"bytes"
	"encoding/binary"
)

const (
	// maxBlockSize is how much the writer stages in memory before handing it to the file.
	maxBlockSize = 4096
	// footer = numOffsets (4B) | dataLen (4B)
	footerSize = 8
)

// stages data entries and remembers where each of them starts
type blockWriter struct {
	buf        *bytes.Buffer //bytes.Buffer makes it easier to read/write/grow the buffer than []byte
	offsets    []uint32
	nextOffset uint32
}

func newBlockWriter() *blockWriter {
	bw := &blockWriter{}
	bw.buf = bytes.NewBuffer(make([]byte, 0, maxBlockSize))
	return bw
}

// use byte slice as an in-mem staging area for creating entries
func (b *blockWriter) scratchBuf(needed int) []byte {
	available := b.buf.Available()
	if needed > available {
		b.buf.Grow(needed)
	}
	buf := b.buf.AvailableBuffer()
	return buf[:needed]
}

func (b *blockWriter) trackOffset(n uint32) {
	b.offsets = append(b.offsets, b.nextOffset)
	b.nextOffset += n
}

// data entry = keyLen|valLen|key|val
func (b *blockWriter) add(key, val string) error {
	keyLen, valLen := len(key), len(val)
	needed := 2*binary.MaxVarintLen64 + keyLen + valLen
	buf := b.scratchBuf(needed)
	n := binary.PutUvarint(buf, uint64(keyLen))
	n += binary.PutUvarint(buf[n:], uint64(valLen))
	copy(buf[n:], key)
	copy(buf[n+keyLen:], val)
	used := n + keyLen + valLen
	if _, err := b.buf.Write(buf[:used]); err != nil {
		return err
	}
	b.trackOffset(uint32(used))
	return nil
}

// finish stages the offset table and the footer after the last data entry.
func (b *blockWriter) finish() error {
	numOffsets := len(b.offsets)
	needed := numOffsets*4 + footerSize
	buf := b.scratchBuf(needed)
	for i, offset := range b.offsets {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], offset)
	}
	binary.LittleEndian.PutUint32(buf[needed-8:needed-4], uint32(numOffsets))
	binary.LittleEndian.PutUint32(buf[needed-4:needed], b.nextOffset)
	_, err := b.buf.Write(buf)
	return err
}

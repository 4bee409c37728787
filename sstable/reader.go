package sstable

import (
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"
)

// Reader serves lookups and ordered scans from a table loaded into memory.
type Reader struct {
	block *blockReader
}

func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "sstable: read %s", path)
	}
	return newReader(data)
}

func newReader(data []byte) (*Reader, error) {
	if len(data) < footerSize {
		return nil, errors.Wrapf(ErrCorrupt, "%d bytes is shorter than the footer", len(data))
	}
	footer := data[len(data)-footerSize:]
	numOffsets := int(binary.LittleEndian.Uint32(footer[:4]))
	dataLen := int(binary.LittleEndian.Uint32(footer[4:]))
	if dataLen+numOffsets*4+footerSize != len(data) {
		return nil, errors.Wrapf(ErrCorrupt, "footer claims %d entries in %d bytes of a %d byte file",
			numOffsets, dataLen, len(data))
	}

	b := &blockReader{
		buf:        data[:dataLen],
		offsets:    data[dataLen : dataLen+numOffsets*4],
		numOffsets: numOffsets,
	}
	prev := ""
	for pos := 0; pos < numOffsets; pos++ {
		key, _, ok := b.fetchDataFor(pos)
		if !ok {
			return nil, errors.Wrapf(ErrCorrupt, "entry %d", pos)
		}
		if pos > 0 && key <= prev {
			return nil, errors.Wrapf(ErrCorrupt, "entry %d key %q not above %q", pos, key, prev)
		}
		prev = key
	}
	return &Reader{block: b}, nil
}

func (r *Reader) Len() int {
	return r.block.numOffsets
}

func (r *Reader) Get(searchKey string) (string, bool) {
	pos := r.block.search(searchKey)
	if pos == r.block.numOffsets {
		return "", false
	}
	key, val, _ := r.block.fetchDataFor(pos)
	if key != searchKey {
		return "", false
	}
	return val, true
}

// Scan calls fn for every entry in key order until fn returns false.
func (r *Reader) Scan(fn func(key, val string) bool) {
	for pos := 0; pos < r.block.numOffsets; pos++ {
		key, val, _ := r.block.fetchDataFor(pos)
		if !fn(key, val) {
			return
		}
	}
}

package sstable

import (
	"encoding/binary"
	"strings"
)

// for correct parsing of the data entries through the offset table
type blockReader struct {
	buf        []byte // data entries
	offsets    []byte // offset table, 4B per entry
	numOffsets int
}

func (b *blockReader) fetchDataFor(pos int) (key, val string, ok bool) {
	offset := int(binary.LittleEndian.Uint32(b.offsets[pos*4 : pos*4+4]))
	if offset >= len(b.buf) {
		return "", "", false
	}
	keyLen, n := binary.Uvarint(b.buf[offset:])
	if n <= 0 {
		return "", "", false
	}
	offset += n
	valLen, n := binary.Uvarint(b.buf[offset:])
	if n <= 0 {
		return "", "", false
	}
	offset += n
	if uint64(len(b.buf)-offset) < keyLen+valLen {
		return "", "", false
	}
	key = string(b.buf[offset : offset+int(keyLen)])
	offset += int(keyLen)
	val = string(b.buf[offset : offset+int(valLen)])
	return key, val, true
}

// key of the entry at pos
func (b *blockReader) readKeyAt(pos int) string {
	key, _, _ := b.fetchDataFor(pos)
	return key
}

// search returns the position of the first entry whose key is >= searchKey.
func (b *blockReader) search(searchKey string) int {
	low, high := 0, b.numOffsets
	var mid int
	for low < high {
		mid = (low + high) / 2
		if strings.Compare(searchKey, b.readKeyAt(mid)) > 0 {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}

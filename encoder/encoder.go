package encoder

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

type OpKind uint8

const (
	OpKindDelete OpKind = iota
	OpKindSet
)

func (k OpKind) String() string {
	switch k {
	case OpKindDelete:
		return "delete"
	case OpKindSet:
		return "set"
	default:
		return "unknown"
	}
}

// ErrCorruptValue is returned by Parse for values that were not produced by Encode.
var ErrCorruptValue = errors.New("encoder: corrupt value")

type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

type EncodedValue struct {
	val    string
	opKind OpKind
}

// Encode lays out a journal value as opKind (1B) | snappy block of val.
func (e *Encoder) Encode(opKind OpKind, val string) []byte {
	buf := make([]byte, 1+snappy.MaxEncodedLen(len(val)))
	buf[0] = byte(opKind)
	compressed := snappy.Encode(buf[1:], []byte(val))
	return buf[:1+len(compressed)]
}

func (e *Encoder) Parse(val []byte) (*EncodedValue, error) {
	if len(val) < 1 {
		return nil, errors.Wrap(ErrCorruptValue, "missing op kind")
	}
	opKind := OpKind(val[0])
	if opKind != OpKindDelete && opKind != OpKindSet {
		return nil, errors.Wrapf(ErrCorruptValue, "op kind %d", val[0])
	}
	decoded, err := snappy.Decode(nil, val[1:])
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decompress value"), ErrCorruptValue)
	}
	return &EncodedValue{val: string(decoded), opKind: opKind}, nil
}

func (ev *EncodedValue) Value() string {
	return ev.val
}

func (ev *EncodedValue) Kind() OpKind {
	return ev.opKind
}

func (ev *EncodedValue) IsTombstone() bool {
	return ev.opKind == OpKindDelete
}

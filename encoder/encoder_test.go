package encoder

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParse(t *testing.T) {
	e := NewEncoder()

	set, err := e.Parse(e.Encode(OpKindSet, "hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", set.Value())
	assert.False(t, set.IsTombstone())
	assert.Equal(t, OpKindSet, set.Kind())

	del, err := e.Parse(e.Encode(OpKindDelete, ""))
	require.NoError(t, err)
	assert.Equal(t, "", del.Value())
	assert.True(t, del.IsTombstone())
}

func TestEncodeCompressesRepetitiveValues(t *testing.T) {
	val := strings.Repeat("abcd", 1000)
	buf := NewEncoder().Encode(OpKindSet, val)
	assert.Less(t, len(buf), len(val)/4)
}

func TestParseRejectsCorruptValues(t *testing.T) {
	e := NewEncoder()

	_, err := e.Parse(nil)
	assert.True(t, errors.Is(err, ErrCorruptValue))

	_, err = e.Parse([]byte{9, 0})
	assert.True(t, errors.Is(err, ErrCorruptValue))

	_, err = e.Parse([]byte{byte(OpKindSet), 0xff, 0xff, 0xff})
	assert.True(t, errors.Is(err, ErrCorruptValue))
}

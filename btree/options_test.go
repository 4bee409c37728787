package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLoggerRecordsHeightChanges(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tree := newTestTree(t, 2, WithLogger(zap.New(core)))

	for i := 0; i < 4; i++ {
		tree.Insert(keyOf(i), "x")
	}
	splits := logs.FilterMessage("split root").All()
	require.Len(t, splits, 1)
	assert.Equal(t, keyOf(1), splits[0].ContextMap()["separator"])

	for i := 0; i < 4; i++ {
		require.NoError(t, tree.Remove(keyOf(i)))
	}
	assert.Equal(t, 1, logs.FilterMessage("collapsed root").Len())
	assert.Equal(t, 1, logs.FilterMessage("tree emptied").Len())
}

func TestDuplicatePolicyString(t *testing.T) {
	assert.Equal(t, "overwrite", OverwriteDuplicates.String())
	assert.Equal(t, "reject", RejectDuplicates.String())
	assert.Equal(t, "unknown", DuplicatePolicy(9).String())
}

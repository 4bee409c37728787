package btree

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tidwall "github.com/tidwall/btree"
)

func newTestTree(t *testing.T, degree int, opts ...Option) *Btree {
	t.Helper()
	tree, err := NewBTree(degree, opts...)
	require.NoError(t, err)
	return tree
}

func keyOf(i int) string {
	return fmt.Sprintf("%06d", i)
}

func keys(pairs []Pair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Key
	}
	return out
}

func TestNewBTreeRejectsSmallDegree(t *testing.T) {
	for _, degree := range []int{-1, 0, 1} {
		_, err := NewBTree(degree)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDegree))
	}
	tree, err := NewBTree(MinDegree)
	require.NoError(t, err)
	assert.Equal(t, MinDegree, tree.Degree())
}

func TestEmptyTree(t *testing.T) {
	tree := newTestTree(t, 3)

	h, ok := tree.Search("a")
	assert.False(t, ok)
	assert.Equal(t, "", h.Key())
	assert.Equal(t, "", h.Value())
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Height())
	assert.Empty(t, tree.Pairs())
	assert.Empty(t, tree.Levels())
	assert.Equal(t, "", tree.String())

	_, ok = tree.Min()
	assert.False(t, ok)
	_, ok = tree.Max()
	assert.False(t, ok)

	err := tree.Remove("a")
	assert.True(t, errors.Is(err, ErrEmptyTree))
	require.NoError(t, tree.Verify())
}

func TestSmallTreeInsertAndRemoveInternalKey(t *testing.T) {
	tree := newTestTree(t, 2)
	for _, k := range []string{"5", "3", "8", "1", "4", "7", "9"} {
		assert.True(t, tree.Insert(k, "v"+k))
		require.NoError(t, tree.Verify())
	}

	assert.Equal(t, []string{"1", "3", "4", "5", "7", "8", "9"}, keys(tree.Pairs()))
	assert.Equal(t, " 1:v1 3:v3 4:v4 5:v5 7:v7 8:v8 9:v9", tree.String())

	// 5 is the separator in the root, so removing it takes the internal path.
	h, ok := tree.Search("5")
	require.True(t, ok)
	require.Same(t, tree.root, h.n)
	require.False(t, tree.root.isLeaf())

	require.NoError(t, tree.Remove("5"))
	require.NoError(t, tree.Verify())
	assert.Equal(t, []string{"1", "3", "4", "7", "8", "9"}, keys(tree.Pairs()))

	// The predecessor moved up with its value.
	assert.Equal(t, "4", tree.root.items[0].key)
	v, ok := tree.Get("4")
	require.True(t, ok)
	assert.Equal(t, "v4", v)

	_, ok = tree.Search("5")
	assert.False(t, ok)
}

func TestFirstSplitProducesTwoChildRoot(t *testing.T) {
	for degree := 2; degree <= 6; degree++ {
		t.Run(fmt.Sprintf("t=%d", degree), func(t *testing.T) {
			tree := newTestTree(t, degree)
			for i := 0; i < 2*degree-1; i++ {
				tree.Insert(keyOf(i), "x")
			}
			require.True(t, tree.root.isLeaf())
			assert.Equal(t, 1, tree.Height())

			tree.Insert(keyOf(2*degree-1), "x")
			require.NoError(t, tree.Verify())
			assert.Len(t, tree.root.items, 1)
			assert.Len(t, tree.root.children, 2)
			assert.Equal(t, 2, tree.Height())
			assert.Equal(t, keyOf(degree-1), tree.root.items[0].key)
		})
	}
}

func TestRemoveDownToEmpty(t *testing.T) {
	tree := newTestTree(t, 2)
	for i := 0; i < 20; i++ {
		tree.Insert(keyOf(i), "x")
	}
	for i := 19; i >= 0; i-- {
		require.NoError(t, tree.Remove(keyOf(i)))
		require.NoError(t, tree.Verify())
	}

	assert.Nil(t, tree.root)
	assert.Equal(t, 0, tree.Len())
	for i := 0; i < 20; i++ {
		_, ok := tree.Search(keyOf(i))
		assert.False(t, ok)
	}
	assert.True(t, errors.Is(tree.Remove(keyOf(0)), ErrEmptyTree))
}

func TestRemoveLastKeyOfLeafRoot(t *testing.T) {
	tree := newTestTree(t, 3)
	tree.Insert("only", "1")
	require.NoError(t, tree.Remove("only"))

	_, ok := tree.Search("only")
	assert.False(t, ok)
	assert.True(t, errors.Is(tree.Remove("only"), ErrEmptyTree))
}

func TestRemoveAbsentKeyKeepsContents(t *testing.T) {
	tree := newTestTree(t, 2)
	for i := 0; i < 50; i += 2 {
		tree.Insert(keyOf(i), keyOf(i*10))
	}
	before := tree.Pairs()

	for i := 1; i < 50; i += 2 {
		err := tree.Remove(keyOf(i))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrKeyNotFound))
		require.NoError(t, tree.Verify())
		assert.Equal(t, before, tree.Pairs())
	}
	assert.Equal(t, len(before), tree.Len())
}

func TestRemoveAbsentKeyMayShrinkHeight(t *testing.T) {
	tree := newTestTree(t, 2)
	for _, k := range []string{"1", "2", "3", "4"} {
		tree.Insert(k, "v"+k)
	}
	require.NoError(t, tree.Remove("4"))
	require.Equal(t, [][][]Pair{
		{{{Key: "2", Value: "v2"}}},
		{{{Key: "1", Value: "v1"}}, {{Key: "3", Value: "v3"}}},
	}, tree.Levels())
	before := tree.Pairs()

	// both children of the root sit at minimum, so the descent merges them
	err := tree.Remove("0")
	assert.True(t, errors.Is(err, ErrKeyNotFound))
	require.NoError(t, tree.Verify())
	assert.Equal(t, 1, tree.Height())
	assert.Equal(t, before, tree.Pairs())
	assert.Equal(t, 3, tree.Len())
}

func TestInsertOverwritesByDefault(t *testing.T) {
	tree := newTestTree(t, 2)
	for i := 0; i < 30; i++ {
		assert.True(t, tree.Insert(keyOf(i), "old"))
	}
	for i := 0; i < 30; i++ {
		assert.False(t, tree.Insert(keyOf(i), "new"))
	}
	require.NoError(t, tree.Verify())
	assert.Equal(t, 30, tree.Len())
	for i := 0; i < 30; i++ {
		v, ok := tree.Get(keyOf(i))
		require.True(t, ok)
		assert.Equal(t, "new", v)
	}
}

func TestInsertRejectDuplicates(t *testing.T) {
	tree := newTestTree(t, 2, WithDuplicatePolicy(RejectDuplicates))
	for i := 0; i < 30; i++ {
		tree.Insert(keyOf(i), "old")
	}
	for i := 0; i < 30; i++ {
		assert.False(t, tree.Insert(keyOf(i), "new"))
	}
	require.NoError(t, tree.Verify())
	for _, p := range tree.Pairs() {
		assert.Equal(t, "old", p.Value)
	}
}

func TestMinMax(t *testing.T) {
	tree := newTestTree(t, 3)
	for _, i := range rand.New(rand.NewSource(7)).Perm(200) {
		tree.Insert(keyOf(i), "x")
	}
	lo, ok := tree.Min()
	require.True(t, ok)
	assert.Equal(t, keyOf(0), lo.Key)
	hi, ok := tree.Max()
	require.True(t, ok)
	assert.Equal(t, keyOf(199), hi.Key)
}

func TestAscendStopsEarly(t *testing.T) {
	tree := newTestTree(t, 2)
	for i := 0; i < 100; i++ {
		tree.Insert(keyOf(i), "x")
	}
	var seen []string
	tree.Ascend(func(key, val string) bool {
		seen = append(seen, key)
		return len(seen) < 10
	})
	require.Len(t, seen, 10)
	assert.Equal(t, keyOf(9), seen[9])
}

func TestLevelsMatchInOrder(t *testing.T) {
	tree := newTestTree(t, 2)
	for _, i := range rand.New(rand.NewSource(3)).Perm(64) {
		tree.Insert(keyOf(i), "x")
	}
	levels := tree.Levels()
	require.Len(t, levels, tree.Height())
	assert.Len(t, levels[0], 1)

	total := 0
	for _, level := range levels {
		for _, n := range level {
			total += len(n)
		}
	}
	assert.Equal(t, tree.Len(), total)

	// Leaves read left to right interleave with the separators above them,
	// so the deepest level alone is still ascending.
	var leafKeys []string
	for _, n := range levels[len(levels)-1] {
		leafKeys = append(leafKeys, keys(n)...)
	}
	assert.IsIncreasing(t, leafKeys)
}

func heightBound(n, degree int) int {
	return int(math.Ceil(math.Log(float64(n+1)/2)/math.Log(float64(degree))+1e-9)) + 1
}

func TestHeightBound(t *testing.T) {
	for _, degree := range []int{2, 3, 5, 16} {
		tree := newTestTree(t, degree)
		r := rand.New(rand.NewSource(int64(degree)))
		for n := 1; n <= 2000; n++ {
			tree.Insert(keyOf(r.Int()), "x")
			assert.LessOrEqual(t, tree.Height(), heightBound(tree.Len(), degree),
				"degree %d with %d items", degree, tree.Len())
		}
	}
}

// TestRandomOperations drives the tree and a reference map with the same
// random workload and compares them after every step.
func TestRandomOperations(t *testing.T) {
	for _, degree := range []int{2, 3, 4, 7} {
		t.Run(fmt.Sprintf("t=%d", degree), func(t *testing.T) {
			tree := newTestTree(t, degree)
			ref := tidwall.NewMap[string, string](0)
			r := rand.New(rand.NewSource(int64(42 + degree)))

			for step := 0; step < 4000; step++ {
				k := keyOf(r.Intn(500))
				if r.Intn(3) == 0 {
					err := tree.Remove(k)
					_, existed := ref.Delete(k)
					if existed {
						require.NoError(t, err, "step %d remove %s", step, k)
					} else {
						require.Error(t, err, "step %d remove %s", step, k)
					}
				} else {
					v := fmt.Sprintf("v%d", step)
					_, replaced := ref.Set(k, v)
					assert.Equal(t, !replaced, tree.Insert(k, v))
				}

				require.NoError(t, tree.Verify(), "step %d", step)
				require.Equal(t, ref.Len(), tree.Len())
			}

			var want []Pair
			ref.Scan(func(k, v string) bool {
				want = append(want, Pair{Key: k, Value: v})
				return true
			})
			assert.Equal(t, want, tree.Pairs())

			for _, p := range want {
				v, ok := tree.Get(p.Key)
				require.True(t, ok)
				assert.Equal(t, p.Value, v)
			}
		})
	}
}

func TestDeleteEverythingInRandomOrder(t *testing.T) {
	tree := newTestTree(t, 3)
	r := rand.New(rand.NewSource(11))
	for _, i := range r.Perm(1000) {
		tree.Insert(keyOf(i), keyOf(i))
	}
	order := r.Perm(1000)
	for n, i := range order {
		require.NoError(t, tree.Remove(keyOf(i)))
		_, ok := tree.Search(keyOf(i))
		require.False(t, ok)
		if n%50 == 0 {
			require.NoError(t, tree.Verify())
			for _, j := range order[n+1:] {
				v, ok := tree.Get(keyOf(j))
				require.True(t, ok)
				require.Equal(t, keyOf(j), v)
			}
		}
	}
	assert.Equal(t, 0, tree.Height())
}

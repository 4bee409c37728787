package btree

import "strings"

// Ascend calls fn for every item in ascending key order until fn returns false.
func (t *Btree) Ascend(fn func(key, val string) bool) {
	if t.root != nil {
		t.root.ascend(fn)
	}
}

func (n *node) ascend(fn func(key, val string) bool) bool {
	for i, it := range n.items {
		if !n.isLeaf() && !n.children[i].ascend(fn) {
			return false
		}
		if !fn(it.key, it.val) {
			return false
		}
	}
	if !n.isLeaf() {
		return n.children[len(n.children)-1].ascend(fn)
	}
	return true
}

// Pairs returns every item in ascending key order.
func (t *Btree) Pairs() []Pair {
	pairs := make([]Pair, 0, t.length)
	t.Ascend(func(key, val string) bool {
		pairs = append(pairs, Pair{Key: key, Value: val})
		return true
	})
	return pairs
}

// WalkLevels visits the nodes breadth first, calling fn once per node with its
// depth (0 for the root) and its items in order.
func (t *Btree) WalkLevels(fn func(depth int, pairs []Pair)) {
	if t.root == nil {
		return
	}
	type entry struct {
		n     *node
		depth int
	}
	queue := []entry{{n: t.root}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		pairs := make([]Pair, len(e.n.items))
		for i, it := range e.n.items {
			pairs[i] = it.pair()
		}
		fn(e.depth, pairs)

		for _, child := range e.n.children {
			queue = append(queue, entry{n: child, depth: e.depth + 1})
		}
	}
}

// Levels groups the items of every node by depth, keeping node boundaries.
func (t *Btree) Levels() [][][]Pair {
	var levels [][][]Pair
	t.WalkLevels(func(depth int, pairs []Pair) {
		if depth == len(levels) {
			levels = append(levels, nil)
		}
		levels[depth] = append(levels[depth], pairs)
	})
	return levels
}

// String renders the items in order as " key:val key:val ...".
func (t *Btree) String() string {
	var sb strings.Builder
	t.Ascend(func(key, val string) bool {
		sb.WriteByte(' ')
		sb.WriteString(key)
		sb.WriteByte(':')
		sb.WriteString(val)
		return true
	})
	return sb.String()
}

package btree

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// node holds a sorted run of items and, unless it is a leaf, one more child
// than it has items. Children are owned exclusively by their parent.
type node struct {
	degree   int // minimum degree t of the owning tree
	items    []*item
	children []*node
}

func newNode(degree int, leaf bool) *node {
	n := &node{
		degree: degree,
		items:  make([]*item, 0, 2*degree-1),
	}
	if !leaf {
		n.children = make([]*node, 0, 2*degree)
	}
	return n
}

func (n *node) isLeaf() bool {
	return len(n.children) == 0
}

func (n *node) maxItems() int {
	return 2*n.degree - 1
}

func (n *node) minItems() int {
	return n.degree - 1
}

func (n *node) full() bool {
	return len(n.items) >= n.maxItems()
}

/*
If data item with key k is found in node n, return its index i.
Else, return the index j where the key would have resided if it was present in the node.
Basically, lower bound of the key in the node -- this coincides with position of the child pointer !!
So, we can continue the traversal down the tree if the returned boolean value is false.
*/
func (n *node) search(key string) (int, bool) {
	low, high := 0, len(n.items)
	var mid int
	for low < high {
		mid = (low + high) / 2
		cmp := strings.Compare(key, n.items[mid].key)
		switch {
		case cmp > 0:
			low = mid + 1
		case cmp < 0:
			high = mid
		case cmp == 0:
			return mid, true
		}
	}
	return low, false
}

// helper method to insert data item at an arbitrary position of a B-tree node
func (n *node) insertItemAt(pos int, it *item) {
	n.items = append(n.items, nil)
	copy(n.items[pos+1:], n.items[pos:])
	n.items[pos] = it
}

// helper method to insert child pointer at an arbitrary position of a B-tree node
func (n *node) insertChildAt(pos int, child *node) {
	n.children = append(n.children, nil)
	copy(n.children[pos+1:], n.children[pos:])
	n.children[pos] = child
}

func (n *node) removeItemAt(pos int) *item {
	it := n.items[pos]
	copy(n.items[pos:], n.items[pos+1:])
	last := len(n.items) - 1
	n.items[last] = nil
	n.items = n.items[:last]
	return it
}

func (n *node) removeChildAt(pos int) *node {
	child := n.children[pos]
	copy(n.children[pos:], n.children[pos+1:])
	last := len(n.children) - 1
	n.children[last] = nil
	n.children = n.children[:last]
	return child
}

/*
split() cuts a full node around its median item (index t-1). The upper t-1 items
(and upper t children) move to a new sibling, the lower t-1 stay here.
It returns the median item and the new sibling so the parent can link them.
*/
func (n *node) split() (*item, *node) {
	mid := n.minItems()
	midItem := n.items[mid]

	sibling := newNode(n.degree, n.isLeaf())
	sibling.items = append(sibling.items, n.items[mid+1:]...)

	if !n.isLeaf() {
		sibling.children = append(sibling.children, n.children[mid+1:]...)
		clear(n.children[mid+1:])
		n.children = n.children[:mid+1]
	}

	clear(n.items[mid:])
	n.items = n.items[:mid]

	return midItem, sibling
}

// splitChild splits the full child at index i and promotes its median into
// this node at position i, with the new sibling at child position i+1.
func (n *node) splitChild(i int) {
	child := n.children[i]
	if !child.full() {
		panic(errors.AssertionFailedf("btree: split of non-full child %d holding %d items", i, len(child.items)))
	}
	if n.full() {
		panic(errors.AssertionFailedf("btree: split into full parent holding %d items", len(n.items)))
	}
	midItem, sibling := child.split()
	n.insertItemAt(i, midItem)
	n.insertChildAt(i+1, sibling)
}

/*
insertNonFull places item below a node that is known to have room. Full children are
split on the way down, never on the way back up, so a single pass is enough.
Returned value is true if a new item was added. If the key already exists, its item is
replaced when overwrite is set and left alone otherwise; both return false.
*/
func (n *node) insertNonFull(it *item, overwrite bool) bool {
	if n.full() {
		panic(errors.AssertionFailedf("btree: insert into full node holding %d items", len(n.items)))
	}
	pos, found := n.search(it.key)

	if found {
		if overwrite {
			n.items[pos] = it
		}
		return false
	}

	if n.isLeaf() {
		n.insertItemAt(pos, it)
		return true
	}

	if n.children[pos].full() {
		n.splitChild(pos)

		// The promoted median now separates children pos and pos+1.
		switch cmp := strings.Compare(it.key, n.items[pos].key); {
		case cmp > 0:
			pos++
		case cmp == 0:
			if overwrite {
				n.items[pos] = it
			}
			return false
		}
	}

	return n.children[pos].insertNonFull(it, overwrite)
}

// remove deletes key from the subtree rooted at n and returns the removed item,
// or nil when the key is absent. Every child is topped up to at least t items
// before it is descended into, so the removal never leaves a node underfull.
func (n *node) remove(key string) *item {
	idx, found := n.search(key)

	if found {
		if n.isLeaf() {
			return n.removeItemAt(idx)
		}
		return n.removeFromInternal(idx)
	}

	if n.isLeaf() {
		return nil
	}

	if len(n.children[idx].items) < n.degree {
		idx = n.fill(idx)
	}
	return n.children[idx].remove(key)
}

func (n *node) removeFromInternal(idx int) *item {
	removed := n.items[idx]
	left, right := n.children[idx], n.children[idx+1]

	switch {
	case len(left.items) >= n.degree:
		pred := n.getPred(idx)
		n.items[idx] = left.remove(pred.key)
	case len(right.items) >= n.degree:
		succ := n.getSucc(idx)
		n.items[idx] = right.remove(succ.key)
	default:
		n.merge(idx)
		return n.children[idx].remove(removed.key)
	}

	if n.items[idx] == nil {
		panic(errors.AssertionFailedf("btree: substitute for %q vanished from subtree %d", removed.key, idx))
	}
	return removed
}

// getPred returns the rightmost item of the subtree at children[idx].
func (n *node) getPred(idx int) *item {
	cur := n.children[idx]
	for !cur.isLeaf() {
		cur = cur.children[len(cur.children)-1]
	}
	return cur.items[len(cur.items)-1]
}

// getSucc returns the leftmost item of the subtree at children[idx+1].
func (n *node) getSucc(idx int) *item {
	cur := n.children[idx+1]
	for !cur.isLeaf() {
		cur = cur.children[0]
	}
	return cur.items[0]
}

/*
fill brings children[idx] up to at least t items, preferring a rotation through
this node over a merge. It returns the index the caller should descend into:
merging the last child into its left neighbour moves it to idx-1.
*/
func (n *node) fill(idx int) int {
	last := len(n.items)
	switch {
	case idx > 0 && len(n.children[idx-1].items) >= n.degree:
		n.borrowFromPrev(idx)
		return idx
	case idx < last && len(n.children[idx+1].items) >= n.degree:
		n.borrowFromNext(idx)
		return idx
	case idx < last:
		n.merge(idx)
		return idx
	default:
		n.merge(idx - 1)
		return idx - 1
	}
}

// borrowFromPrev rotates the last item of children[idx-1] up into the separator
// slot and the old separator down to the front of children[idx].
func (n *node) borrowFromPrev(idx int) {
	child, sibling := n.children[idx], n.children[idx-1]
	if len(sibling.items) <= sibling.minItems() {
		panic(errors.AssertionFailedf("btree: borrow from left sibling holding %d items", len(sibling.items)))
	}

	child.insertItemAt(0, n.items[idx-1])
	n.items[idx-1] = sibling.removeItemAt(len(sibling.items) - 1)

	if !sibling.isLeaf() {
		child.insertChildAt(0, sibling.removeChildAt(len(sibling.children)-1))
	}
}

// borrowFromNext is the mirror image of borrowFromPrev.
func (n *node) borrowFromNext(idx int) {
	child, sibling := n.children[idx], n.children[idx+1]
	if len(sibling.items) <= sibling.minItems() {
		panic(errors.AssertionFailedf("btree: borrow from right sibling holding %d items", len(sibling.items)))
	}

	child.insertItemAt(len(child.items), n.items[idx])
	n.items[idx] = sibling.removeItemAt(0)

	if !sibling.isLeaf() {
		child.insertChildAt(len(child.children), sibling.removeChildAt(0))
	}
}

// merge folds the separator at idx and children[idx+1] into children[idx].
func (n *node) merge(idx int) {
	child, sibling := n.children[idx], n.children[idx+1]
	if size := len(child.items) + len(sibling.items) + 1; size > child.maxItems() {
		panic(errors.AssertionFailedf("btree: merge of children %d and %d would hold %d items", idx, idx+1, size))
	}

	child.items = append(child.items, n.removeItemAt(idx))
	child.items = append(child.items, sibling.items...)
	child.children = append(child.children, sibling.children...)

	n.removeChildAt(idx + 1)
}

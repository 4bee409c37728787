package btree

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// MinDegree is the smallest minimum degree a tree accepts.
const MinDegree = 2

/*
Btree only keeps a pointer to root node of the tree.
A tree is made up of nodes. Each node contains data items.
Every node but the root holds between t-1 and 2t-1 items, where t is the
minimum degree fixed when the tree is built.

A Btree is not safe for concurrent use. Callers must serialise access.
*/
type Btree struct {
	root   *node
	degree int
	length int
	policy DuplicatePolicy
	logger *zap.Logger
}

// NewBTree returns an empty tree of the given minimum degree, which must be at
// least MinDegree.
func NewBTree(degree int, opts ...Option) (*Btree, error) {
	if degree < MinDegree {
		return nil, errors.Wrapf(ErrInvalidDegree, "degree %d is below %d", degree, MinDegree)
	}
	t := &Btree{
		degree: degree,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Degree returns the minimum degree t.
func (t *Btree) Degree() int {
	return t.degree
}

// Len returns the number of items stored in the tree.
func (t *Btree) Len() int {
	return t.length
}

// Height returns the number of levels in the tree, 0 for an empty tree.
func (t *Btree) Height() int {
	if t.root == nil {
		return 0
	}
	h := 1
	for cur := t.root; !cur.isLeaf(); cur = cur.children[0] {
		h++
	}
	return h
}

// Handle refers to an item found by Search. It is only meaningful when Search
// reported true, and stays valid until the tree is next modified. The zero
// Handle has an empty key and value.
type Handle struct {
	n   *node
	pos int
}

func (h Handle) Key() string {
	if h.n == nil {
		return ""
	}
	return h.n.items[h.pos].key
}

func (h Handle) Value() string {
	if h.n == nil {
		return ""
	}
	return h.n.items[h.pos].val
}

// Search walks down from the root and returns a handle to the item stored
// under key. The boolean is false if the key is not present.
func (t *Btree) Search(key string) (Handle, bool) {
	for next := t.root; next != nil; {
		pos, found := next.search(key)
		if found {
			return Handle{n: next, pos: pos}, true
		}
		if next.isLeaf() {
			break
		}
		next = next.children[pos]
	}
	return Handle{}, false
}

// Get returns the value stored under key.
func (t *Btree) Get(key string) (string, bool) {
	h, ok := t.Search(key)
	if !ok {
		return "", false
	}
	return h.Value(), true
}

/*
Create a new root node.
The existing root then becomes the new root's only child and is split,
so the new root ends up with one item and two children.
This is the only place the tree grows in height.
*/
func (t *Btree) splitRoot() {
	newRoot := newNode(t.degree, false)
	newRoot.insertChildAt(0, t.root)
	newRoot.splitChild(0)
	t.root = newRoot
	t.logger.Debug("split root",
		zap.String("separator", newRoot.items[0].key),
		zap.Int("height", t.Height()))
}

// Insert stores val under key. It returns true if a new item was added and
// false if the key was already present, in which case the stored value is
// replaced or kept depending on the tree's DuplicatePolicy.
func (t *Btree) Insert(key, val string) bool {
	i := &item{key: key, val: val}

	// The tree is empty, so initialize a new node.
	if t.root == nil {
		t.root = newNode(t.degree, true)
		t.root.insertItemAt(0, i)
		t.length++
		t.checkInvariants()
		return true
	}

	// The tree root is full, so perform a split on the root.
	if t.root.full() {
		t.splitRoot()
	}

	added := t.root.insertNonFull(i, t.policy == OverwriteDuplicates)
	if added {
		t.length++
	}
	t.checkInvariants()
	return added
}

// Remove deletes key from the tree. It returns ErrEmptyTree if the tree holds
// nothing and ErrKeyNotFound if the key is absent. An absent key still
// rebalances the nodes on its search path, so node shapes and even the height
// may change, but the stored items stay the same.
func (t *Btree) Remove(key string) error {
	if t.root == nil {
		return ErrEmptyTree
	}
	removed := t.root.remove(key)

	// Rebalancing on the way down may have emptied the root even if the key
	// was not found.
	if len(t.root.items) == 0 {
		t.collapseRoot()
	}
	t.checkInvariants()

	if removed == nil {
		return errors.Wrapf(ErrKeyNotFound, "remove %q", key)
	}
	t.length--
	return nil
}

func (t *Btree) collapseRoot() {
	if t.root.isLeaf() {
		t.root = nil
		t.logger.Debug("tree emptied")
		return
	}
	t.root = t.root.children[0]
	t.logger.Debug("collapsed root", zap.Int("height", t.Height()))
}

// Min returns the smallest item in the tree.
func (t *Btree) Min() (Pair, bool) {
	if t.root == nil {
		return Pair{}, false
	}
	cur := t.root
	for !cur.isLeaf() {
		cur = cur.children[0]
	}
	return cur.items[0].pair(), true
}

// Max returns the largest item in the tree.
func (t *Btree) Max() (Pair, bool) {
	if t.root == nil {
		return Pair{}, false
	}
	cur := t.root
	for !cur.isLeaf() {
		cur = cur.children[len(cur.children)-1]
	}
	return cur.items[len(cur.items)-1].pair(), true
}

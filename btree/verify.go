package btree

import "github.com/cockroachdb/errors"

// Verify checks the structural invariants of the whole tree: every leaf sits
// at the same depth, keys ascend within and across nodes, non-root nodes hold
// between t-1 and 2t-1 items, and internal nodes have one more child than items.
func (t *Btree) Verify() error {
	if t.root == nil {
		if t.length != 0 {
			return errors.Newf("btree: empty root but length %d", t.length)
		}
		return nil
	}
	if len(t.root.items) == 0 {
		return errors.New("btree: root holds no items")
	}

	v := &verifier{leafDepth: -1}
	if err := v.walk(t.root, 0, true, nil, nil); err != nil {
		return err
	}
	if v.count != t.length {
		return errors.Newf("btree: counted %d items but length is %d", v.count, t.length)
	}
	return nil
}

type verifier struct {
	leafDepth int
	count     int
}

// walk checks n and its subtree. lo and hi, when set, bound every key in the
// subtree exclusively.
func (v *verifier) walk(n *node, depth int, isRoot bool, lo, hi *string) error {
	if len(n.items) > n.maxItems() {
		return errors.Newf("btree: node at depth %d holds %d items, max %d", depth, len(n.items), n.maxItems())
	}
	if !isRoot && len(n.items) < n.minItems() {
		return errors.Newf("btree: node at depth %d holds %d items, min %d", depth, len(n.items), n.minItems())
	}

	for i, it := range n.items {
		if i > 0 && n.items[i-1].key >= it.key {
			return errors.Newf("btree: keys %q and %q out of order at depth %d", n.items[i-1].key, it.key, depth)
		}
		if lo != nil && it.key <= *lo {
			return errors.Newf("btree: key %q at depth %d not above separator %q", it.key, depth, *lo)
		}
		if hi != nil && it.key >= *hi {
			return errors.Newf("btree: key %q at depth %d not below separator %q", it.key, depth, *hi)
		}
	}
	v.count += len(n.items)

	if n.isLeaf() {
		if v.leafDepth == -1 {
			v.leafDepth = depth
		} else if v.leafDepth != depth {
			return errors.Newf("btree: leaves at depths %d and %d", v.leafDepth, depth)
		}
		return nil
	}

	if len(n.children) != len(n.items)+1 {
		return errors.Newf("btree: node at depth %d has %d items and %d children", depth, len(n.items), len(n.children))
	}
	for i, child := range n.children {
		childLo, childHi := lo, hi
		if i > 0 {
			childLo = &n.items[i-1].key
		}
		if i < len(n.items) {
			childHi = &n.items[i].key
		}
		if err := v.walk(child, depth+1, false, childLo, childHi); err != nil {
			return err
		}
	}
	return nil
}

func (t *Btree) checkInvariants() {
	if !invariantsEnabled {
		return
	}
	if err := t.Verify(); err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "btree: invariant violated"))
	}
}

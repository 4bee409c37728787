package btree

import "github.com/cockroachdb/errors"

var (
	// ErrEmptyTree is returned by Remove when the tree holds no items.
	ErrEmptyTree = errors.New("btree: tree is empty")
	// ErrKeyNotFound is returned by Remove when the key is not in the tree.
	ErrKeyNotFound = errors.New("btree: key not found")
	// ErrInvalidDegree is returned by NewBTree for a minimum degree below MinDegree.
	ErrInvalidDegree = errors.New("btree: invalid minimum degree")
)

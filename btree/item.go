package btree

/*
data item in a node.
key orders the items of a node and identifies them across the tree.
val contains actual data
*/
type item struct {
	key string
	val string
}

// Pair is a key/value entry as seen by callers walking the tree.
type Pair struct {
	Key   string
	Value string
}

func (i *item) pair() Pair {
	return Pair{Key: i.key, Value: i.val}
}

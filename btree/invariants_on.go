//go:build invariants

package btree

// Built with -tags invariants, every mutating call re-verifies the whole tree.
const invariantsEnabled = true

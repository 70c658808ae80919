package substrate

import "github.com/substratedb/substrate/backend"

// Patch is an immutable, finalized set of key writes and deletes extracted
// from one fork, ready for atomic application via DB.Merge. A patch is
// consumed exactly once; merging it again returns ErrPatchConsumed.
type Patch struct {
	ops      []backend.Op
	consumed bool
}

// Len returns the number of backend operations in the patch.
func (p *Patch) Len() int {
	return len(p.ops)
}

// Empty reports whether the patch contains no operations. Merging an empty
// patch still advances the generation.
func (p *Patch) Empty() bool {
	return len(p.ops) == 0
}

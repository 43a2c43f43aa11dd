//go:build !reflistdebug

package reflist

// assert checks internal list invariants, it's only active in builds with
// the reflistdebug tag.
func assert(bool, string) {}

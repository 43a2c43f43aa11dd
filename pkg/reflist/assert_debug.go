//go:build reflistdebug

package reflist

func assert(ok bool, msg string) {
	if !ok {
		panic("reflist: assertion failed: " + msg)
	}
}

//go:build boundscheck

package ffitypes

import "fmt"

// boundsCheck gates the debug assertions. With the boundscheck tag every
// index and every null dereference is validated; without it the accessors
// compile down to raw pointer arithmetic.
const boundsCheck = true

func assertIndex(i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("ffitypes: index %d out of range [0:%d]", i, n))
	}
}

func assertNonNull(p bool, what string) {
	if !p {
		panic("ffitypes: " + what + " is null")
	}
}

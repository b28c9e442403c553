//go:build !boundscheck

package ffitypes

const boundsCheck = false

func assertIndex(int, int) {}

func assertNonNull(bool, string) {}

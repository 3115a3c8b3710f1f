//go:build bchdebug

package gf

// Debug builds trap the zero-divisor preconditions the decoder relies on.
func assertNonZero(x uint32, op string) {
	if x == 0 {
		panic("gf: " + op + " by zero")
	}
}

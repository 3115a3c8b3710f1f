//go:build !bchdebug

package gf

func assertNonZero(uint32, string) {}

// Package bch implements binary BCH error correcting codes over GF(2^m).
//
// A Code computes ecc (parity) bytes over a data buffer and, given the data
// and ecc read back, locates the bit errors so the caller can flip them. Up
// to t bit errors per block are corrected, where a block is at most
// 2^m - 1 bits of data and ecc.
//
// A Code owns scratch buffers that Encode and Decode overwrite, so it must
// not be used from more than one goroutine at a time. Use one Code per
// worker or guard it with a mutex.
package bch

import (
	"fmt"

	"github.com/bemasher/bch/gf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RootSearch selects how Decode finds the roots of the error locator.
type RootSearch int

const (
	// BTA factors the locator with the Berlekamp Trace Algorithm down to
	// degree 4 and solves the factors in closed form.
	BTA RootSearch = iota
	// Chien evaluates the locator at every position of the block.
	Chien
)

func (rs RootSearch) String() string {
	switch rs {
	case BTA:
		return "bta"
	case Chien:
		return "chien"
	}
	return fmt.Sprintf("RootSearch(%d)", int(rs))
}

// Stats counts what a Code has done since construction.
type Stats struct {
	Decodes   int // calls to Decode
	Clean     int // decodes that found matching ecc and returned early
	Locators  int // error locator computations
	Corrected int // bit errors reported
	Failures  int // uncorrectable blocks
}

// Code is a configured BCH code.
type Code struct {
	field *gf.Field

	m, t int
	n    uint32

	eccBits  int
	eccBytes int
	eccWords int

	genPoly []uint32 // generator polynomial, left justified
	mod8    []uint32 // 4 byte lanes x 256 values x eccWords remainders
	xiTab   []uint32 // solutions of x^2 + x = a^i + Tr(a^i)*a^k

	// Scratch, overwritten by every call.
	eccBuf  []uint32
	eccBuf2 []uint32
	syn     []uint32
	cache   []int32
	elp     gfPoly
	poly2t  [4]gfPoly
	roots   []uint32
	errLoc  []uint32

	search RootSearch
	stats  Stats
	log    *logrus.Entry
}

// New configures a code over GF(2^m) correcting up to t bit errors. A
// primPoly of 0 selects the built-in primitive polynomial for m.
func New(m, t int, primPoly uint32) (*Code, error) {
	if m < gf.MinOrder || m > gf.MaxOrder {
		return nil, errors.Wrapf(ErrInvalidOrder, "m=%d not in [%d,%d]", m, gf.MinOrder, gf.MaxOrder)
	}

	n := 1<<uint(m) - 1
	if t < 1 || m*t >= n {
		return nil, errors.Wrapf(ErrInvalidCapability, "t=%d with m=%d, need 1 <= t and m*t < %d", t, m, n)
	}

	field, err := gf.New(m, primPoly)
	if err != nil {
		return nil, errors.Wrapf(ErrNonPrimitivePolynomial, "%v", err)
	}

	c := &Code{
		field: field,
		m:     m,
		t:     t,
		n:     field.N(),
	}

	g := c.generatorPoly()
	c.eccBits = g.deg
	c.eccBytes = (c.eccBits + 7) / 8
	c.eccWords = (c.eccBits + 31) / 32
	c.genPoly = packPoly(g)
	c.mod8 = buildMod8Tables(c.genPoly, c.eccWords)

	if c.xiTab, err = buildDeg2Base(field); err != nil {
		return nil, err
	}

	c.eccBuf = make([]uint32, c.eccWords)
	c.eccBuf2 = make([]uint32, c.eccWords)
	c.syn = make([]uint32, 2*t)
	c.cache = make([]int32, 2*t)
	c.roots = make([]uint32, 0, t)
	c.errLoc = make([]uint32, t)

	// Factoring stores both factors in the locator's own storage, the second
	// one 3*deg(first) coefficients in, so it needs room for 3(t+1) values.
	c.elp = newPoly(3*(t+1) - 1)
	for i := range c.poly2t {
		c.poly2t[i] = newPoly(2 * t)
	}

	return c, nil
}

func (c *Code) String() string {
	return fmt.Sprintf("{M:%d T:%d N:%d EccBits:%d EccBytes:%d Poly:0x%X}",
		c.m, c.t, c.n, c.eccBits, c.eccBytes, c.field.Poly(),
	)
}

// Log writes the configuration of the code, one field per line.
func (c *Code) Log(l logrus.FieldLogger) {
	l.Infoln("M:", c.m)
	l.Infoln("T:", c.t)
	l.Infoln("N:", c.n)
	l.Infof("Poly: 0x%X", c.field.Poly())
	l.Infoln("EccBits:", c.eccBits)
	l.Infoln("EccBytes:", c.eccBytes)
	l.Infoln("MaxDataLen:", c.MaxDataLen())
	l.Infoln("RootSearch:", c.search)
}

// Free releases the tables and scratch buffers. The Code must not be used
// afterwards.
func (c *Code) Free() {
	*c = Code{}
}

func (c *Code) M() int { return c.m }
func (c *Code) T() int { return c.t }
func (c *Code) N() int { return int(c.n) }
func (c *Code) EccBits() int { return c.eccBits }
func (c *Code) EccBytes() int { return c.eccBytes }
func (c *Code) EccWords() int { return c.eccWords }
func (c *Code) Field() *gf.Field { return c.field }
func (c *Code) Stats() Stats { return c.stats }
func (c *Code) RootSearch() RootSearch { return c.search }

// MaxDataLen returns the largest data length in bytes that Decode accepts.
func (c *Code) MaxDataLen() int {
	return (int(c.n) - c.eccBits) / 8
}

// SetRootSearch selects the root finding strategy used by Decode.
func (c *Code) SetRootSearch(rs RootSearch) {
	c.search = rs
}

// SetLogger enables debug traces of the error locator and its roots. A nil
// entry disables them.
func (c *Code) SetLogger(l *logrus.Entry) {
	c.log = l
}

func (c *Code) debug() bool {
	return c.log != nil && c.log.Logger.IsLevelEnabled(logrus.DebugLevel)
}

// generatorPoly returns g(X), the product of the minimal polynomials of
// a, a^3, ..., a^(2t-1). Its degree is the number of ecc bits.
func (c *Code) generatorPoly() gfPoly {
	f := c.field

	// Mark every element of the cyclotomic cosets of the odd powers.
	roots := make([]bool, c.n+1)
	for i := 0; i < c.t; i++ {
		r := uint32(2*i + 1)
		for j := 0; j < c.m; j++ {
			roots[r] = true
			r = f.ModS(2 * r)
		}
	}

	g := newPoly(c.m * c.t)
	g.c[0] = 1
	for i := uint32(0); i < c.n; i++ {
		if !roots[i] {
			continue
		}

		// g(X) *= (X + a^i)
		r := f.Exp(i)
		g.c[g.deg+1] = 1
		for j := g.deg; j > 0; j-- {
			g.c[j] = f.Mul(g.c[j], r) ^ g.c[j-1]
		}
		g.c[0] = f.Mul(g.c[0], r)
		g.deg++
	}

	return g
}

// packPoly stores the binary polynomial g left justified in 32-bit words,
// highest degree first.
func packPoly(g gfPoly) []uint32 {
	words := make([]uint32, (g.deg+32)/32)

	n := g.deg + 1
	for i := 0; n > 0; i++ {
		nbits := 32
		if n < nbits {
			nbits = n
		}

		var word uint32
		for j := 0; j < nbits; j++ {
			if g.c[n-1-j] != 0 {
				word |= 1 << uint(31-j)
			}
		}
		words[i] = word
		n -= nbits
	}

	return words
}

// buildMod8Tables computes, for every byte value i and byte lane b, the
// remainder of i(X)*X^(8b+eccBits) mod g(X). XORing four lookups reduces a
// whole 32-bit word of input at once.
func buildMod8Tables(g []uint32, words int) []uint32 {
	tab := make([]uint32, 4*256*words)
	plen := len(g)

	for i := 0; i < 256; i++ {
		for b := 0; b < 4; b++ {
			row := tab[(b*256+i)*words:][:words]

			data := uint32(i) << uint(8*b)
			for data != 0 {
				d := gf.Deg(data)

				// Subtract X^d*g(X); the part of g below X^0 lands in row.
				data ^= g[0] >> uint(31-d)
				for j := 0; j < words; j++ {
					var hi, lo uint32
					if d < 31 {
						hi = g[j] << uint(d+1)
					}
					if j+1 < plen {
						lo = g[j+1] >> uint(31-d)
					}
					row[j] ^= hi | lo
				}
			}
		}
	}

	return tab
}

// buildDeg2Base finds x_i with x_i^2 + x_i = a^i + Tr(a^i)*a^k for each
// i < m, where Tr(a^k) = 1. Any z^2 + z = u with Tr(u) = 0 is then solved
// by XORing the x_i selected by the bits of u.
func buildDeg2Base(f *gf.Field) ([]uint32, error) {
	m := f.M()

	var ak uint32
	for i := 0; i < m; i++ {
		if f.Trace(f.Exp(uint32(i))) != 0 {
			ak = f.Exp(uint32(i))
			break
		}
	}

	xi := make([]uint32, m)
	found := make([]bool, m)
	remaining := m

	for x := uint32(0); x <= f.N() && remaining > 0; x++ {
		y := f.Sqr(x) ^ x
		for i := 0; i < 2; i++ {
			r := f.Log(y)
			if y != 0 && r < uint32(m) && !found[r] {
				xi[r] = x
				found[r] = true
				remaining--
				break
			}
			y ^= ak
		}
	}

	if remaining != 0 {
		return nil, errors.Errorf("bch: no quadratic base for %s, %d of %d missing", f, remaining, m)
	}

	return xi, nil
}

// loadECC unpacks big-endian ecc bytes into words, zero padding the last.
func (c *Code) loadECC(dst []uint32, src []byte) {
	if len(src) < c.eccBytes {
		panic(fmt.Sprintf("bch: ecc buffer holds %d bytes, need %d", len(src), c.eccBytes))
	}

	nwords := c.eccWords - 1
	for i := 0; i < nwords; i++ {
		b := src[4*i:]
		dst[i] = uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}

	var pad [4]byte
	copy(pad[:], src[4*nwords:c.eccBytes])
	dst[nwords] = uint32(pad[0])<<24 | uint32(pad[1])<<16 | uint32(pad[2])<<8 | uint32(pad[3])
}

// storeECC packs words into big-endian ecc bytes.
func (c *Code) storeECC(dst []byte, src []uint32) {
	if len(dst) < c.eccBytes {
		panic(fmt.Sprintf("bch: ecc buffer holds %d bytes, need %d", len(dst), c.eccBytes))
	}

	nwords := c.eccWords - 1
	for i := 0; i < nwords; i++ {
		w := src[i]
		dst[4*i] = byte(w >> 24)
		dst[4*i+1] = byte(w >> 16)
		dst[4*i+2] = byte(w >> 8)
		dst[4*i+3] = byte(w)
	}

	w := src[nwords]
	pad := [4]byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
	copy(dst[4*nwords:c.eccBytes], pad[:])
}

// Package gf implements arithmetic over the binary extension fields GF(2^m)
// used by binary BCH codes. Elements are represented by their polynomial
// basis bit pattern; multiplication goes through discrete log and antilog
// tables built once from a primitive polynomial.
package gf

import (
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
)

const (
	MinOrder = 5
	MaxOrder = 15
)

var (
	ErrInvalidOrder = errors.New("gf: invalid field order")
	ErrNonPrimitive = errors.New("gf: polynomial is not primitive")
)

// Default primitive polynomials for m = MinOrder..MaxOrder.
var defaultPolys = [...]uint32{
	0x25, 0x43, 0x83, 0x11d, 0x211, 0x409, 0x805, 0x1053, 0x201b, 0x402b, 0x8003,
}

// DefaultPoly returns the built-in primitive polynomial for GF(2^m), or 0 if
// m is out of range.
func DefaultPoly(m int) uint32 {
	if m < MinOrder || m > MaxOrder {
		return 0
	}
	return defaultPolys[m-MinOrder]
}

// A Field represents GF(2^m) generated by a specific primitive polynomial.
// A Field is immutable after construction and safe for concurrent use.
type Field struct {
	m    int
	n    uint32
	poly uint32

	pow []uint32 // pow[i] = a^i, pow[n] = 1
	log []uint32 // log[x] for x != 0, log[0] = 0 is a sentinel
}

// New builds the log and antilog tables of GF(2^m) from poly. A poly of 0
// selects DefaultPoly(m).
func New(m int, poly uint32) (*Field, error) {
	if m < MinOrder || m > MaxOrder {
		return nil, errors.Wrapf(ErrInvalidOrder, "m=%d not in [%d,%d]", m, MinOrder, MaxOrder)
	}
	if poly == 0 {
		poly = DefaultPoly(m)
	}

	// The primitive polynomial must be of degree m.
	if Deg(poly) != m {
		return nil, errors.Wrapf(ErrNonPrimitive, "poly=0x%X has degree %d, want %d", poly, Deg(poly), m)
	}

	f := &Field{
		m:    m,
		n:    1<<uint(m) - 1,
		poly: poly,
	}
	f.pow = make([]uint32, f.n+1)
	f.log = make([]uint32, f.n+1)

	k := uint32(1) << uint(m)
	x := uint32(1)
	for i := uint32(0); i < f.n; i++ {
		f.pow[i] = x
		f.log[x] = i
		if i != 0 && x == 1 {
			return nil, errors.Wrapf(ErrNonPrimitive, "poly=0x%X: a^%d = 1", poly, i)
		}
		x <<= 1
		if x&k != 0 {
			x ^= poly
		}
	}
	f.pow[f.n] = 1
	f.log[0] = 0

	return f, nil
}

func (f *Field) String() string {
	return fmt.Sprintf("{M:%d N:%d Poly:0x%X}", f.m, f.n, f.poly)
}

// M returns the extension degree of the field.
func (f *Field) M() int { return f.m }

// N returns 2^m - 1, the number of nonzero elements.
func (f *Field) N() uint32 { return f.n }

// Poly returns the primitive polynomial the field was built from.
func (f *Field) Poly() uint32 { return f.poly }

// Exp returns a^i for 0 <= i < 2n.
func (f *Field) Exp(i uint32) uint32 {
	return f.pow[f.ModS(i)]
}

// Pow returns a^i for any integer i.
func (f *Field) Pow(i int) uint32 {
	n := int(f.n)
	i %= n
	if i < 0 {
		i += n
	}
	return f.pow[i]
}

// Log returns the discrete logarithm of x. Log(0) is the table sentinel 0
// and carries no meaning.
func (f *Field) Log(x uint32) uint32 {
	return f.log[x]
}

// ILog returns the logarithm of the inverse of x, x != 0.
func (f *Field) ILog(x uint32) uint32 {
	return f.ModS(f.n - f.log[x])
}

// ModS reduces v < 2n modulo n.
func (f *Field) ModS(v uint32) uint32 {
	if v < f.n {
		return v
	}
	return v - f.n
}

// Mod reduces any v modulo n without division, folding the high bits into
// the low ones since 2^m = 1 (mod n).
func (f *Field) Mod(v uint32) uint32 {
	for v >= f.n {
		v -= f.n
		v = v&f.n + v>>uint(f.m)
	}
	return v
}

// Add returns the sum of x and y in the field.
func (f *Field) Add(x, y uint32) uint32 {
	return x ^ y
}

// Mul returns the product of x and y in the field.
func (f *Field) Mul(x, y uint32) uint32 {
	if x == 0 || y == 0 {
		return 0
	}
	return f.pow[f.ModS(f.log[x]+f.log[y])]
}

// Sqr returns x*x.
func (f *Field) Sqr(x uint32) uint32 {
	if x == 0 {
		return 0
	}
	return f.pow[f.ModS(2*f.log[x])]
}

// Div returns x/y. y must be nonzero; the result for y == 0 is unspecified.
func (f *Field) Div(x, y uint32) uint32 {
	assertNonZero(y, "Div")
	if x == 0 {
		return 0
	}
	return f.pow[f.ModS(f.log[x]+f.n-f.log[y])]
}

// Inv returns the multiplicative inverse of x. x must be nonzero.
func (f *Field) Inv(x uint32) uint32 {
	assertNonZero(x, "Inv")
	return f.pow[f.n-f.log[x]]
}

// Trace returns the absolute trace of x, x + x^2 + ... + x^(2^(m-1)), which
// is always 0 or 1.
func (f *Field) Trace(x uint32) uint32 {
	var sum uint32
	for j := 0; j < f.m; j++ {
		sum ^= x
		x = f.Sqr(x)
	}
	return sum
}

// Deg returns the degree of the binary polynomial p, or -1 for p == 0.
func Deg(p uint32) int {
	return bits.Len32(p) - 1
}

package bch

import (
	"fmt"
	"strings"
)

// gfPoly is a polynomial over GF(2^m). c[i] is the coefficient of X^i. Only
// c[0..deg] is meaningful; reductions lower deg without clearing the
// coefficients above it.
type gfPoly struct {
	deg int
	c   []uint32
}

func newPoly(maxDeg int) gfPoly {
	return gfPoly{c: make([]uint32, maxDeg+1)}
}

func (p *gfPoly) copyFrom(src gfPoly) {
	p.deg = src.deg
	copy(p.c[:src.deg+1], src.c[:src.deg+1])
}

func (p gfPoly) String() string {
	var terms []string
	for i := p.deg; i >= 0; i-- {
		if p.c[i] == 0 {
			continue
		}
		terms = append(terms, fmt.Sprintf("0x%X*X^%d", p.c[i], i))
	}
	if len(terms) == 0 {
		return "0"
	}
	return strings.Join(terms, " + ")
}

// logRep stores the logarithms of the coefficients of a divided by its
// leading coefficient into rep[0..deg-1], -1 for zero coefficients.
func (c *Code) logRep(a gfPoly, rep []int32) {
	f := c.field
	l := f.N() - f.Log(a.c[a.deg])
	for i := 0; i < a.deg; i++ {
		if a.c[i] != 0 {
			rep[i] = int32(f.ModS(f.Log(a.c[i]) + l))
		} else {
			rep[i] = -1
		}
	}
}

// polyMod reduces a modulo b in place. rep is the log representation of b,
// computed into the cache when nil. The coefficients of a at and above b.deg
// are left holding the scaled quotient.
func (c *Code) polyMod(a *gfPoly, b gfPoly, rep []int32) {
	d := b.deg
	if a.deg < d {
		return
	}

	if rep == nil {
		rep = c.cache
		c.logRep(b, rep)
	}

	f := c.field
	for j := a.deg; j >= d; j-- {
		if a.c[j] == 0 {
			continue
		}
		la := f.Log(a.c[j])
		p := j - d
		for i := 0; i < d; i, p = i+1, p+1 {
			if m := rep[i]; m >= 0 {
				a.c[p] ^= f.Exp(uint32(m) + la)
			}
		}
	}

	a.deg = d - 1
	for a.c[a.deg] == 0 && a.deg > 0 {
		a.deg--
	}
}

// polyDiv computes q = a/b up to a constant factor, destroying a.
func (c *Code) polyDiv(a *gfPoly, b gfPoly, q *gfPoly) {
	if a.deg < b.deg {
		q.deg = 0
		q.c[0] = 0
		return
	}

	q.deg = a.deg - b.deg
	c.polyMod(a, b, nil)
	copy(q.c[:q.deg+1], a.c[b.deg:])
}

// polyGCD returns gcd(a, b). Both arguments are destroyed and the result
// aliases one of them.
func (c *Code) polyGCD(a, b *gfPoly) *gfPoly {
	if a.deg < b.deg {
		a, b = b, a
	}

	for b.deg > 0 {
		c.polyMod(a, *b, nil)
		a, b = b, a
	}

	return a
}

// traceBKMod computes out = Tr(a^k*X) mod f, using z as scratch.
func (c *Code) traceBKMod(k int, f gfPoly, z, out *gfPoly) {
	field := c.field

	// z holds z^(2^i) mod f.
	z.deg = 1
	z.c[0] = 0
	z.c[1] = field.Exp(uint32(k))

	out.deg = 0
	clear(out.c[:f.deg+1])

	// The log representation of f is reused by every reduction below.
	c.logRep(f, c.cache)

	for i := 0; i < c.m; i++ {
		for j := z.deg; j >= 0; j-- {
			out.c[j] ^= z.c[j]
			z.c[2*j] = field.Sqr(z.c[j])
			z.c[2*j+1] = 0
		}
		if z.deg > out.deg {
			out.deg = z.deg
		}

		if i < c.m-1 {
			z.deg *= 2
			c.polyMod(z, f, c.cache)
		}
	}

	for out.c[out.deg] == 0 && out.deg > 0 {
		out.deg--
	}
}

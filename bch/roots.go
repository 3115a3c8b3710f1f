package bch

import (
	"math/bits"

	"github.com/bemasher/bch/gf"
)

// The roots of the error locator are reported as the logarithms of their
// inverses, which are the error positions in the codeword polynomial.

// findRoots appends the roots of p to roots. Polynomials of degree above 4
// are split with the trace of a^k*X and each factor is searched with k+1.
func (c *Code) findRoots(k int, p gfPoly, roots []uint32) []uint32 {
	switch p.deg {
	case 0:
		return roots
	case 1:
		return c.deg1Roots(p, roots)
	case 2:
		return c.deg2Roots(p, roots)
	case 3:
		return c.deg3Roots(p, roots)
	case 4:
		return c.deg4Roots(p, roots)
	}

	if k > c.m {
		return roots
	}

	g, h, split := c.factor(k, p)
	roots = c.findRoots(k+1, g, roots)
	if split {
		roots = c.findRoots(k+1, h, roots)
	}

	return roots
}

// factor splits f as gcd(f, Tr(a^k*X) mod f) times the quotient. Both
// factors are stored in the storage of f: g at its start and h 3*deg(g)
// coefficients in, which leaves each of them room for its own split. When
// the trace yields no proper factor, g is f and split is false.
func (c *Code) factor(k int, f gfPoly) (g, h gfPoly, split bool) {
	f2 := &c.poly2t[0]
	q := &c.poly2t[1]
	tk := &c.poly2t[2]
	z := &c.poly2t[3]

	g = f

	c.traceBKMod(k, f, z, tk)
	if tk.deg == 0 {
		return g, h, false
	}

	f2.copyFrom(f)
	gcd := c.polyGCD(f2, tk)
	if gcd.deg >= f.deg {
		return g, h, false
	}

	c.polyDiv(&f, *gcd, q)

	off := 3 * gcd.deg
	g = gfPoly{c: f.c[:off:off]}
	h = gfPoly{c: f.c[off:]}
	g.copyFrom(*gcd)
	h.copyFrom(*q)

	return g, h, true
}

// deg1Roots solves bX + c = 0.
func (c *Code) deg1Roots(p gfPoly, roots []uint32) []uint32 {
	if p.c[0] == 0 {
		return roots
	}

	f := c.field
	return append(roots, f.ModS(c.n-f.Log(p.c[0])+f.Log(p.c[1])))
}

// deg2Roots solves aX^2 + bX + c = 0 through z^2 + z = u.
func (c *Code) deg2Roots(p gfPoly, roots []uint32) []uint32 {
	if p.c[0] == 0 || p.c[1] == 0 {
		return roots
	}

	f := c.field
	n := c.n
	l0 := f.Log(p.c[0])
	l1 := f.Log(p.c[1])
	l2 := f.Log(p.c[2])

	// z = aX/b turns aX^2 + bX + c into z^2 + z + u, u = ac/b^2.
	u := f.Exp(f.Mod(l0 + l2 + 2*(n-l1)))

	var r uint32
	for v := u; v != 0; {
		i := gf.Deg(v)
		r ^= c.xiTab[i]
		v ^= 1 << uint(i)
	}

	if f.Sqr(r)^r != u {
		return roots
	}

	// Undo z = aX/b and take log(1/X).
	return append(roots,
		f.Mod(2*n-l1-f.Log(r)+l2),
		f.Mod(2*n-l1-f.Log(r^1)+l2),
	)
}

// deg3Roots multiplies the cubic by (X + a2) to get an affine quartic and
// drops the extra root.
func (c *Code) deg3Roots(p gfPoly, roots []uint32) []uint32 {
	if p.c[0] == 0 {
		return roots
	}

	f := c.field

	// Monic X^3 + a2X^2 + b2X + c2.
	e3 := p.c[3]
	c2 := f.Div(p.c[0], e3)
	b2 := f.Div(p.c[1], e3)
	a2 := f.Div(p.c[2], e3)

	// (X + a2)(X^3 + a2X^2 + b2X + c2) = X^4 + aX^2 + bX + cc
	cc := f.Mul(a2, c2)
	b := f.Mul(a2, b2) ^ c2
	a := f.Sqr(a2) ^ b2

	var tmp [4]uint32
	if c.affine4Roots(a, b, cc, tmp[:]) != 4 {
		return roots
	}

	for _, r := range tmp {
		if r != a2 {
			roots = append(roots, f.ILog(r))
		}
	}

	return roots
}

// deg4Roots transforms the quartic into an affine polynomial.
func (c *Code) deg4Roots(p gfPoly, roots []uint32) []uint32 {
	if p.c[0] == 0 {
		return roots
	}

	f := c.field

	// Monic X^4 + aX^3 + bX^2 + cX + d.
	e4 := p.c[4]
	d := f.Div(p.c[0], e4)
	cc := f.Div(p.c[1], e4)
	b := f.Div(p.c[2], e4)
	a := f.Div(p.c[3], e4)

	var e, a2, b2, c2 uint32
	if a != 0 {
		// Eliminate cX with z = X + e, ae^2 + c = 0:
		//	z^4 + az^3 + (ae+b)z^2 + e^4+be^2+d
		if cc != 0 {
			fv := f.Div(cc, a)
			l := f.Log(fv)
			if l&1 != 0 {
				l += c.n
			}
			e = f.Exp(f.Mod(l / 2))

			d = f.Exp(f.Mod(2*l)) ^ f.Mul(b, fv) ^ d
			b = f.Mul(a, e) ^ b
		}

		// Y = 1/X gives Y^4 + (b/d)Y^2 + (a/d)Y + 1/d.
		if d == 0 {
			// Roots are assumed to have multiplicity 1.
			return roots
		}

		c2 = f.Inv(d)
		b2 = f.Div(a, d)
		a2 = f.Div(b, d)
	} else {
		// Already affine.
		c2 = d
		b2 = cc
		a2 = b
	}

	var tmp [4]uint32
	if c.affine4Roots(a2, b2, c2, tmp[:]) != 4 {
		return roots
	}

	for _, r := range tmp {
		if a != 0 {
			r = f.Inv(r)
		}
		roots = append(roots, f.ILog(r^e))
	}

	return roots
}

// affine4Roots solves X^4 + aX^2 + bX + cc = 0. The left hand side is linear
// over GF(2), so the roots are the solutions of an m x m binary system.
func (c *Code) affine4Roots(a, b, cc uint32, roots []uint32) int {
	f := c.field

	var rows [16]uint32
	j := f.Log(b)
	k := f.Log(a)
	rows[0] = cc

	// Row i+1 is the image of a^i.
	for i := 0; i < c.m; i++ {
		rows[i+1] = f.Exp(uint32(4 * i))
		if a != 0 {
			rows[i+1] ^= f.Exp(k)
		}
		if b != 0 {
			rows[i+1] ^= f.Exp(j)
		}
		j++
		k += 2
	}

	// Transpose the 16x16 bit matrix, m < 16.
	mask := uint32(0xff)
	for s := 8; s != 0; {
		for x := 0; x < 16; x = (x + s + 1) &^ s {
			t := (rows[x]>>uint(s) ^ rows[x+s]) & mask
			rows[x] ^= t << uint(s)
			rows[x+s] ^= t
		}
		s >>= 1
		mask ^= mask << uint(s)
	}

	return c.solveLinearSystem(&rows, roots, 4)
}

// solveLinearSystem row reduces the transposed system and enumerates its
// solutions. It returns nsol when the system has exactly nsol solutions and
// 0 otherwise.
func (c *Code) solveLinearSystem(rows *[16]uint32, sol []uint32, nsol int) int {
	m := c.m

	var param [gf.MaxOrder]int
	k := 0
	mask := uint32(1) << uint(m)

	// Gaussian elimination.
	for col := 0; col < m; col++ {
		rem := 0
		p := col - k

		for r := p; r < m; r++ {
			if rows[r]&mask != 0 {
				if r != p {
					rows[r], rows[p] = rows[p], rows[r]
				}
				rem = r + 1
				break
			}
		}

		if rem != 0 {
			tmp := rows[p]
			for r := rem; r < m; r++ {
				if rows[r]&mask != 0 {
					rows[r] ^= tmp
				}
			}
		} else {
			// No pivot, col is a free parameter.
			param[k] = col
			k++
		}
		mask >>= 1
	}

	// Rewrite the system with a fake row per parameter.
	if k > 0 {
		p := k
		for r := m - 1; r >= 0; r-- {
			if r > m-1-k && rows[r] != 0 {
				// Inconsistent.
				return 0
			}

			if p != 0 && r == param[p-1] {
				p--
				rows[r] = 1 << uint(m-r)
			} else {
				rows[r] = rows[r-p]
			}
		}
	}

	if nsol != 1<<uint(k) {
		return 0
	}

	for p := 0; p < nsol; p++ {
		for col := 0; col < k; col++ {
			rows[param[col]] = rows[param[col]]&^1 | uint32(p>>uint(col))&1
		}

		// Back substitution.
		var tmp uint32
		for r := m - 1; r >= 0; r-- {
			mask := rows[r] & (tmp | 1)
			tmp |= uint32(bits.OnesCount32(mask)&1) << uint(m-r)
		}
		sol[p] = tmp >> 1
	}

	return nsol
}

// chienSearch evaluates p at every position of a block of length bytes.
// It returns roots unchanged unless exactly deg(p) roots are found.
func (c *Code) chienSearch(length int, p gfPoly, roots []uint32) []uint32 {
	f := c.field
	k := uint32(8*length + c.eccBits)

	// Monic log representation, the leading term has log 0.
	c.logRep(p, c.cache)
	c.cache[p.deg] = 0
	syn0 := f.Div(p.c[0], p.c[p.deg])

	start := len(roots)
	for i := c.n - k + 1; i <= c.n; i++ {
		syn := syn0
		for j := 1; j <= p.deg; j++ {
			if m := c.cache[j]; m >= 0 {
				syn ^= f.Pow(int(m) + j*int(i))
			}
		}
		if syn == 0 {
			roots = append(roots, c.n-i)
			if len(roots)-start == p.deg {
				break
			}
		}
	}

	if len(roots)-start != p.deg {
		return roots[:start]
	}

	return roots
}

package bch

import (
	"encoding/binary"
	"math/bits"
)

// Encode computes the ecc of data. The remainder is seeded from ecc, which
// lets a long buffer be encoded in pieces; zero ecc for a one-shot encode.
// The result is written back to ecc, which must hold EccBytes() bytes.
//
// A nil ecc starts from a zero remainder and leaves the result in the
// internal buffer only.
func (c *Code) Encode(data, ecc []byte) {
	r := c.eccBuf
	if ecc != nil {
		c.loadECC(r, ecc)
	} else {
		clear(r)
	}

	l := c.eccWords - 1
	lane := 256 * c.eccWords
	tab0 := c.mod8
	tab1 := tab0[lane:]
	tab2 := tab1[lane:]
	tab3 := tab2[lane:]

	// Split each 32-bit word into 4 polynomials of weight 8:
	//
	//	xxxxxxxx yyyyyyyy zzzzzzzz tttttttt
	//	                           tttttttt mod g = r0
	//	                  zzzzzzzz 00000000 mod g = r1
	//	         yyyyyyyy 00000000 00000000 mod g = r2
	//	xxxxxxxx 00000000 00000000 00000000 mod g = r3
	//	xxxxxxxx yyyyyyyy zzzzzzzz tttttttt mod g = r0^r1^r2^r3
	mlen := len(data) / 4
	for k := 0; k < mlen; k++ {
		w := r[0] ^ binary.BigEndian.Uint32(data[4*k:])

		p0 := tab0[c.eccWords*int(w&0xff):]
		p1 := tab1[c.eccWords*int(w>>8&0xff):]
		p2 := tab2[c.eccWords*int(w>>16&0xff):]
		p3 := tab3[c.eccWords*int(w>>24):]

		for i := 0; i < l; i++ {
			r[i] = r[i+1] ^ p0[i] ^ p1[i] ^ p2[i] ^ p3[i]
		}
		r[l] = p0[l] ^ p1[l] ^ p2[l] ^ p3[l]
	}

	c.encodeUnaligned(data[4*mlen:], r)

	if ecc != nil {
		c.storeECC(ecc, r)
	}
}

// encodeUnaligned feeds data into the remainder one byte at a time.
func (c *Code) encodeUnaligned(data []byte, ecc []uint32) {
	l := c.eccWords - 1
	for _, b := range data {
		p := c.mod8[c.eccWords*int((ecc[0]>>24^uint32(b))&0xff):]
		for i := 0; i < l; i++ {
			ecc[i] = (ecc[i]<<8 | ecc[i+1]>>24) ^ p[i]
		}
		ecc[l] = ecc[l]<<8 ^ p[l]
	}
}

// computeSyndromes evaluates the polynomial held in ecc at a^1 .. a^2t.
// Bits of the last word past eccBits are cleared first.
func (c *Code) computeSyndromes(ecc []uint32, syn []uint32) {
	f := c.field
	s := c.eccBits

	if m := uint(s) & 31; m != 0 {
		ecc[s/32] &^= 1<<(32-m) - 1
	}
	clear(syn[:2*c.t])

	for w := 0; s > 0; w++ {
		poly := ecc[w]
		s -= 32
		for poly != 0 {
			i := bits.Len32(poly) - 1
			for j := 0; j < 2*c.t; j += 2 {
				syn[j] ^= f.Pow((j + 1) * (i + s))
			}
			poly ^= 1 << uint(i)
		}
	}

	// S(2j+2) = S(j+1)^2, syn[j] is final before syn[2j+1] reads it
	for j := 0; j < c.t; j++ {
		syn[2*j+1] = f.Sqr(syn[j])
	}
}

// Syndromes returns the 2t syndromes of an error pattern ecc, the XOR of the
// received ecc and the ecc recomputed from the received data. The result can
// be passed back to Decode, as a hardware ecc engine would.
func (c *Code) Syndromes(ecc []byte) []uint32 {
	c.loadECC(c.eccBuf, ecc)
	syn := make([]uint32, 2*c.t)
	c.computeSyndromes(c.eccBuf, syn)
	return syn
}

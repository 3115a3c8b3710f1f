package bch

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Decode locates the bit errors in a block of length data bytes and its ecc.
//
// The syndromes come from the first available source:
//   - syn, 2t precomputed syndromes;
//   - calcECC, the ecc computed over the received data, XORed with recvECC
//     when given (a nil recvECC means calcECC already holds the XOR);
//   - data and recvECC, the ecc being recomputed from data.
//
// On success the error positions are written to errLoc, which must have room
// for t entries, and their count is returned. A position p refers to bit
// p%8 (LSB = 0) of byte p/8 of the data followed by the ecc. ErrUncorrectable
// is returned when the block holds more than t errors.
func (c *Code) Decode(data []byte, length int, recvECC, calcECC []byte, syn []uint32, errLoc []uint32) (int, error) {
	c.stats.Decodes++

	if length < 0 || 8*length > int(c.n)-c.eccBits {
		return 0, errors.Wrapf(ErrInvalidArgument, "length %d exceeds %d bytes", length, c.MaxDataLen())
	}
	if len(errLoc) < c.t {
		return 0, errors.Wrapf(ErrInvalidArgument, "errLoc has room for %d positions, need %d", len(errLoc), c.t)
	}

	if syn == nil {
		if calcECC == nil {
			if recvECC == nil {
				return 0, errors.Wrap(ErrInvalidArgument, "recvECC is required without calcECC or syn")
			}
			if len(data) < length {
				return 0, errors.Wrapf(ErrInvalidArgument, "data holds %d bytes, length is %d", len(data), length)
			}
			c.Encode(data[:length], nil)
		} else {
			if err := c.checkECC(calcECC); err != nil {
				return 0, err
			}
			c.loadECC(c.eccBuf, calcECC)
		}

		if recvECC != nil {
			if err := c.checkECC(recvECC); err != nil {
				return 0, err
			}
			c.loadECC(c.eccBuf2, recvECC)

			var sum uint32
			for i := range c.eccBuf {
				c.eccBuf[i] ^= c.eccBuf2[i]
				sum |= c.eccBuf[i]
			}
			if sum == 0 {
				c.stats.Clean++
				return 0, nil
			}
		}

		c.computeSyndromes(c.eccBuf, c.syn)
		syn = c.syn
	} else if len(syn) < 2*c.t {
		return 0, errors.Wrapf(ErrInvalidArgument, "%d syndromes given, need %d", len(syn), 2*c.t)
	} else {
		for i, s := range syn[:2*c.t] {
			if s > c.n {
				return 0, errors.Wrapf(ErrInvalidArgument, "syndrome %d is 0x%X, not in GF(2^%d)", i, s, c.m)
			}
		}
	}

	c.stats.Locators++
	nerr := c.errorLocator(syn)
	if nerr > 0 {
		// Factoring reuses the locator's storage.
		var elp string
		if c.debug() {
			elp = c.elp.String()
		}

		var roots []uint32
		switch c.search {
		case Chien:
			roots = c.chienSearch(length, c.elp, c.roots[:0])
		default:
			roots = c.findRoots(1, c.elp, c.roots[:0])
		}

		if c.debug() {
			c.log.WithFields(logrus.Fields{
				"elp":   elp,
				"roots": roots,
			}).Debug("error locator")
		}

		if len(roots) != nerr {
			nerr = -1
		} else {
			nerr = c.positions(length, roots, errLoc)
		}
	}

	if nerr < 0 {
		c.stats.Failures++
		return 0, ErrUncorrectable
	}

	c.stats.Corrected += nerr
	return nerr, nil
}

// positions converts error degrees of the codeword polynomial into bit
// positions, or returns -1 if one falls outside the block.
func (c *Code) positions(length int, roots, errLoc []uint32) int {
	nbits := uint32(8*length + c.eccBits)
	for i, r := range roots {
		if r >= nbits {
			return -1
		}

		// Polynomial degrees run from the last bit, and bytes are MSB first.
		p := nbits - 1 - r
		errLoc[i] = p&^7 | (7 - p&7)
	}
	return len(roots)
}

func (c *Code) checkECC(ecc []byte) error {
	if len(ecc) < c.eccBytes {
		return errors.Wrapf(ErrInvalidArgument, "ecc holds %d bytes, need %d", len(ecc), c.eccBytes)
	}
	return nil
}

// Correct decodes data and its ecc and flips the erroneous bits in place.
// It returns the number of bits corrected.
func (c *Code) Correct(data, ecc []byte) (int, error) {
	nerr, err := c.Decode(data, len(data), ecc, nil, nil, c.errLoc)
	if err != nil {
		return 0, err
	}

	Flip(data, ecc, c.errLoc[:nerr])
	return nerr, nil
}

// Flip inverts the bits of data followed by ecc at the positions reported by
// Decode.
func Flip(data, ecc []byte, errLoc []uint32) {
	nbits := uint32(8 * len(data))
	for _, p := range errLoc {
		if p < nbits {
			data[p/8] ^= 1 << (p % 8)
		} else {
			p -= nbits
			ecc[p/8] ^= 1 << (p % 8)
		}
	}
}

// errorLocator runs the binary Berlekamp-Massey algorithm on syn and leaves
// the error locator in c.elp. It returns the degree of the locator, or -1
// when it exceeds t.
func (c *Code) errorLocator(syn []uint32) int {
	f := c.field
	t := c.t
	n := c.n

	elp := &c.elp
	pelp := &c.poly2t[0]
	elpCopy := &c.poly2t[1]

	clear(pelp.c)
	clear(elp.c)
	pelp.deg, pelp.c[0] = 0, 1
	elp.deg, elp.c[0] = 0, 1

	pd := uint32(1)
	pp := -1
	d := syn[0]

	for i := 0; i < t && elp.deg <= t; i++ {
		if d != 0 {
			k := 2*i - pp
			elpCopy.copyFrom(*elp)

			// e[i+1](X) = e[i](X) + d*pd^-1*X^2(i-p)*e[p](X)
			tmp := f.Log(d) + n - f.Log(pd)
			for j := 0; j <= pelp.deg; j++ {
				if pelp.c[j] != 0 {
					elp.c[j+k] ^= f.Pow(int(tmp + f.Log(pelp.c[j])))
				}
			}

			if deg := pelp.deg + k; deg > elp.deg {
				elp.deg = deg
				pelp.copyFrom(*elpCopy)
				pd = d
				pp = 2 * i
			}
		}

		// Next discrepancy.
		if i < t-1 {
			d = syn[2*i+2]
			for j := 1; j <= elp.deg; j++ {
				d ^= f.Mul(elp.c[j], syn[2*i+2-j])
			}
		}
	}

	if elp.deg > t {
		return -1
	}
	return elp.deg
}

package bch

import (
	"bytes"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func flip(data, ecc []byte, p uint32) {
	Flip(data, ecc, []uint32{p})
}

// position converts the index of a bit counted MSB first from the start of
// the data into a Decode position.
func position(q int) uint32 {
	return uint32(q&^7 | (7 - q&7))
}

func sorted(p []uint32) []uint32 {
	s := append([]uint32(nil), p...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}

func TestDecodeSingle(t *testing.T) {
	c := newCode(t, 5, 1)

	data := []byte{0xAF}
	ecc := make([]byte, c.EccBytes())
	c.Encode(data, ecc)

	data[0] ^= 1 << 2
	errLoc := make([]uint32, c.T())
	n, err := c.Decode(data, len(data), ecc, nil, nil, errLoc)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, uint32(2), errLoc[0])

	n, err = c.Correct(data, ecc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0xAF}, data)
}

func TestDecodeDataAndECC(t *testing.T) {
	c := newCode(t, 5, 2)

	data := []byte{0x12, 0x34}
	orig := bytes.Clone(data)
	ecc := make([]byte, c.EccBytes())
	c.Encode(data, ecc)
	origECC := bytes.Clone(ecc)

	// Bit 5 of the first data byte and the first ecc bit.
	flip(data, ecc, 5)
	flip(data, ecc, position(16))

	errLoc := make([]uint32, c.T())
	n, err := c.Decode(data, len(data), ecc, nil, nil, errLoc)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, []uint32{5, 23}, sorted(errLoc[:n]))

	n, err = c.Correct(data, ecc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, orig, data)
	assert.Equal(t, origECC, ecc)
}

func TestDecodeProperties(t *testing.T) {
	for _, cfg := range configs {
		for _, rs := range []RootSearch{BTA, Chien} {
			c := newCode(t, cfg.m, cfg.t)
			c.SetRootSearch(rs)
			maxLen := min(c.MaxDataLen(), 512)

			t.Run(c.String()+"/"+rs.String(), rapid.MakeCheck(func(t *rapid.T) {
				data := rapid.SliceOfN(rapid.Byte(), 0, maxLen).Draw(t, "data")
				nbits := 8*len(data) + c.EccBits()
				nerr := rapid.IntRange(0, c.T()).Draw(t, "nerr")
				bits := rapid.SliceOfNDistinct(rapid.IntRange(0, nbits-1), nerr, nerr, rapid.ID[int]).Draw(t, "bits")

				ecc := make([]byte, c.EccBytes())
				c.Encode(data, ecc)
				orig := bytes.Clone(data)
				origECC := bytes.Clone(ecc)

				want := make([]uint32, 0, nerr)
				for _, q := range bits {
					p := position(q)
					flip(data, ecc, p)
					want = append(want, p)
				}

				errLoc := make([]uint32, c.T())
				n, err := c.Decode(data, len(data), ecc, nil, nil, errLoc)
				require.NoError(t, err)
				require.Equal(t, nerr, n)
				require.Equal(t, sorted(want), sorted(errLoc[:n]))

				// Same result from the ecc recomputed by the caller.
				calc := make([]byte, c.EccBytes())
				c.Encode(data, calc)
				n, err = c.Decode(nil, len(data), ecc, calc, nil, errLoc)
				require.NoError(t, err)
				require.Equal(t, sorted(want), sorted(errLoc[:n]))

				// From the XOR of both, and from its syndromes.
				for i := range calc {
					calc[i] ^= ecc[i]
				}
				n, err = c.Decode(nil, len(data), nil, calc, nil, errLoc)
				require.NoError(t, err)
				require.Equal(t, sorted(want), sorted(errLoc[:n]))

				if nerr > 0 {
					n, err = c.Decode(nil, len(data), nil, nil, c.Syndromes(calc), errLoc)
					require.NoError(t, err)
					require.Equal(t, sorted(want), sorted(errLoc[:n]))
				}

				n, err = c.Correct(data, ecc)
				require.NoError(t, err)
				require.Equal(t, nerr, n)
				require.Equal(t, orig, data)
				require.Equal(t, origECC, ecc)
			}))
		}
	}
}

func TestDecodeBeyondCapability(t *testing.T) {
	for _, cfg := range configs {
		c := newCode(t, cfg.m, cfg.t)
		maxLen := min(c.MaxDataLen(), 512)

		t.Run(c.String(), rapid.MakeCheck(func(t *rapid.T) {
			data := rapid.SliceOfN(rapid.Byte(), 0, maxLen).Draw(t, "data")
			nbits := 8*len(data) + c.EccBits()
			nerr := rapid.IntRange(c.T()+1, min(c.T()+4, nbits)).Draw(t, "nerr")
			bits := rapid.SliceOfNDistinct(rapid.IntRange(0, nbits-1), nerr, nerr, rapid.ID[int]).Draw(t, "bits")

			ecc := make([]byte, c.EccBytes())
			c.Encode(data, ecc)
			for _, q := range bits {
				flip(data, ecc, position(q))
			}

			// Either detected, or miscorrected to another codeword within t.
			errLoc := make([]uint32, c.T())
			n, err := c.Decode(data, len(data), ecc, nil, nil, errLoc)
			if err != nil {
				require.ErrorIs(t, err, ErrUncorrectable)
				return
			}
			// Positions are remapped within bytes, so the bound is byte rounded.
			require.LessOrEqual(t, n, c.T())
			for _, p := range errLoc[:n] {
				require.Less(t, p, uint32(8*(len(data)+c.EccBytes())))
			}
		}))
	}
}

// Both searches agree whenever the locator has distinct roots inside the
// block. Past t errors the trace algorithm may also report a repeated root,
// which the evaluation search never does.
func TestDecodeRootSearchAgree(t *testing.T) {
	for _, cfg := range configs {
		bta := newCode(t, cfg.m, cfg.t)
		chien := newCode(t, cfg.m, cfg.t)
		chien.SetRootSearch(Chien)
		maxLen := min(bta.MaxDataLen(), 256)

		t.Run(bta.String(), rapid.MakeCheck(func(t *rapid.T) {
			data := rapid.SliceOfN(rapid.Byte(), 0, maxLen).Draw(t, "data")
			nbits := 8*len(data) + bta.EccBits()
			nerr := rapid.IntRange(0, min(cfg.t+3, nbits)).Draw(t, "nerr")
			bits := rapid.SliceOfNDistinct(rapid.IntRange(0, nbits-1), nerr, nerr, rapid.ID[int]).Draw(t, "bits")

			ecc := make([]byte, bta.EccBytes())
			bta.Encode(data, ecc)
			for _, q := range bits {
				flip(data, ecc, position(q))
			}
			calc := make([]byte, bta.EccBytes())
			bta.Encode(data, calc)
			for i := range calc {
				calc[i] ^= ecc[i]
			}
			syn := bta.Syndromes(calc)

			a := make([]uint32, cfg.t)
			b := make([]uint32, cfg.t)
			na, errA := bta.Decode(nil, len(data), nil, nil, syn, a)
			nb, errB := chien.Decode(nil, len(data), nil, nil, syn, b)

			if nerr <= cfg.t || errB == nil {
				require.NoError(t, errA)
				require.NoError(t, errB)
				require.Equal(t, sorted(a[:na]), sorted(b[:nb]))
				return
			}

			if errA == nil && distinct(a[:na]) {
				require.NoError(t, errB)
			}
		}))
	}
}

func distinct(p []uint32) bool {
	s := sorted(p)
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			return false
		}
	}
	return true
}

func TestDecodeClean(t *testing.T) {
	c := newCode(t, 13, 8)
	data := bytes.Repeat([]byte{0xC3}, 512)
	ecc := make([]byte, c.EccBytes())
	c.Encode(data, ecc)

	before := c.Stats()
	n, err := c.Decode(data, len(data), ecc, nil, nil, make([]uint32, c.T()))
	require.NoError(t, err)
	assert.Zero(t, n)

	after := c.Stats()
	assert.Equal(t, before.Locators, after.Locators)
	assert.Equal(t, before.Clean+1, after.Clean)
	assert.Equal(t, before.Decodes+1, after.Decodes)
}

func TestDecodeStats(t *testing.T) {
	c := newCode(t, 8, 4)
	data := make([]byte, 16)
	ecc := make([]byte, c.EccBytes())
	c.Encode(data, ecc)

	flip(data, ecc, 3)
	flip(data, ecc, 77)
	_, err := c.Correct(data, ecc)
	require.NoError(t, err)

	assert.Equal(t, Stats{Decodes: 1, Locators: 1, Corrected: 2}, c.Stats())
}

func TestDecodeInvalid(t *testing.T) {
	c := newCode(t, 8, 4)
	ecc := make([]byte, c.EccBytes())
	data := make([]byte, c.MaxDataLen()+1)
	errLoc := make([]uint32, c.T())

	for name, fn := range map[string]func() (int, error){
		"too long":       func() (int, error) { return c.Decode(data, len(data), ecc, nil, nil, errLoc) },
		"negative":       func() (int, error) { return c.Decode(data, -1, ecc, nil, nil, errLoc) },
		"short errLoc":   func() (int, error) { return c.Decode(data, 4, ecc, nil, nil, errLoc[:c.T()-1]) },
		"no source":      func() (int, error) { return c.Decode(nil, 4, nil, nil, nil, errLoc) },
		"no recvECC":     func() (int, error) { return c.Decode(data, 4, nil, nil, nil, errLoc) },
		"short data":     func() (int, error) { return c.Decode(data[:2], 4, ecc, nil, nil, errLoc) },
		"short calcECC":  func() (int, error) { return c.Decode(nil, 4, ecc, ecc[:1], nil, errLoc) },
		"short recvECC":  func() (int, error) { return c.Decode(data, 4, ecc[:1], nil, nil, errLoc) },
		"short syndrome": func() (int, error) { return c.Decode(nil, 4, nil, nil, make([]uint32, 3), errLoc) },
	} {
		n, err := fn()
		assert.ErrorIs(t, err, ErrInvalidArgument, name)
		assert.Zero(t, n, name)
	}
}

func TestDecodeInvalidCapability(t *testing.T) {
	_, err := New(15, 2185, 0)
	assert.ErrorIs(t, err, ErrInvalidCapability)
}

func TestDecodeDebugLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	c := newCode(t, 10, 8)
	c.SetLogger(logger.WithField("code", c.String()))
	nbits := 8*32 + c.EccBits()

	for _, errs := range [][]uint32{
		{100},
		{100, 7, 250, 300, 17, 64},
	} {
		hook.Reset()

		data := make([]byte, 32)
		ecc := make([]byte, c.EccBytes())
		c.Encode(data, ecc)

		degrees := make([]int, len(errs))
		for i, p := range errs {
			flip(data, ecc, p)
			degrees[i] = nbits - 1 - int(position(int(p)))
		}

		n, err := c.Correct(data, ecc)
		require.NoError(t, err)
		require.Equal(t, len(errs), n)

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "error locator", entry.Message)
		assert.Equal(t, locator(c, degrees).String(), entry.Data["elp"])

		roots, ok := entry.Data["roots"].([]uint32)
		require.True(t, ok)
		want := make([]uint32, len(degrees))
		for i, r := range degrees {
			want[i] = uint32(r)
		}
		assert.Equal(t, sorted(want), sorted(roots))
	}
}

// A single error must decode at every capability, which needs every even
// syndrome to be the square of its half.
func TestDecodeSingleHighCapability(t *testing.T) {
	for _, cfg := range configs {
		c := newCode(t, cfg.m, cfg.t)
		f := c.Field()

		data := make([]byte, min(16, c.MaxDataLen()))
		ecc := make([]byte, c.EccBytes())
		c.Encode(data, ecc)
		flip(data, ecc, 3)

		calc := make([]byte, c.EccBytes())
		c.Encode(data, calc)
		for i := range calc {
			calc[i] ^= ecc[i]
		}
		syn := c.Syndromes(calc)
		e := int(f.Log(syn[0]))
		for k := 1; k <= 2*c.T(); k++ {
			require.Equal(t, f.Pow(k*e), syn[k-1], "%s S%d", c, k)
		}

		n, err := c.Correct(data, ecc)
		require.NoError(t, err, "%s", c)
		assert.Equal(t, 1, n)
		assert.Equal(t, make([]byte, len(data)), data)
	}
}

func TestDecodeSyndromeRange(t *testing.T) {
	c := newCode(t, 8, 4)
	errLoc := make([]uint32, c.T())

	syn := make([]uint32, 2*c.T())
	syn[0] = 0x1000
	n, err := c.Decode(nil, 4, nil, nil, syn, errLoc)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, n)

	syn[0] = uint32(c.N())
	_, err = c.Decode(nil, 4, nil, nil, syn, errLoc)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
}

func BenchmarkDecode(b *testing.B) {
	for _, cfg := range []struct{ m, t, size, nerr int }{
		{13, 4, 512, 4},
		{13, 8, 512, 8},
		{14, 24, 1024, 24},
		{15, 40, 1024, 40},
	} {
		for _, rs := range []RootSearch{BTA, Chien} {
			c, err := New(cfg.m, cfg.t, 0)
			if err != nil {
				b.Fatal(err)
			}
			c.SetRootSearch(rs)

			data := make([]byte, cfg.size)
			ecc := make([]byte, c.EccBytes())
			c.Encode(data, ecc)
			for i := 0; i < cfg.nerr; i++ {
				flip(data, ecc, uint32(97*i+13))
			}
			errLoc := make([]uint32, c.T())

			b.Run(c.String()+"/"+rs.String(), func(b *testing.B) {
				b.SetBytes(int64(len(data)))
				for i := 0; i < b.N; i++ {
					if _, err := c.Decode(data, len(data), ecc, nil, nil, errLoc); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

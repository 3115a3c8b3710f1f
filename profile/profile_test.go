package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bemasher/bch/bch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	names := Names()
	for _, name := range []string{"pocsag", "hamming31", "nand512-t4", "nand512-t8", "nand1k-t24", "onfi-t40"} {
		assert.Contains(t, names, name)

		p, err := Lookup(name)
		require.NoError(t, err)
		require.NoError(t, p.Validate(), "%s", p)
	}
	assert.IsIncreasing(t, names)
}

func TestPOCSAG(t *testing.T) {
	p, err := Lookup("pocsag")
	require.NoError(t, err)

	c, err := p.New()
	require.NoError(t, err)
	assert.Equal(t, 10, c.EccBits())
	assert.Equal(t, 31, c.N())
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestRegisterPanics(t *testing.T) {
	assert.Panics(t, func() { Register(Profile{}) })
	assert.Panics(t, func() { Register(Profile{Name: "pocsag", M: 5, T: 2}) })
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		p   Profile
		err error
	}{
		{Profile{M: 13, T: 4}, ErrInvalid},
		{Profile{Name: "neg", M: 13, T: 4, BlockSize: -1}, ErrInvalid},
		{Profile{Name: "big", M: 13, T: 4, BlockSize: 1016}, ErrInvalid},
		{Profile{Name: "order", M: 4, T: 1}, bch.ErrInvalidOrder},
		{Profile{Name: "cap", M: 5, T: 7}, bch.ErrInvalidCapability},
		{Profile{Name: "poly", M: 6, T: 2, Poly: 0x49}, bch.ErrNonPrimitivePolynomial},
	} {
		assert.ErrorIs(t, tc.p.Validate(), tc.err, "%s", tc.p)
	}

	assert.NoError(t, Profile{Name: "edge", M: 13, T: 4, BlockSize: 1015}.Validate())
}

const doc = `
profiles:
  - name: nand2k-t12
    m: 14
    t: 12
    poly: 0x402b
    blocksize: 512
  - name: small
    m: 8
    t: 2
`

func TestLoad(t *testing.T) {
	ps, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []Profile{
		{Name: "nand2k-t12", M: 14, T: 12, Poly: 0x402b, BlockSize: 512},
		{Name: "small", M: 8, T: 2},
	}, ps)
}

func TestLoadErrors(t *testing.T) {
	for name, src := range map[string]string{
		"syntax":    "profiles: [",
		"unknown":   "profiles:\n  - name: x\n    m: 13\n    t: 4\n    colour: red\n",
		"invalid":   "profiles:\n  - name: x\n    m: 13\n    t: 1000\n",
		"duplicate": "profiles:\n  - {name: x, m: 13, t: 4}\n  - {name: x, m: 13, t: 8}\n",
	} {
		_, err := Load(strings.NewReader(src))
		assert.Error(t, err, name)
	}

	ps, err := Load(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, ps)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - {name: loaded-t6, m: 10, t: 6, blocksize: 64}\n"), 0o644))

	ps, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, ps, 1)

	p, err := Lookup("loaded-t6")
	require.NoError(t, err)
	assert.Equal(t, 64, p.BlockSize)

	// A second load collides with the first.
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// Package profile keeps a registry of named BCH code configurations.
//
// Built-in profiles cover common NAND page layouts and the POCSAG code word.
// More can be registered at run time or loaded from a YAML file:
//
//	profiles:
//	  - name: nand2k-t12
//	    m: 14
//	    t: 12
//	    poly: 0x402b
//	    blocksize: 512
package profile

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/bemasher/bch/bch"
	"github.com/bemasher/bch/crc"
	"github.com/bemasher/bch/gf"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknown = errors.New("profile: unknown profile")
	ErrInvalid = errors.New("profile: invalid profile")
)

// A Profile names a code and, optionally, the data bytes per frame used by
// the frame format. A Poly of 0 selects the default primitive polynomial and
// a BlockSize of 0 the largest block the code can frame.
type Profile struct {
	Name      string `yaml:"name"`
	M         int    `yaml:"m"`
	T         int    `yaml:"t"`
	Poly      uint32 `yaml:"poly,omitempty"`
	BlockSize int    `yaml:"blocksize,omitempty"`
}

func (p Profile) String() string {
	return fmt.Sprintf("{Name:%s M:%d T:%d Poly:0x%X BlockSize:%d}", p.Name, p.M, p.T, p.Poly, p.BlockSize)
}

// Validate checks the profile by building its code.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.Wrap(ErrInvalid, "empty name")
	}
	if p.BlockSize < 0 {
		return errors.Wrapf(ErrInvalid, "%s: negative block size %d", p.Name, p.BlockSize)
	}

	c, err := p.New()
	if err != nil {
		return err
	}
	defer c.Free()

	// A frame carries the block and its checksum under one ecc.
	if limit := c.MaxDataLen() - crc.Size; p.BlockSize > limit {
		return errors.Wrapf(ErrInvalid, "%s: block size %d exceeds %d", p.Name, p.BlockSize, limit)
	}

	return nil
}

// New builds the code described by the profile.
func (p Profile) New() (*bch.Code, error) {
	c, err := bch.New(p.M, p.T, p.Poly)
	if err != nil {
		return nil, errors.Wrapf(err, "profile %s", p.Name)
	}
	return c, nil
}

var (
	profileMutex sync.Mutex
	profiles     = make(map[string]Profile)
)

// Register makes a profile available by name. It panics if the name is empty
// or already registered.
func Register(p Profile) {
	profileMutex.Lock()
	defer profileMutex.Unlock()

	if p.Name == "" {
		panic("profile: empty profile name")
	}
	if _, dup := profiles[p.Name]; dup {
		panic(fmt.Sprintf("profile: profile already registered (%s)", p.Name))
	}
	profiles[p.Name] = p
}

// Lookup returns the profile registered under name.
func Lookup(name string) (Profile, error) {
	profileMutex.Lock()
	defer profileMutex.Unlock()

	if p, exists := profiles[name]; exists {
		return p, nil
	}
	return Profile{}, errors.Wrapf(ErrUnknown, "%q", name)
}

// Names returns the registered profile names in order.
func Names() []string {
	profileMutex.Lock()
	defer profileMutex.Unlock()

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

type file struct {
	Profiles []Profile `yaml:"profiles"`
}

// Load parses and validates the profiles of a YAML document without
// registering them.
func Load(r io.Reader) ([]Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "profile: parse")
	}

	seen := make(map[string]bool, len(f.Profiles))
	for _, p := range f.Profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, errors.Wrapf(ErrInvalid, "%s: listed twice", p.Name)
		}
		seen[p.Name] = true
	}

	return f.Profiles, nil
}

// LoadFile loads the profiles in path and registers them. A name that is
// already registered is an error rather than a panic.
func LoadFile(path string) ([]Profile, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "profile")
	}
	defer fp.Close()

	ps, err := Load(fp)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	for _, p := range ps {
		if _, err := Lookup(p.Name); err == nil {
			return nil, errors.Wrapf(ErrInvalid, "%s: %s already registered", path, p.Name)
		}
	}
	for _, p := range ps {
		Register(p)
	}

	return ps, nil
}

func init() {
	for _, p := range []Profile{
		{Name: "pocsag", M: 5, T: 2, Poly: gf.DefaultPoly(5)},
		{Name: "hamming31", M: 5, T: 1},
		{Name: "nand512-t4", M: 13, T: 4, BlockSize: 512},
		{Name: "nand512-t8", M: 13, T: 8, BlockSize: 512},
		{Name: "nand1k-t24", M: 14, T: 24, BlockSize: 1024},
		{Name: "onfi-t40", M: 15, T: 40, BlockSize: 1024},
	} {
		Register(p)
	}
}

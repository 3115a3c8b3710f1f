// BCH - binary BCH error correction for byte streams.
// Copyright (C) 2015 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bemasher/bch/csv"
	"github.com/bemasher/bch/profile"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var ErrFlag = errors.New("invalid flag")

// Config holds the command line of a run.
type Config struct {
	Mode         string
	Profile      string
	Order        int
	Capability   int
	Poly         uint32
	BlockSize    int
	In           string
	Out          string
	Report       string
	Format       string
	ProfilesFile string
	Chien        bool
	LogLevel     string
	Version      bool
}

func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Mode, "mode", "M", "encode", "operation: encode, decode or profiles")
	fs.StringVarP(&cfg.Profile, "profile", "p", "nand512-t8", "code profile, list them with --mode=profiles")
	fs.IntVarP(&cfg.Order, "order", "m", 0, "field order m, overrides the profile")
	fs.IntVarP(&cfg.Capability, "capability", "t", 0, "correctable bits per frame, overrides the profile")
	fs.Uint32Var(&cfg.Poly, "poly", 0, "primitive polynomial, overrides the profile, 0 for the default")
	fs.IntVarP(&cfg.BlockSize, "blocksize", "b", 0, "data bytes per frame, overrides the profile, 0 for the largest")
	fs.StringVarP(&cfg.In, "in", "i", "-", "input file, - for stdin")
	fs.StringVarP(&cfg.Out, "out", "o", "-", "output file, - for stdout")
	fs.StringVarP(&cfg.Report, "report", "r", "", "frame report file when decoding, empty for stderr")
	fs.StringVarP(&cfg.Format, "format", "f", "plain", "report format: plain, csv, json, or xml")
	fs.StringVar(&cfg.ProfilesFile, "profiles", "", "YAML file of additional profiles")
	fs.BoolVar(&cfg.Chien, "chien", false, "find error locations by Chien search instead of factoring")
	fs.StringVarP(&cfg.LogLevel, "loglevel", "l", "info", "log level: debug, info, warn or error")
	fs.BoolVarP(&cfg.Version, "version", "V", false, "display build date and commit hash")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
	}
}

// EnvOverride sets every flag named in the environment as BCH_<FLAG>, dashes
// replaced by underscores. Flags given on the command line win when it is
// parsed afterwards.
func EnvOverride(fs *pflag.FlagSet, lookup func(string) (string, bool), log logrus.FieldLogger) {
	fs.VisitAll(func(f *pflag.Flag) {
		envName := "BCH_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		flagValue, ok := lookup(envName)
		if !ok || flagValue == "" {
			return
		}

		if err := fs.Set(f.Name, flagValue); err != nil {
			log.Warnf("Environment variable %q failed to override flag %q with value %q: %q", envName, f.Name, flagValue, err)
		} else {
			log.Infof("Environment variable %q overrides flag %q with %q", envName, f.Name, flagValue)
		}
	})
}

// JSON, XML and CSV all implement this interface so we can simplify report
// output formatting.
type Encoder interface {
	Encode(interface{}) error
}

func NewEncoder(format string, w io.Writer) (Encoder, error) {
	switch strings.ToLower(format) {
	case "plain":
		return PlainEncoder{w}, nil
	case "csv":
		return csv.NewEncoder(w), nil
	case "json":
		return json.NewEncoder(w), nil
	case "xml":
		return LineEncoder{xml.NewEncoder(w), w}, nil
	}
	return nil, errors.Wrapf(ErrFlag, "format %q", format)
}

type PlainEncoder struct {
	w io.Writer
}

func (pe PlainEncoder) Encode(v interface{}) (err error) {
	_, err = fmt.Fprintln(pe.w, v)
	return
}

// LineEncoder ends each element with a newline.
type LineEncoder struct {
	Encoder
	w io.Writer
}

func (le LineEncoder) Encode(v interface{}) error {
	if err := le.Encoder.Encode(v); err != nil {
		return err
	}
	_, err := io.WriteString(le.w, "\n")
	return err
}

// ResolveProfile looks up the named profile and applies the code overrides.
func (cfg Config) ResolveProfile() (profile.Profile, error) {
	p, err := profile.Lookup(cfg.Profile)
	if err != nil {
		return p, err
	}

	if cfg.Order != 0 || cfg.Capability != 0 || cfg.Poly != 0 {
		p.Name, p.BlockSize = "custom", 0
		if cfg.Order != 0 {
			p.M, p.Poly = cfg.Order, 0
		}
		if cfg.Capability != 0 {
			p.T = cfg.Capability
		}
		if cfg.Poly != 0 {
			p.Poly = cfg.Poly
		}
	}
	if cfg.BlockSize != 0 {
		p.BlockSize = cfg.BlockSize
	}

	return p, p.Validate()
}

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
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/bemasher/bch/bch"
	"github.com/bemasher/bch/frame"
	"github.com/bemasher/bch/profile"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// ErrFailedFrames is returned by a decode that could not recover every frame.
var ErrFailedFrames = errors.New("unrecoverable frames")

// Codec runs one mode of the command.
type Codec struct {
	cfg Config
	log *logrus.Logger

	stdin          io.Reader
	stdout, stderr io.Writer
}

func (cd Codec) Run() error {
	if cd.cfg.ProfilesFile != "" {
		ps, err := profile.LoadFile(cd.cfg.ProfilesFile)
		if err != nil {
			return err
		}
		cd.log.Infof("Loaded %d profiles from %s", len(ps), cd.cfg.ProfilesFile)
	}

	switch cd.cfg.Mode {
	case "encode":
		return cd.encode()
	case "decode":
		return cd.decode()
	case "profiles":
		return cd.profiles()
	}
	return errors.Wrapf(ErrFlag, "mode %q", cd.cfg.Mode)
}

// layout builds the code and frame layout of the configured profile.
func (cd Codec) layout() (frame.Layout, error) {
	p, err := cd.cfg.ResolveProfile()
	if err != nil {
		return frame.Layout{}, err
	}

	code, err := p.New()
	if err != nil {
		return frame.Layout{}, err
	}
	if cd.cfg.Chien {
		code.SetRootSearch(bch.Chien)
	}
	code.SetLogger(cd.log.WithField("profile", p.Name))

	l, err := frame.NewLayout(code, p.BlockSize)
	if err != nil {
		return l, err
	}

	entry := cd.log.WithField("profile", p.Name)
	code.Log(entry)
	entry.Infoln("BlockSize:", l.BlockSize)
	entry.Infoln("FrameSize:", l.Size())

	return l, nil
}

func (cd Codec) open() (io.ReadCloser, error) {
	if cd.cfg.In == "-" {
		return io.NopCloser(cd.stdin), nil
	}
	fp, err := os.Open(cd.cfg.In)
	return fp, errors.Wrap(err, "input")
}

func (cd Codec) create(name string, std io.Writer) (io.WriteCloser, error) {
	if name == "-" || name == "" {
		return nopWriteCloser{std}, nil
	}
	fp, err := os.Create(name)
	return fp, errors.Wrap(err, "output")
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func (cd Codec) encode() (err error) {
	l, err := cd.layout()
	if err != nil {
		return err
	}

	in, err := cd.open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := cd.create(cd.cfg.Out, cd.stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = errors.Wrap(cerr, "output")
		}
	}()

	start := time.Now()
	fw := frame.NewWriter(out, l)
	n, err := io.Copy(fw, in)
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, "encode")
	}

	cd.log.WithFields(logrus.Fields{
		"bytes":   n,
		"frames":  fw.Frames(),
		"elapsed": time.Since(start),
	}).Info("encoded")

	return nil
}

func (cd Codec) decode() (err error) {
	l, err := cd.layout()
	if err != nil {
		return err
	}

	in, err := cd.open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := cd.create(cd.cfg.Out, cd.stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = errors.Wrap(cerr, "output")
		}
	}()

	rep, err := cd.create(cd.cfg.Report, cd.stderr)
	if err != nil {
		return err
	}
	defer rep.Close()

	enc, err := NewEncoder(cd.cfg.Format, rep)
	if err != nil {
		return err
	}

	var encErr error
	fr := frame.NewReader(in, l)
	fr.OnReport = func(r frame.Report) {
		if r.Status == frame.OK {
			return
		}
		cd.log.WithFields(logrus.Fields{
			"frame":  r.Frame,
			"status": r.Status,
			"errors": r.Errors,
		}).Debug("frame")

		if err := enc.Encode(r); err != nil && encErr == nil {
			encErr = errors.Wrap(err, "report")
		}
	}

	start := time.Now()
	n, err := io.Copy(out, fr)
	if err != nil {
		return errors.Wrap(err, "decode")
	}
	if encErr != nil {
		return encErr
	}

	stats := fr.Stats()
	cd.log.WithFields(logrus.Fields{
		"bytes":     n,
		"frames":    stats.Frames,
		"corrected": stats.Corrected,
		"bits":      stats.Bits,
		"failed":    stats.Failed,
		"elapsed":   time.Since(start),
	}).Info("decoded")

	if stats.Failed > 0 {
		return errors.Wrapf(ErrFailedFrames, "%d of %d", stats.Failed, stats.Frames)
	}
	return nil
}

// ProfileInfo describes a registered profile and its derived sizes.
type ProfileInfo struct {
	profile.Profile
	EccBits    int
	EccBytes   int
	MaxDataLen int
}

func (pi ProfileInfo) String() string {
	return fmt.Sprintf("{Name:%s M:%d T:%d Poly:0x%X BlockSize:%d EccBits:%d EccBytes:%d MaxDataLen:%d}",
		pi.Name, pi.M, pi.T, pi.Poly, pi.BlockSize, pi.EccBits, pi.EccBytes, pi.MaxDataLen,
	)
}

func (pi ProfileInfo) Header() []string {
	return []string{"name", "m", "t", "poly", "blocksize", "eccbits", "eccbytes", "maxdatalen"}
}

func (pi ProfileInfo) Record() []string {
	return []string{
		pi.Name,
		strconv.Itoa(pi.M),
		strconv.Itoa(pi.T),
		fmt.Sprintf("0x%X", pi.Poly),
		strconv.Itoa(pi.BlockSize),
		strconv.Itoa(pi.EccBits),
		strconv.Itoa(pi.EccBytes),
		strconv.Itoa(pi.MaxDataLen),
	}
}

func (cd Codec) profiles() error {
	enc, err := NewEncoder(cd.cfg.Format, cd.stdout)
	if err != nil {
		return err
	}

	for _, name := range profile.Names() {
		p, err := profile.Lookup(name)
		if err != nil {
			return err
		}

		code, err := p.New()
		if err != nil {
			return err
		}
		if p.Poly == 0 {
			p.Poly = code.Field().Poly()
		}

		info := ProfileInfo{p, code.EccBits(), code.EccBytes(), code.MaxDataLen()}
		code.Free()

		if err := enc.Encode(info); err != nil {
			return errors.Wrap(err, "profiles")
		}
	}

	return nil
}

func NewLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(ErrFlag, "loglevel: %v", err)
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

func main() {
	var cfg Config
	fs := pflag.CommandLine
	RegisterFlags(fs, &cfg)

	boot, _ := NewLogger(os.Stderr, "info")
	EnvOverride(fs, os.LookupEnv, boot)
	pflag.Parse()

	if cfg.Version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	log, err := NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		boot.Fatal(err)
	}

	cd := Codec{
		cfg:    cfg,
		log:    log,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	if err := cd.Run(); err != nil {
		log.Fatal(err)
	}
}

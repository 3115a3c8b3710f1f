package frame

import (
	"io"

	"github.com/bemasher/bch/bch"
	"github.com/bemasher/bch/crc"
	"github.com/pkg/errors"
)

// Stats counts the frames a Reader has decoded.
type Stats struct {
	Frames    int // frames read, trailer included
	Corrected int // frames with at least one corrected bit
	Bits      int // bits corrected
	Failed    int // uncorrectable or miscorrected frames
}

// A Reader corrects frames and returns the original byte stream. Blocks that
// cannot be recovered are passed through as read; their reports say so.
type Reader struct {
	r io.Reader
	l Layout

	// OnReport, when set, is called with the report of every frame.
	OnReport func(Report)

	// The last two blocks are held back: the final one is the trailer and
	// the one before it is padded.
	bufs   [3][]byte
	held   [][]byte
	out    []byte
	errLoc []uint32
	last   Status
	stats  Stats
	err    error
}

func NewReader(r io.Reader, l Layout) *Reader {
	fr := &Reader{
		r:      r,
		l:      l,
		held:   make([][]byte, 0, 2),
		errLoc: make([]uint32, l.Code.T()),
	}
	for i := range fr.bufs {
		fr.bufs[i] = make([]byte, l.Size())
	}
	return fr
}

// Read returns recovered payload bytes.
func (fr *Reader) Read(p []byte) (int, error) {
	for len(fr.out) == 0 {
		if fr.err != nil {
			return 0, fr.err
		}
		fr.err = fr.next()
	}

	n := copy(p, fr.out)
	fr.out = fr.out[n:]
	return n, nil
}

// Stats returns the counters so far.
func (fr *Reader) Stats() Stats {
	return fr.stats
}

func (fr *Reader) next() error {
	buf := fr.bufs[fr.stats.Frames%len(fr.bufs)]

	if _, err := io.ReadFull(fr.r, buf); err != nil {
		switch err {
		case io.EOF:
			return fr.finish()
		case io.ErrUnexpectedEOF:
			return errors.Wrapf(ErrTruncated, "frame %d is short", fr.stats.Frames)
		}
		return errors.Wrapf(err, "frame %d", fr.stats.Frames)
	}

	fr.decode(buf)

	if len(fr.held) == cap(fr.held) {
		fr.out = fr.held[0]
		fr.held = append(fr.held[:0], fr.held[1])
	}
	fr.held = append(fr.held, buf[:fr.l.BlockSize])

	return nil
}

func (fr *Reader) decode(frame []byte) {
	bs := fr.l.BlockSize
	data, ecc := frame[:bs+crc.Size], frame[bs+crc.Size:]

	rep := Report{Frame: fr.stats.Frames}
	fr.stats.Frames++

	n, err := fr.l.Code.Decode(data, len(data), ecc, nil, nil, fr.errLoc)
	if err != nil {
		rep.Status = Uncorrectable
	} else {
		bch.Flip(data, ecc, fr.errLoc[:n])
		rep.Errors = n
		rep.Positions = append([]uint32(nil), fr.errLoc[:n]...)

		switch {
		case !fr.l.CRC.Verify(data):
			// Leave the block as read.
			bch.Flip(data, ecc, fr.errLoc[:n])
			rep.Status = Miscorrected
		case n > 0:
			rep.Status = Corrected
		}
	}

	switch {
	case rep.Status.Failed():
		fr.stats.Failed++
	case n > 0:
		fr.stats.Corrected++
		fr.stats.Bits += n
	}

	fr.last = rep.Status
	if fr.OnReport != nil {
		fr.OnReport(rep)
	}
}

// finish releases the last data block without its padding.
func (fr *Reader) finish() error {
	if len(fr.held) == 0 {
		return errors.Wrap(ErrTruncated, "no trailer")
	}

	trailer := fr.held[len(fr.held)-1]
	if len(fr.held) == 2 {
		fr.out = fr.held[0]
	}
	fr.held = fr.held[:0]

	if fr.last.Failed() {
		return errors.Wrapf(ErrTrailer, "frame %d: %v", fr.stats.Frames-1, fr.last.Err())
	}

	pad := getPad(trailer)
	if pad >= uint64(fr.l.BlockSize) || pad > 0 && len(fr.out) == 0 {
		return errors.Wrapf(ErrTrailer, "frame %d: %d padding bytes", fr.stats.Frames-1, pad)
	}
	if len(fr.out) > 0 {
		fr.out = fr.out[:fr.l.BlockSize-int(pad)]
	}

	return io.EOF
}

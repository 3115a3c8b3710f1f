package frame

import (
	"io"

	"github.com/pkg/errors"
)

// A Writer splits the bytes written to it into frames.
type Writer struct {
	w io.Writer
	l Layout

	buf    []byte // frame being filled
	n      int    // data bytes in buf
	frames int
	closed bool
	err    error
}

func NewWriter(w io.Writer, l Layout) *Writer {
	return &Writer{
		w:   w,
		l:   l,
		buf: make([]byte, l.Size()),
	}
}

// Write buffers p and writes every frame it completes.
func (fw *Writer) Write(p []byte) (n int, err error) {
	if fw.closed {
		return 0, ErrClosed
	}
	if fw.err != nil {
		return 0, fw.err
	}

	for len(p) > 0 {
		k := copy(fw.buf[fw.n:fw.l.BlockSize], p)
		fw.n += k
		n += k
		p = p[k:]

		if fw.n == fw.l.BlockSize {
			if err = fw.flush(); err != nil {
				return n, err
			}
		}
	}

	return n, nil
}

func (fw *Writer) flush() error {
	fw.l.seal(fw.buf)
	if _, err := fw.w.Write(fw.buf); err != nil {
		fw.err = errors.Wrapf(err, "frame %d", fw.frames)
		return fw.err
	}

	fw.n = 0
	fw.frames++
	return nil
}

// Close pads and writes the last partial frame followed by the trailer. It
// does not close the underlying writer.
func (fw *Writer) Close() error {
	if fw.closed {
		return nil
	}
	fw.closed = true
	if fw.err != nil {
		return fw.err
	}

	var pad int
	if fw.n > 0 {
		pad = fw.l.BlockSize - fw.n
		clear(fw.buf[fw.n:fw.l.BlockSize])
		if err := fw.flush(); err != nil {
			return err
		}
	}

	putPad(fw.buf[:fw.l.BlockSize], pad)
	return fw.flush()
}

// Frames returns the number of frames written, trailer included.
func (fw *Writer) Frames() int {
	return fw.frames
}

// Package frame stores a byte stream as fixed size BCH protected frames.
//
// Each frame holds a block of data, the CRC-16 of the block and the ecc of
// both:
//
//	[data: BlockSize bytes][crc: 2 bytes, big endian][ecc: EccBytes]
//
// The checksum rejects blocks that decode to the wrong codeword when more
// than t bits flipped. The stream ends with a trailer frame whose block holds
// the number of zero bytes padding the last data frame.
package frame

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/bemasher/bch/bch"
	"github.com/bemasher/bch/crc"
	"github.com/pkg/errors"
)

var (
	ErrBlockSize    = errors.New("frame: invalid block size")
	ErrTruncated    = errors.New("frame: truncated stream")
	ErrTrailer      = errors.New("frame: unreadable trailer")
	ErrClosed       = errors.New("frame: writer closed")
	ErrMiscorrected = errors.New("frame: checksum mismatch after correction")
)

// A Layout pairs a code with the block size of its frames.
type Layout struct {
	Code      *bch.Code
	CRC       crc.CRC
	BlockSize int
}

// NewLayout checks that a block and its checksum fit under one ecc. A
// blockSize of 0 selects the largest block that does.
func NewLayout(code *bch.Code, blockSize int) (Layout, error) {
	limit := code.MaxDataLen() - crc.Size
	if blockSize == 0 {
		blockSize = limit
	}
	if blockSize < 1 || blockSize > limit {
		return Layout{}, errors.Wrapf(ErrBlockSize, "%d not in [1,%d] for %s", blockSize, limit, code)
	}

	return Layout{Code: code, CRC: crc.CCITT, BlockSize: blockSize}, nil
}

// Size returns the length of a frame in bytes.
func (l Layout) Size() int {
	return l.BlockSize + crc.Size + l.Code.EccBytes()
}

func (l Layout) String() string {
	return fmt.Sprintf("{BlockSize:%d FrameSize:%d CRC:%s}", l.BlockSize, l.Size(), l.CRC.Name)
}

// seal writes the checksum and ecc of the block at the start of frame.
func (l Layout) seal(frame []byte) {
	bs := l.BlockSize
	binary.BigEndian.PutUint16(frame[bs:], l.CRC.Checksum(frame[:bs]))

	ecc := frame[bs+crc.Size:]
	clear(ecc)
	l.Code.Encode(frame[:bs+crc.Size], ecc)
}

// putPad stores pad big endian in the last bytes of block.
func putPad(block []byte, pad int) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(pad))

	k := min(len(tmp), len(block))
	clear(block)
	copy(block[len(block)-k:], tmp[len(tmp)-k:])
}

func getPad(block []byte) uint64 {
	var tmp [8]byte
	k := min(len(tmp), len(block))
	copy(tmp[len(tmp)-k:], block[len(block)-k:])
	return binary.BigEndian.Uint64(tmp[:])
}

// Status is the outcome of decoding one frame.
type Status int

const (
	OK Status = iota
	Corrected
	Uncorrectable
	Miscorrected
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Corrected:
		return "corrected"
	case Uncorrectable:
		return "uncorrectable"
	case Miscorrected:
		return "miscorrected"
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Failed reports whether the block of the frame could not be recovered.
func (s Status) Failed() bool {
	return s == Uncorrectable || s == Miscorrected
}

// Err returns the error describing a failed status, nil otherwise.
func (s Status) Err() error {
	switch s {
	case Uncorrectable:
		return bch.ErrUncorrectable
	case Miscorrected:
		return ErrMiscorrected
	}
	return nil
}

// A Report describes the decoding of one frame.
type Report struct {
	Frame     int      `xml:",attr"`
	Status    Status   `xml:",attr"`
	Errors    int      `xml:",attr"`
	Positions []uint32 `xml:"Position"`
}

func (r Report) String() string {
	return fmt.Sprintf("{Frame:%d Status:%s Errors:%d Positions:%v}", r.Frame, r.Status, r.Errors, r.Positions)
}

func (r Report) Header() []string {
	return []string{"frame", "status", "errors", "positions"}
}

func (r Report) Record() []string {
	pos := make([]string, len(r.Positions))
	for i, p := range r.Positions {
		pos[i] = strconv.FormatUint(uint64(p), 10)
	}

	return []string{
		strconv.Itoa(r.Frame),
		r.Status.String(),
		strconv.Itoa(r.Errors),
		strings.Join(pos, " "),
	}
}

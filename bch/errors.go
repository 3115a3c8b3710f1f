package bch

import "github.com/pkg/errors"

var (
	// Construction errors.
	ErrInvalidOrder           = errors.New("bch: invalid field order")
	ErrInvalidCapability      = errors.New("bch: invalid correction capability")
	ErrNonPrimitivePolynomial = errors.New("bch: non-primitive polynomial")

	// Decode errors.
	ErrInvalidArgument = errors.New("bch: invalid argument")

	// ErrUncorrectable is returned when the block holds more errors than the
	// code can correct. It does not distinguish a detected overflow from an
	// inconsistent locator; in both cases the block must be treated as lost.
	ErrUncorrectable = errors.New("bch: uncorrectable errors")
)

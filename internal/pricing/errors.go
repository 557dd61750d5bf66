package pricing

import "errors"

// Per-contract pricing errors. Callers exclude the contract and keep going.
var (
	// ErrUnpriceable is returned when no bid, last or ask price is usable.
	ErrUnpriceable = errors.New("no usable price source")

	// ErrInvalidStrike is returned for a non-positive strike.
	ErrInvalidStrike = errors.New("strike must be positive")

	// ErrInvalidSpot is returned for a non-positive underlying price.
	ErrInvalidSpot = errors.New("spot must be positive")

	// ErrInvalidOptionType is returned when the option type is neither put nor call.
	ErrInvalidOptionType = errors.New("invalid option type")
)

package domain

import "errors"

// The closed set of errors the core classification pipeline raises itself.
// Transport, authentication, and persistence failures belong to adapters
// and are defined in internal/ports; they never surface from here.
var (
	// ErrInvalidInstrument is returned for an unknown root symbol.
	ErrInvalidInstrument = errors.New("invalid instrument")

	// ErrInsufficientData is returned when a candle series has fewer bars
	// than a calculation requires after filtering.
	ErrInsufficientData = errors.New("insufficient candle history")

	// ErrInvalidCandle is returned when a Candle or CandleSeries violates
	// its structural invariants.
	ErrInvalidCandle = errors.New("invalid candle")
)

var errInvalidCandle = ErrInvalidCandle

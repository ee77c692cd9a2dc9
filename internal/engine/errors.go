package engine

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across the analysis pipeline. Callers branch with
// errors.Is; InsufficientData suppresses an opportunity for the current
// cycle, it never aborts a batch.
var (
	ErrNotFound         = errors.New("not found")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidState     = errors.New("invalid lifecycle state")
	ErrConfiguration    = errors.New("invalid configuration")
)

// ErrNoPriceData is the valuation-specific flavor of ErrInsufficientData:
// no usable observation inside the recency window.
var ErrNoPriceData = fmt.Errorf("%w: no recent price observation", ErrInsufficientData)

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

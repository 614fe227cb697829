package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBarcode is returned when the barcode query is missing or empty
	ErrInvalidBarcode = errors.New("barcode code is required")

	// ErrUpstreamFailure is returned when the lookup source cannot be reached
	// or answers with something other than a usable page
	ErrUpstreamFailure = errors.New("upstream lookup failed")

	// ErrUpstreamTimeout is returned when the lookup source does not answer in time
	ErrUpstreamTimeout = fmt.Errorf("%w: request timed out", ErrUpstreamFailure)

	// ErrUpstreamStatus is returned when the lookup source answers with a non-2xx status
	ErrUpstreamStatus = fmt.Errorf("%w: unexpected status", ErrUpstreamFailure)

	// ErrUpstreamDecode is returned when the upstream body cannot be read or decoded
	ErrUpstreamDecode = fmt.Errorf("%w: could not decode response", ErrUpstreamFailure)
)

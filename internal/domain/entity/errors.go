package entity

import "errors"

var (
	// ErrInvalidAddress is the only error the aggregation pipeline returns to callers.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrChainUnavailable marks a chain whose data could not be collected at all.
	ErrChainUnavailable = errors.New("chain unavailable")
	// ErrUnsupportedChain is returned by providers for chain ids with no configuration.
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrInvalidSimulation rejects an unknown simulation action or a bad amount.
	ErrInvalidSimulation = errors.New("invalid simulation request")
)

package domain

import "errors"

// Validation and contract errors. Messages are returned verbatim by the API,
// so they must tell the user what to change.
var (
	ErrInvalidStake      = errors.New("stake must be between $1 and $10,000")
	ErrLegCount          = errors.New("a parlay must have between 2 and 10 legs")
	ErrTooFewLegs        = errors.New("combination payout needs at least 2 legs")
	ErrInvalidOdds       = errors.New("invalid odds")
	ErrUnparseableMarket = errors.New("unparseable market identifier")
	ErrExcludedMarket    = errors.New("yes/no markets are not supported")
	ErrMissingUser       = errors.New("user id is required")
	ErrMissingMarket     = errors.New("each selection needs a market id")
)

// ErrInvalidSlip marks a settlement slip that cannot be keyed to stable wager ids.
var ErrInvalidSlip = errors.New("slip has no usable identifier")

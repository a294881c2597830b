package models

import "errors"

// ErrDataLoad is fatal at startup: the historical index cannot be built and
// the engine refuses to serve queries.
var ErrDataLoad = errors.New("historical dataset could not be loaded")

// ErrOfferNotFound signals that an explicitly requested offer has no
// history. Callers receive a degraded, clearly flagged prediction instead of
// a failure.
var ErrOfferNotFound = errors.New("offer has no historical data")

// ErrInvalidRank rejects a candidate rank outside the supported range before
// any computation runs.
var ErrInvalidRank = errors.New("candidate rank outside supported range")

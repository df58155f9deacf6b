// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

// Package ledgererr collects the sentinel error kinds shared across the
// ledger engine's packages, so a caller can test with errors.Is against
// one stable set of values regardless of which package raised them.
package ledgererr

import "errors"

var (
	// ErrInvalidParameter is returned when a constructor receives an
	// out-of-domain argument (e.g. a zero Bloom filter capacity).
	ErrInvalidParameter = errors.New("ledger: invalid parameter")

	// ErrConfigurationMismatch is returned when two Bloom filters (or
	// other configuration-carrying values) with different parameters
	// are combined.
	ErrConfigurationMismatch = errors.New("ledger: configuration mismatch")

	// ErrNotBuilt is returned when an operation requires a built index
	// that has no segments/entries yet.
	ErrNotBuilt = errors.New("ledger: index not built")

	// ErrOutOfOrder is returned when ingest-time points arrive out of
	// monotonic order.
	ErrOutOfOrder = errors.New("ledger: points out of order")

	// ErrUnknownAttribute is returned when an attribute name falls
	// outside the fixed {"id","address","value"} extraction set.
	ErrUnknownAttribute = errors.New("ledger: unknown attribute")

	// ErrBadRangeBound is returned when a numeric range bound string
	// fails to parse.
	ErrBadRangeBound = errors.New("ledger: bad range bound")

	// ErrMalformedQuery is returned when a QueryParam's attribute and
	// range lists have mismatched lengths.
	ErrMalformedQuery = errors.New("ledger: malformed query")

	// ErrNoObservations is returned when gradient descent is asked to
	// fit against an empty observed-cost slice.
	ErrNoObservations = errors.New("ledger: no observations")

	// ErrInvalidLearningRate is returned when a learning rate falls
	// outside (0, 1].
	ErrInvalidLearningRate = errors.New("ledger: invalid learning rate")

	// ErrBudgetTooSmall is returned when the bandit selector cannot
	// afford any arm at entry.
	ErrBudgetTooSmall = errors.New("ledger: storage budget too small")

	// ErrStorageUnavailable is returned when the underlying key-value
	// store is unreachable.
	ErrStorageUnavailable = errors.New("ledger: storage unavailable")

	// ErrCorruption is returned when a persisted record fails to
	// deserialize.
	ErrCorruption = errors.New("ledger: corrupted record")

	// ErrProofMalformed is returned when a BMT proof fails structural
	// or hash validation.
	ErrProofMalformed = errors.New("ledger: proof malformed")
)

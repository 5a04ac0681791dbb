package domain

import "errors"

var (
	// ErrNoEntries is returned when a food log contains no entries.
	ErrNoEntries = errors.New("no log entries found")

	// ErrFoodNotFound is returned when a logged food is absent from the
	// food database. Aggregation aborts; there are no partial reports.
	ErrFoodNotFound = errors.New("food not found in database")

	// ErrGoalsNotFound is returned when no goal table exists for the
	// requested life stage.
	ErrGoalsNotFound = errors.New("goals not found for life stage")

	// ErrSourceUnavailable is returned when an external food-data source
	// cannot be reached or rejects the request.
	ErrSourceUnavailable = errors.New("food data source unavailable")

	// ErrNotFound is returned by source lookups and object stores when a
	// key or barcode has no record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when a cache key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrTokenMalformed is returned when a share token does not split into
	// its three dot-separated fields.
	ErrTokenMalformed = errors.New("malformed share token")

	// ErrTokenInvalid is returned when a share token's signature does not
	// verify against the share secret.
	ErrTokenInvalid = errors.New("invalid share token signature")

	// ErrTokenExpired is returned when a well-signed share token is past
	// its expiry. Kept distinct from ErrTokenInvalid so callers can show
	// different messages.
	ErrTokenExpired = errors.New("share token expired")
)

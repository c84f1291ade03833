package models

import "errors"

// Error taxonomy for the tracking pipeline. Repositories translate driver
// errors into these at the boundary; handlers map them to HTTP statuses.
var (
	// ErrNotFound: unknown token, target or campaign. User-facing 404, no retry.
	ErrNotFound = errors.New("not found")

	// ErrConflict: duplicate (campaign, employee) pair on target creation.
	// Surfaced to the campaign-creation caller, never retried automatically.
	ErrConflict = errors.New("already exists")

	// ErrExternalService: content suggester timeout or unusable response.
	// Always recovered locally via the fallback selection path.
	ErrExternalService = errors.New("external service error")
)

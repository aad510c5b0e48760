package contracts

import "errors"

// Shared error sentinels classified by the route boundary and the scheduler.
// Component packages wrap these with context; callers test with errors.Is.
var (
	// ErrNotFound — lookup missed (unknown order id, unknown decision, ...)
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized — manual trigger without the shared secret
	ErrUnauthorized = errors.New("unauthorized")
)

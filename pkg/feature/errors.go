package feature

import "errors"

var (
	// ErrFlagNotFound indicates the tenant's feature set has no such feature.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrInvalidFlags indicates the tenant's feature document is malformed.
	ErrInvalidFlags = errors.New("invalid feature flags document")

	// ErrFlagNotConfigurable indicates a plain boolean flag has no settings
	// object to decode.
	ErrFlagNotConfigurable = errors.New("feature flag has no settings")
)

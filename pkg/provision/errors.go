package provision

import "errors"

var (
	// ErrProvisioningFailed wraps the root cause of an onboarding step that
	// permanently exhausted its retries.
	ErrProvisioningFailed = errors.New("tenant provisioning failed")

	// ErrCompensationFailed marks a failed cleanup. It is logged, never
	// returned to the caller: the original provisioning error always wins.
	ErrCompensationFailed = errors.New("tenant provisioning cleanup failed")

	// ErrInvalidTenantRecord is returned when the submitted record is
	// missing the fields provisioning depends on.
	ErrInvalidTenantRecord = errors.New("invalid tenant record")

	// ErrSeedingFailed wraps tenant database seeding errors.
	ErrSeedingFailed = errors.New("failed to seed tenant database")

	// ErrFeatureInitFailed wraps feature configuration initialization errors.
	ErrFeatureInitFailed = errors.New("failed to initialize tenant feature configuration")
)

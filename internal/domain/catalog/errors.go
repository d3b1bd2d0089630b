package catalog

import "errors"

var (
	ErrInvalidScope           = errors.New("invalid entity scope")
	ErrInvalidFrequency       = errors.New("schedule frequency too short")
	ErrInvalidStartTime       = errors.New("invalid schedule start time")
	ErrMissingExternalID      = errors.New("missing external id")
	ErrMissingVehicleIdentity = errors.New("vehicle record missing brand or model")
	ErrMissingDescription     = errors.New("part record missing description")
	ErrInvalidPrice           = errors.New("invalid price")
	ErrJobNotFound            = errors.New("import job not found")
	ErrImportOverlap          = errors.New("an import for this scope is already active")
	ErrJobConflict            = errors.New("job status does not allow this action")
	ErrScheduleNotFound       = errors.New("import schedule not found")

	// ErrSupplierUnauthorized marks bad supplier credentials. Never
	// retried; the job fails immediately.
	ErrSupplierUnauthorized = errors.New("supplier rejected credentials")
	// ErrSupplierUnavailable marks transient transport or server failures
	// worth a bounded retry.
	ErrSupplierUnavailable = errors.New("supplier temporarily unavailable")
)

package catalog

import "errors"

var (
	ErrInvalidImportType = errors.New("invalid import type")
	ErrInvalidFromDate   = errors.New("invalid from date")
	ErrInvalidSchedule   = errors.New("invalid schedule configuration")
)

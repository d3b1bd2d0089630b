package catalog

import "time"

// SyncCursor is the per-entity-type high-water mark. It is advanced only by
// the page-commit step and never moves backwards.
type SyncCursor struct {
	EntityType       EntityType
	LastSyncDate     time.Time
	LastExternalID   int64
	RecordsProcessed int64
	Active           bool
	UpdatedAt        time.Time
}

// Advance returns the cursor moved forward by one committed page. Regressing
// values are clamped to the current position.
func (c SyncCursor) Advance(lastExternalID int64, syncDate time.Time, processed int64) SyncCursor {
	next := c
	if lastExternalID > next.LastExternalID {
		next.LastExternalID = lastExternalID
	}
	if syncDate.After(next.LastSyncDate) {
		next.LastSyncDate = syncDate
	}
	next.RecordsProcessed += processed
	return next
}

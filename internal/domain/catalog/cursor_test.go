package catalog_test

import (
	"testing"
	"time"

	catalog "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

func TestCursorAdvance(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cursor := catalog.SyncCursor{
		EntityType:       catalog.EntityVehicles,
		LastExternalID:   500,
		LastSyncDate:     base,
		RecordsProcessed: 500,
	}

	next := cursor.Advance(550, base.Add(time.Hour), 50)
	if next.LastExternalID != 550 {
		t.Fatalf("expected last external id 550, got %d", next.LastExternalID)
	}
	if !next.LastSyncDate.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected sync date to advance, got %v", next.LastSyncDate)
	}
	if next.RecordsProcessed != 550 {
		t.Fatalf("expected 550 records processed, got %d", next.RecordsProcessed)
	}
}

func TestCursorAdvanceNeverRegresses(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cursor := catalog.SyncCursor{
		LastExternalID: 500,
		LastSyncDate:   base,
	}

	// A full re-run replays ids and dates below the watermark. The clamp
	// keeps the high-water mark in place while still counting the work.
	next := cursor.Advance(100, base.Add(-time.Hour), 100)
	if next.LastExternalID != 500 {
		t.Fatalf("expected clamped external id 500, got %d", next.LastExternalID)
	}
	if !next.LastSyncDate.Equal(base) {
		t.Fatalf("expected clamped sync date %v, got %v", base, next.LastSyncDate)
	}
	if next.RecordsProcessed != 100 {
		t.Fatalf("expected 100 records processed, got %d", next.RecordsProcessed)
	}
}

func TestCursorAdvanceDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	cursor := catalog.SyncCursor{LastExternalID: 10}
	_ = cursor.Advance(20, time.Now(), 5)

	if cursor.LastExternalID != 10 || cursor.RecordsProcessed != 0 {
		t.Fatalf("expected receiver unchanged, got %+v", cursor)
	}
}

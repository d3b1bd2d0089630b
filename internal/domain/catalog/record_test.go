package catalog_test

import (
	"errors"
	"testing"

	catalog "github.com/desguapro/catalog-sync/internal/domain/catalog"
)

func TestRecordValidate(t *testing.T) {
	t.Parallel()

	vehicle := catalog.SupplierRecord{
		ExternalID: 501,
		Brand:      "Seat",
		Model:      "Ibiza",
		Price:      1200,
	}
	if err := vehicle.Validate(catalog.EntityVehicles); err != nil {
		t.Fatalf("expected valid vehicle, got %v", err)
	}

	vehicle.Model = "  "
	if err := vehicle.Validate(catalog.EntityVehicles); !errors.Is(err, catalog.ErrMissingVehicleIdentity) {
		t.Fatalf("expected ErrMissingVehicleIdentity, got %v", err)
	}

	part := catalog.SupplierRecord{ExternalID: 77, Description: "alternator", Price: 50}
	if err := part.Validate(catalog.EntityParts); err != nil {
		t.Fatalf("expected valid part, got %v", err)
	}

	part.Description = ""
	if err := part.Validate(catalog.EntityParts); !errors.Is(err, catalog.ErrMissingDescription) {
		t.Fatalf("expected ErrMissingDescription, got %v", err)
	}

	part.Description = "alternator"
	part.Price = -1
	if err := part.Validate(catalog.EntityParts); !errors.Is(err, catalog.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}

	part.Price = 50
	part.ExternalID = 0
	if err := part.Validate(catalog.EntityParts); !errors.Is(err, catalog.ErrMissingExternalID) {
		t.Fatalf("expected ErrMissingExternalID, got %v", err)
	}
}

func TestRecordContentHash(t *testing.T) {
	t.Parallel()

	record := catalog.SupplierRecord{
		ExternalID:  501,
		Brand:       "Seat",
		Model:       "Ibiza",
		Year:        2014,
		Price:       1200,
		Images:      []string{"a.jpg", "b.jpg"},
		Description: "front door",
	}

	same := record
	if record.ContentHash() != same.ContentHash() {
		t.Fatal("expected identical records to hash the same")
	}

	changed := record
	changed.Price = 1250
	if record.ContentHash() == changed.ContentHash() {
		t.Fatal("expected a price change to alter the hash")
	}

	fewerImages := record
	fewerImages.Images = []string{"a.jpg"}
	if record.ContentHash() == fewerImages.ContentHash() {
		t.Fatal("expected an image change to alter the hash")
	}
}

func TestRecordLabel(t *testing.T) {
	t.Parallel()

	part := catalog.SupplierRecord{ExternalID: 77, Description: "alternator"}
	if got := part.Label(); got != "77 alternator" {
		t.Fatalf("unexpected part label: %q", got)
	}

	vehicle := catalog.SupplierRecord{ExternalID: 501, Brand: "Seat", Model: "Ibiza"}
	if got := vehicle.Label(); got != "501 Seat Ibiza" {
		t.Fatalf("unexpected vehicle label: %q", got)
	}
}

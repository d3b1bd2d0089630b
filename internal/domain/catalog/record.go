package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SupplierRecord is one normalized row from the supplier changes feed.
// Vehicles and parts share the shape; Validate applies the per-type rules.
type SupplierRecord struct {
	ExternalID  int64
	CompanyID   int64
	Brand       string
	Model       string
	Version     string
	Year        int
	Description string
	Price       float64
	Images      []string
	UpdatedAt   time.Time
}

func (r SupplierRecord) Validate(entityType EntityType) error {
	if r.ExternalID <= 0 {
		return ErrMissingExternalID
	}
	switch entityType {
	case EntityVehicles:
		if strings.TrimSpace(r.Brand) == "" || strings.TrimSpace(r.Model) == "" {
			return ErrMissingVehicleIdentity
		}
	case EntityParts:
		if strings.TrimSpace(r.Description) == "" {
			return ErrMissingDescription
		}
	}
	if r.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// ContentHash fingerprints the fields the reconciler owns, so unchanged
// supplier rows can be skipped without a field-by-field comparison.
func (r SupplierRecord) ContentHash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s|%d|%s|%.2f|%s",
		r.ExternalID, r.Brand, r.Model, r.Version, r.Year, r.Description, r.Price,
		strings.Join(r.Images, ","))))
	return hex.EncodeToString(sum[:])
}

func (r SupplierRecord) Label() string {
	if r.Description != "" {
		return fmt.Sprintf("%d %s", r.ExternalID, r.Description)
	}
	return strings.TrimSpace(fmt.Sprintf("%d %s %s", r.ExternalID, r.Brand, r.Model))
}

// ReconcileResult counts what one page did to the local catalog. Unchanged
// rows count toward processed items only.
type ReconcileResult struct {
	New       int64
	Updated   int64
	Unchanged int64
}

// Page is one bounded batch from the supplier changes feed.
type Page struct {
	Records []SupplierRecord
	LastID  int64
	Total   int64
	HasMore bool
}

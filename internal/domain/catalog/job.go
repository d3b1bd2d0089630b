package catalog

import "time"

type EntityType string

const (
	EntityVehicles EntityType = "vehicles"
	EntityParts    EntityType = "parts"
)

type Scope string

const (
	ScopeVehicles Scope = "vehicles"
	ScopeParts    Scope = "parts"
	ScopeAll      Scope = "all"
)

func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case ScopeVehicles, ScopeParts, ScopeAll:
		return Scope(raw), nil
	}
	return "", ErrInvalidScope
}

// Types resolves a scope into the entity types it covers, in processing order.
func (s Scope) Types() []EntityType {
	switch s {
	case ScopeVehicles:
		return []EntityType{EntityVehicles}
	case ScopeParts:
		return []EntityType{EntityParts}
	case ScopeAll:
		return []EntityType{EntityVehicles, EntityParts}
	}
	return nil
}

// Overlaps reports whether two scopes touch a common entity type.
func (s Scope) Overlaps(other Scope) bool {
	if s == ScopeAll || other == ScopeAll {
		return true
	}
	return s == other
}

type Mode string

const (
	ModeIncremental Mode = "incremental"
	ModeFull        Mode = "full"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusPartial   Status = "partial"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed, StatusPartial:
		return true
	}
	return false
}

// CanTransition encodes the job lifecycle. A paused job resumes by being
// re-armed to pending so a runner can claim it again.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCancelled
	case StatusRunning:
		switch to {
		case StatusPaused, StatusCompleted, StatusCancelled, StatusFailed, StatusPartial:
			return true
		}
		return false
	case StatusPaused:
		return to == StatusPending || to == StatusCancelled
	}
	return false
}

// TransitionSources lists the statuses an operator command may move to the
// given target, derived from CanTransition so command guards cannot drift
// from the state machine.
func TransitionSources(to Status) []Status {
	sources := make([]Status, 0, 3)
	for _, from := range []Status{StatusPending, StatusRunning, StatusPaused} {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

type JobError struct {
	ExternalID int64  `json:"external_id"`
	Message    string `json:"message"`
}

type SubProgress struct {
	ProcessedItems   int64      `json:"processed_items"`
	NewItems         int64      `json:"new_items"`
	UpdatedItems     int64      `json:"updated_items"`
	DeactivatedItems int64      `json:"deactivated_items"`
	LastExternalID   int64      `json:"last_external_id"`
	LastSyncDate     *time.Time `json:"last_sync_date,omitempty"`
	Completed        bool       `json:"completed"`
}

// JobDetails carries per-entity-type sub-progress, including the cursor
// position committed by the last page so a resumed job continues in place.
type JobDetails struct {
	Vehicles *SubProgress `json:"vehicles,omitempty"`
	Parts    *SubProgress `json:"parts,omitempty"`
}

func (d *JobDetails) For(entityType EntityType) *SubProgress {
	switch entityType {
	case EntityVehicles:
		if d.Vehicles == nil {
			d.Vehicles = &SubProgress{}
		}
		return d.Vehicles
	case EntityParts:
		if d.Parts == nil {
			d.Parts = &SubProgress{}
		}
		return d.Parts
	}
	return &SubProgress{}
}

type ImportJob struct {
	ID               string
	Scope            Scope
	Mode             Mode
	Status           Status
	FromDate         *time.Time
	TotalItems       int64
	ProcessedItems   int64
	NewItems         int64
	UpdatedItems     int64
	DeactivatedItems int64
	CurrentItem      string
	Errors           []JobError
	ErrorCount       int64
	Details          JobDetails
	StartedAt        *time.Time
	EndedAt          *time.Time
	HeartbeatAt      *time.Time
	CreatedAt        time.Time
}

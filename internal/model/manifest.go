package model

import (
	"fmt"
	"time"

	"cargo-inventory-backend/internal/errs"
)

// ManifestStatus is the lifecycle state of a manifest entry.
type ManifestStatus string

const (
	ManifestPending   ManifestStatus = "PENDING"
	ManifestLoaded    ManifestStatus = "LOADED"
	ManifestInTransit ManifestStatus = "IN_TRANSIT"
	ManifestUnloaded  ManifestStatus = "UNLOADED"
)

// ActiveStatuses are the states in which cargo is physically aboard.
var ActiveStatuses = []ManifestStatus{ManifestLoaded, ManifestInTransit}

// IsActive reports whether the cargo is currently aboard.
func (s ManifestStatus) IsActive() bool {
	return s == ManifestLoaded || s == ManifestInTransit
}

// IsTerminal reports whether no further transition is possible.
func (s ManifestStatus) IsTerminal() bool {
	return s == ManifestUnloaded
}

// CanTransitionTo reports whether s -> next is a legal forward move.
func (s ManifestStatus) CanTransitionTo(next ManifestStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case ManifestPending:
		return next == ManifestLoaded
	case ManifestLoaded:
		return next == ManifestInTransit || next == ManifestUnloaded
	case ManifestInTransit:
		return next == ManifestUnloaded
	}
	return false
}

// ParseManifestStatus validates a raw status value.
func ParseManifestStatus(v string) (ManifestStatus, error) {
	switch s := ManifestStatus(v); s {
	case ManifestPending, ManifestLoaded, ManifestInTransit, ManifestUnloaded:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown manifest status %q", errs.ErrInvalidValue, v)
}

// ManifestPriority orders manifest entries; CRITICAL is highest.
type ManifestPriority string

const (
	PriorityLow      ManifestPriority = "LOW"
	PriorityNormal   ManifestPriority = "NORMAL"
	PriorityHigh     ManifestPriority = "HIGH"
	PriorityCritical ManifestPriority = "CRITICAL"
)

// Rank returns the sort weight of the priority. Unknown values rank lowest.
func (p ManifestPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityNormal:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	}
	return 0
}

// ParsePriority validates a raw priority. An empty value means NORMAL.
func ParsePriority(v string) (ManifestPriority, error) {
	if v == "" {
		return PriorityNormal, nil
	}
	p := ManifestPriority(v)
	if p.Rank() == 0 {
		return "", fmt.Errorf("%w: unknown manifest priority %q", errs.ErrInvalidValue, v)
	}
	return p, nil
}

// CargoManifest is cargo assigned to a spacecraft, staged from a storage unit.
type CargoManifest struct {
	ID               int64     `gorm:"primaryKey"`
	SpacecraftID     int64     `gorm:"not null;index:idx_manifest_spacecraft_status"`
	CargoID          int64     `gorm:"not null;index"`
	StorageUnitID    int64     `gorm:"not null"`
	Quantity         int       `gorm:"not null;check:quantity > 0"`
	LoadedAt         time.Time `gorm:"not null"`
	UnloadedAt       *time.Time
	LoadedByUserID   int64 `gorm:"not null"`
	UnloadedByUserID *int64
	ManifestStatus   ManifestStatus   `gorm:"size:16;not null;index:idx_manifest_spacecraft_status"`
	Priority         ManifestPriority `gorm:"size:16;not null"`
}

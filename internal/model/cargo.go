package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cargo is a catalogue entry for one cargo type. Mass and volume are per unit.
type Cargo struct {
	ID            int64           `gorm:"primaryKey"`
	Name          string          `gorm:"size:128;not null"`
	CargoType     string          `gorm:"size:32"`
	MassPerUnit   decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	VolumePerUnit decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	HazardLevel   string          `gorm:"size:16"`
	CreatedAt     time.Time
}

// StorageUnit is a ground container. CurrentMass and CurrentVolume are
// materialized totals, refreshed by an explicit recompute.
type StorageUnit struct {
	ID                  int64           `gorm:"primaryKey"`
	UnitCode            string          `gorm:"size:32;uniqueIndex;not null"`
	Location            string          `gorm:"size:128;not null"`
	StorageType         string          `gorm:"size:32"`
	TotalMassCapacity   decimal.Decimal `gorm:"type:numeric(14,3);not null"`
	TotalVolumeCapacity decimal.Decimal `gorm:"type:numeric(14,3);not null"`
	CurrentMass         decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0"`
	CurrentVolume       decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0"`
	UpdatedAt           time.Time
}

// Spacecraft holds the capacity attributes read by the capacity ledger.
type Spacecraft struct {
	ID             int64           `gorm:"primaryKey"`
	RegistryCode   string          `gorm:"size:32;uniqueIndex;not null"`
	Name           string          `gorm:"size:128;not null"`
	MassCapacity   decimal.Decimal `gorm:"type:numeric(14,3);not null"`
	VolumeCapacity decimal.Decimal `gorm:"type:numeric(14,3);not null"`
}

// User is the minimal view of an operator needed for attribution.
type User struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"size:64;uniqueIndex;not null"`
	FirstName string `gorm:"size:64"`
	LastName  string `gorm:"size:64"`
}

// DisplayName returns "<first> <last>", falling back to the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

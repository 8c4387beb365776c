package model

import "time"

// CargoStorage is the quantity of one cargo type held in one storage unit.
// There is at most one row per (StorageUnitID, CargoID).
type CargoStorage struct {
	ID                  int64     `gorm:"primaryKey"`
	StorageUnitID       int64     `gorm:"not null;uniqueIndex:idx_cargo_storage_unit_cargo"`
	CargoID             int64     `gorm:"not null;uniqueIndex:idx_cargo_storage_unit_cargo;index"`
	Quantity            int       `gorm:"not null;check:quantity >= 0"`
	StoredAt            time.Time `gorm:"not null"`
	LastInventoryCheck  *time.Time
	LastCheckedByUserID *int64
}

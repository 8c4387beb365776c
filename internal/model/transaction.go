package model

import "time"

// TransactionType classifies an inventory movement.
type TransactionType string

const (
	TransactionLoad       TransactionType = "LOAD"
	TransactionUnload     TransactionType = "UNLOAD"
	TransactionTransfer   TransactionType = "TRANSFER"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

// InventoryTransaction is an append-only audit row. Rows are never updated.
type InventoryTransaction struct {
	ID                int64           `gorm:"primaryKey"`
	TransactionType   TransactionType `gorm:"size:16;not null"`
	CargoID           int64           `gorm:"not null;index"`
	Quantity          int             `gorm:"not null"`
	FromStorageUnitID *int64          `gorm:"index"`
	ToStorageUnitID   *int64          `gorm:"index"`
	FromSpacecraftID  *int64          `gorm:"index"`
	ToSpacecraftID    *int64          `gorm:"index"`
	PerformedByUserID *int64
	TransactionDate   time.Time `gorm:"not null;index"`
	ReasonCode        string    `gorm:"size:64"`
	ReferenceNumber   string    `gorm:"size:64"`
	Notes             string    `gorm:"type:text"`
}

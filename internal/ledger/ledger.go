// Package ledger is the append-only log of inventory movements. Recording a
// movement never touches the quantity rows it describes.
package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cargo-inventory-backend/internal/errs"
	"cargo-inventory-backend/internal/model"
)

// Endpoints names where a movement starts and ends. Each side holds at most
// one location: a storage unit or a spacecraft.
type Endpoints struct {
	FromStorageUnitID *int64
	FromSpacecraftID  *int64
	ToStorageUnitID   *int64
	ToSpacecraftID    *int64
}

// Transfer is a request to record a TRANSFER movement.
type Transfer struct {
	CargoID           int64
	Quantity          int
	Endpoints         Endpoints
	PerformedByUserID int64
	ReasonCode        string
	ReferenceNumber   string
	Notes             string
}

// Validate requires exactly one source and exactly one destination, and
// rejects moving cargo onto the location it came from.
func (e Endpoints) Validate() error {
	switch {
	case e.FromStorageUnitID == nil && e.FromSpacecraftID == nil:
		return errs.Endpoints("a source storage unit or spacecraft is required")
	case e.FromStorageUnitID != nil && e.FromSpacecraftID != nil:
		return errs.Endpoints("only one source location may be given")
	case e.ToStorageUnitID == nil && e.ToSpacecraftID == nil:
		return errs.Endpoints("a destination storage unit or spacecraft is required")
	case e.ToStorageUnitID != nil && e.ToSpacecraftID != nil:
		return errs.Endpoints("only one destination location may be given")
	case sameID(e.FromStorageUnitID, e.ToStorageUnitID), sameID(e.FromSpacecraftID, e.ToSpacecraftID):
		return errs.Endpoints("source and destination are the same location")
	}
	return nil
}

func sameID(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

// Ledger defines the append and query operations on the transaction log.
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger

	Append(ctx context.Context, txns ...*model.InventoryTransaction) error
	RecordTransfer(ctx context.Context, t Transfer) (*model.InventoryTransaction, error)

	History(ctx context.Context, cargoID int64) ([]model.InventoryTransaction, error)
	ByStorageUnit(ctx context.Context, storageUnitID int64) ([]model.InventoryTransaction, error)
	BySpacecraft(ctx context.Context, spacecraftID int64) ([]model.InventoryTransaction, error)
	NetQuantity(ctx context.Context, cargoID, storageUnitID int64) (int64, error)
}

type gormLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormLedger creates a new GORM-backed ledger.
func NewGormLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (l *gormLedger) WithTx(tx *gorm.DB) Ledger {
	return &gormLedger{db: tx, now: l.now}
}

func checkRow(t *model.InventoryTransaction) error {
	e := Endpoints{
		FromStorageUnitID: t.FromStorageUnitID,
		FromSpacecraftID:  t.FromSpacecraftID,
		ToStorageUnitID:   t.ToStorageUnitID,
		ToSpacecraftID:    t.ToSpacecraftID,
	}

	switch t.TransactionType {
	case model.TransactionTransfer:
		if t.Quantity <= 0 {
			return &errs.QuantityError{Quantity: t.Quantity, Reason: "must be greater than zero"}
		}
		return e.Validate()
	case model.TransactionLoad, model.TransactionUnload:
		if t.Quantity <= 0 {
			return &errs.QuantityError{Quantity: t.Quantity, Reason: "must be greater than zero"}
		}
		if e.ToStorageUnitID == nil && e.ToSpacecraftID == nil {
			return errs.Endpoints(string(t.TransactionType) + " requires a destination")
		}
	case model.TransactionAdjustment:
		if t.Quantity < 0 {
			return &errs.QuantityError{Quantity: t.Quantity, Reason: "must not be negative"}
		}
		if e.ToStorageUnitID == nil && e.FromStorageUnitID == nil {
			return errs.Endpoints("ADJUSTMENT requires a storage unit")
		}
	default:
		return fmt.Errorf("unknown transaction type %q", t.TransactionType)
	}
	return nil
}

// Append validates and inserts audit rows. Rows without a date are stamped now.
func (l *gormLedger) Append(ctx context.Context, txns ...*model.InventoryTransaction) error {
	if len(txns) == 0 {
		return nil
	}
	now := l.now()
	for _, t := range txns {
		if err := checkRow(t); err != nil {
			return err
		}
		if t.TransactionDate.IsZero() {
			t.TransactionDate = now
		}
	}
	if err := l.db.WithContext(ctx).Create(txns).Error; err != nil {
		return fmt.Errorf("failed to append %d inventory transaction(s): %w", len(txns), err)
	}
	return nil
}

// RecordTransfer writes one TRANSFER row.
func (l *gormLedger) RecordTransfer(ctx context.Context, t Transfer) (*model.InventoryTransaction, error) {
	performer := t.PerformedByUserID
	row := &model.InventoryTransaction{
		TransactionType:   model.TransactionTransfer,
		CargoID:           t.CargoID,
		Quantity:          t.Quantity,
		FromStorageUnitID: t.Endpoints.FromStorageUnitID,
		FromSpacecraftID:  t.Endpoints.FromSpacecraftID,
		ToStorageUnitID:   t.Endpoints.ToStorageUnitID,
		ToSpacecraftID:    t.Endpoints.ToSpacecraftID,
		PerformedByUserID: &performer,
		ReasonCode:        t.ReasonCode,
		ReferenceNumber:   t.ReferenceNumber,
		Notes:             t.Notes,
	}
	if err := l.Append(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (l *gormLedger) list(ctx context.Context, query string, args ...any) ([]model.InventoryTransaction, error) {
	var txns []model.InventoryTransaction
	err := l.db.WithContext(ctx).
		Where(query, args...).
		Order("transaction_date DESC").
		Order("id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory transactions: %w", err)
	}
	return txns, nil
}

// History returns every movement of the cargo, newest first.
func (l *gormLedger) History(ctx context.Context, cargoID int64) ([]model.InventoryTransaction, error) {
	return l.list(ctx, "cargo_id = ?", cargoID)
}

// ByStorageUnit returns movements into or out of the unit, newest first.
func (l *gormLedger) ByStorageUnit(ctx context.Context, storageUnitID int64) ([]model.InventoryTransaction, error) {
	return l.list(ctx, "from_storage_unit_id = ? OR to_storage_unit_id = ?", storageUnitID, storageUnitID)
}

// BySpacecraft returns movements onto or off the spacecraft, newest first.
func (l *gormLedger) BySpacecraft(ctx context.Context, spacecraftID int64) ([]model.InventoryTransaction, error) {
	return l.list(ctx, "from_spacecraft_id = ? OR to_spacecraft_id = ?", spacecraftID, spacecraftID)
}

// NetQuantity derives how much of the cargo the ledger says is in the unit:
// everything moved in minus everything moved out. Cargo loaded aboard a
// spacecraft counts as moved out until it is unloaded back.
func (l *gormLedger) NetQuantity(ctx context.Context, cargoID, storageUnitID int64) (int64, error) {
	var net int64
	err := l.db.WithContext(ctx).Model(&model.InventoryTransaction{}).
		Select("COALESCE(SUM(CASE WHEN to_storage_unit_id = ? THEN quantity ELSE 0 END), 0) - "+
			"COALESCE(SUM(CASE WHEN from_storage_unit_id = ? THEN quantity ELSE 0 END), 0)", storageUnitID, storageUnitID).
		Where("cargo_id = ?", cargoID).
		Scan(&net).Error
	if err != nil {
		return 0, fmt.Errorf("failed to derive net quantity for cargo %d in unit %d: %w", cargoID, storageUnitID, err)
	}
	return net, nil
}

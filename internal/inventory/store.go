// Package inventory owns the per-(storage unit, cargo) quantity rows.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cargo-inventory-backend/internal/capacity"
	"cargo-inventory-backend/internal/errs"
	"cargo-inventory-backend/internal/model"
)

// Store defines the operations on cargo storage entries.
type Store interface {
	// WithTx returns a Store bound to an open transaction.
	WithTx(tx *gorm.DB) Store

	AddToStorage(ctx context.Context, storageUnitID, cargoID int64, quantity int) (*model.CargoStorage, error)
	CorrectQuantity(ctx context.Context, entryID int64, newQuantity int, actor *int64) (*Correction, error)
	Get(ctx context.Context, entryID int64) (*model.CargoStorage, error)
	TotalQuantityForCargo(ctx context.Context, cargoID int64) (int64, error)
	TotalQuantityForStorageUnit(ctx context.Context, storageUnitID int64) (int64, error)
	ListByStorageUnit(ctx context.Context, storageUnitID int64) ([]model.CargoStorage, error)
	RequiringInventoryCheck(ctx context.Context, before time.Time) ([]model.CargoStorage, error)
	UsageLines(ctx context.Context, storageUnitID int64) ([]capacity.Line, error)
	RecomputeStorageUnit(ctx context.Context, storageUnitID int64) (*model.StorageUnit, error)
}

// Correction is the outcome of an inventory check.
type Correction struct {
	Entry    model.CargoStorage
	Previous int
}

// Delta is the signed change applied by the correction.
func (c Correction) Delta() int {
	return c.Entry.Quantity - c.Previous
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed inventory store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func (s *gormStore) WithTx(tx *gorm.DB) Store {
	return &gormStore{db: tx, now: s.now}
}

// AddToStorage merges quantity into the entry for the pair, creating it on
// first use. Insert and increment are one upsert keyed by the pair's unique
// index, so concurrent first adds cannot collide.
func (s *gormStore) AddToStorage(ctx context.Context, storageUnitID, cargoID int64, quantity int) (*model.CargoStorage, error) {
	if quantity <= 0 {
		return nil, &errs.QuantityError{Quantity: quantity, Reason: "must be greater than zero"}
	}

	db := s.db.WithContext(ctx)

	incoming := model.CargoStorage{
		StorageUnitID: storageUnitID,
		CargoID:       cargoID,
		Quantity:      quantity,
		StoredAt:      s.now(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "storage_unit_id"}, {Name: "cargo_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity": gorm.Expr("cargo_storages.quantity + excluded.quantity"),
		}),
	}).Create(&incoming).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store cargo %d in unit %d: %w", cargoID, storageUnitID, err)
	}

	// The id reported by an upsert differs between drivers; read back by pair.
	var entry model.CargoStorage
	if err := db.Where("storage_unit_id = ? AND cargo_id = ?", storageUnitID, cargoID).Take(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to reload cargo storage for unit %d cargo %d: %w", storageUnitID, cargoID, err)
	}
	return &entry, nil
}

// CorrectQuantity overwrites the quantity of an entry and stamps the check.
func (s *gormStore) CorrectQuantity(ctx context.Context, entryID int64, newQuantity int, actor *int64) (*Correction, error) {
	if newQuantity < 0 {
		return nil, &errs.QuantityError{Quantity: newQuantity, Reason: "must not be negative"}
	}

	db := s.db.WithContext(ctx)

	var entry model.CargoStorage
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(errs.KindCargoStorage, entryID)
		}
		return nil, fmt.Errorf("failed to lock cargo storage %d: %w", entryID, err)
	}

	previous := entry.Quantity
	checkedAt := s.now()
	updates := map[string]any{
		"quantity":             newQuantity,
		"last_inventory_check": checkedAt,
	}
	if actor != nil {
		updates["last_checked_by_user_id"] = *actor
	}
	if err := db.Model(&entry).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to correct cargo storage %d: %w", entryID, err)
	}

	entry.Quantity = newQuantity
	entry.LastInventoryCheck = &checkedAt
	if actor != nil {
		entry.LastCheckedByUserID = actor
	}
	return &Correction{Entry: entry, Previous: previous}, nil
}

// Get fetches a single storage entry.
func (s *gormStore) Get(ctx context.Context, entryID int64) (*model.CargoStorage, error) {
	var entry model.CargoStorage
	if err := s.db.WithContext(ctx).Take(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(errs.KindCargoStorage, entryID)
		}
		return nil, fmt.Errorf("failed to fetch cargo storage %d: %w", entryID, err)
	}
	return &entry, nil
}

// TotalQuantityForCargo sums the cargo across every storage unit.
func (s *gormStore) TotalQuantityForCargo(ctx context.Context, cargoID int64) (int64, error) {
	return s.sumQuantity(ctx, "cargo_id = ?", cargoID)
}

// TotalQuantityForStorageUnit sums every cargo type held in one unit.
func (s *gormStore) TotalQuantityForStorageUnit(ctx context.Context, storageUnitID int64) (int64, error) {
	return s.sumQuantity(ctx, "storage_unit_id = ?", storageUnitID)
}

func (s *gormStore) sumQuantity(ctx context.Context, where string, id int64) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.CargoStorage{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where(where, id).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum cargo storage quantity: %w", err)
	}
	return total, nil
}

// ListByStorageUnit returns the unit's entries, most recently stored first.
func (s *gormStore) ListByStorageUnit(ctx context.Context, storageUnitID int64) ([]model.CargoStorage, error) {
	var entries []model.CargoStorage
	err := s.db.WithContext(ctx).
		Where("storage_unit_id = ?", storageUnitID).
		Order("stored_at DESC").Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cargo storage for unit %d: %w", storageUnitID, err)
	}
	return entries, nil
}

// RequiringInventoryCheck returns entries never checked or last checked
// before the cutoff. Never-checked entries come first, then oldest checks.
func (s *gormStore) RequiringInventoryCheck(ctx context.Context, before time.Time) ([]model.CargoStorage, error) {
	var entries []model.CargoStorage
	err := s.db.WithContext(ctx).
		Where("last_inventory_check IS NULL OR last_inventory_check < ?", before).
		Order("CASE WHEN last_inventory_check IS NULL THEN 0 ELSE 1 END").
		Order("last_inventory_check ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries requiring inventory check: %w", err)
	}
	return entries, nil
}

// UsageLines joins the unit's entries with cargo unit mass and volume.
func (s *gormStore) UsageLines(ctx context.Context, storageUnitID int64) ([]capacity.Line, error) {
	var lines []capacity.Line
	err := s.db.WithContext(ctx).
		Table("cargo_storages").
		Select("cargo_storages.quantity, cargos.mass_per_unit, cargos.volume_per_unit").
		Joins("JOIN cargos ON cargos.id = cargo_storages.cargo_id").
		Where("cargo_storages.storage_unit_id = ?", storageUnitID).
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load usage lines for unit %d: %w", storageUnitID, err)
	}
	return lines, nil
}

// RecomputeStorageUnit writes the unit's current mass and volume from its
// storage entries and returns the refreshed unit.
func (s *gormStore) RecomputeStorageUnit(ctx context.Context, storageUnitID int64) (*model.StorageUnit, error) {
	db := s.db.WithContext(ctx)

	var unit model.StorageUnit
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&unit, storageUnitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(errs.KindStorageUnit, storageUnitID)
		}
		return nil, fmt.Errorf("failed to lock storage unit %d: %w", storageUnitID, err)
	}

	lines, err := s.UsageLines(ctx, storageUnitID)
	if err != nil {
		return nil, err
	}
	used := capacity.Sum(lines...)

	err = db.Model(&unit).Updates(map[string]any{
		"current_mass":   used.Mass,
		"current_volume": used.Volume,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update usage for storage unit %d: %w", storageUnitID, err)
	}
	unit.CurrentMass = used.Mass
	unit.CurrentVolume = used.Volume
	return &unit, nil
}

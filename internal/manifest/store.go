// Package manifest owns the cargo manifest entries aboard spacecraft and is
// the only place their status changes.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cargo-inventory-backend/internal/capacity"
	"cargo-inventory-backend/internal/errs"
	"cargo-inventory-backend/internal/model"
)

// Item is one cargo line to place aboard a spacecraft.
type Item struct {
	CargoID       int64
	StorageUnitID int64
	Quantity      int
	Priority      model.ManifestPriority
}

// Store defines the manifest lifecycle operations.
type Store interface {
	WithTx(tx *gorm.DB) Store

	Load(ctx context.Context, spacecraftID int64, item Item, loadedBy int64) (*model.CargoManifest, error)
	LoadBatch(ctx context.Context, spacecraftID int64, items []Item, loadedBy int64) ([]model.CargoManifest, error)
	UnloadAllActive(ctx context.Context, spacecraftID, unloadedBy int64) ([]model.CargoManifest, error)
	Transition(ctx context.Context, entryID int64, to model.ManifestStatus) (*model.CargoManifest, error)

	Get(ctx context.Context, entryID int64) (*model.CargoManifest, error)
	ListBySpacecraft(ctx context.Context, spacecraftID int64) ([]model.CargoManifest, error)
	ActiveBySpacecraft(ctx context.Context, spacecraftID int64) ([]model.CargoManifest, error)
	CriticalPending(ctx context.Context) ([]model.CargoManifest, error)
	ActiveLines(ctx context.Context, spacecraftID int64) ([]capacity.Line, error)
}

type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed manifest store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *gormStore) WithTx(tx *gorm.DB) Store {
	return &gormStore{db: tx, now: s.now}
}

func validateItem(item Item) error {
	if item.Quantity <= 0 {
		return &errs.QuantityError{Quantity: item.Quantity, Reason: "must be greater than zero"}
	}
	if item.Priority != "" && item.Priority.Rank() == 0 {
		return fmt.Errorf("%w: unknown manifest priority %q", errs.ErrInvalidValue, item.Priority)
	}
	return nil
}

// Load creates a LOADED entry stamped with the current time.
func (s *gormStore) Load(ctx context.Context, spacecraftID int64, item Item, loadedBy int64) (*model.CargoManifest, error) {
	entries, err := s.LoadBatch(ctx, spacecraftID, []Item{item}, loadedBy)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// LoadBatch creates one LOADED entry per item. Items without a priority get
// NORMAL. Every item is validated before the first insert.
func (s *gormStore) LoadBatch(ctx context.Context, spacecraftID int64, items []Item, loadedBy int64) ([]model.CargoManifest, error) {
	if len(items) == 0 {
		return []model.CargoManifest{}, nil
	}
	for _, item := range items {
		if err := validateItem(item); err != nil {
			return nil, err
		}
	}

	loadedAt := s.now()
	entries := make([]model.CargoManifest, len(items))
	for i, item := range items {
		priority := item.Priority
		if priority == "" {
			priority = model.PriorityNormal
		}
		entries[i] = model.CargoManifest{
			SpacecraftID:   spacecraftID,
			CargoID:        item.CargoID,
			StorageUnitID:  item.StorageUnitID,
			Quantity:       item.Quantity,
			LoadedAt:       loadedAt,
			LoadedByUserID: loadedBy,
			ManifestStatus: model.ManifestLoaded,
			Priority:       priority,
		}
	}

	if err := s.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load cargo onto spacecraft %d: %w", spacecraftID, err)
	}
	return entries, nil
}

// UnloadAllActive moves every LOADED or IN_TRANSIT entry of the spacecraft to
// UNLOADED. With nothing aboard it returns an empty slice and writes nothing.
func (s *gormStore) UnloadAllActive(ctx context.Context, spacecraftID, unloadedBy int64) ([]model.CargoManifest, error) {
	db := s.db.WithContext(ctx)

	var active []model.CargoManifest
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("spacecraft_id = ? AND manifest_status IN ?", spacecraftID, model.ActiveStatuses).
		Order("id ASC").
		Find(&active).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock active manifest for spacecraft %d: %w", spacecraftID, err)
	}
	if len(active) == 0 {
		return []model.CargoManifest{}, nil
	}

	ids := make([]int64, len(active))
	for i, entry := range active {
		if !entry.ManifestStatus.IsActive() {
			return nil, &errs.StateError{EntryID: entry.ID, From: string(entry.ManifestStatus), To: string(model.ManifestUnloaded)}
		}
		ids[i] = entry.ID
	}

	unloadedAt := s.now()
	res := db.Model(&model.CargoManifest{}).
		Where("id IN ? AND manifest_status IN ?", ids, model.ActiveStatuses).
		Updates(map[string]any{
			"manifest_status":     model.ManifestUnloaded,
			"unloaded_at":         unloadedAt,
			"unloaded_by_user_id": unloadedBy,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to unload spacecraft %d: %w", spacecraftID, res.Error)
	}
	if res.RowsAffected != int64(len(ids)) {
		return nil, fmt.Errorf("%w: spacecraft %d manifest changed during unload", errs.ErrManifestState, spacecraftID)
	}

	for i := range active {
		active[i].ManifestStatus = model.ManifestUnloaded
		active[i].UnloadedAt = &unloadedAt
		active[i].UnloadedByUserID = &unloadedBy
	}
	return active, nil
}

// Transition moves a single entry forward along the lifecycle. It is used for
// PENDING -> LOADED and LOADED -> IN_TRANSIT; unloading goes through
// UnloadAllActive.
func (s *gormStore) Transition(ctx context.Context, entryID int64, to model.ManifestStatus) (*model.CargoManifest, error) {
	if to == model.ManifestUnloaded {
		return nil, fmt.Errorf("%w: entry %d can only be unloaded with the rest of its spacecraft", errs.ErrManifestState, entryID)
	}

	db := s.db.WithContext(ctx)

	var entry model.CargoManifest
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(errs.KindManifest, entryID)
		}
		return nil, fmt.Errorf("failed to lock manifest entry %d: %w", entryID, err)
	}
	if !entry.ManifestStatus.CanTransitionTo(to) {
		return nil, &errs.StateError{EntryID: entryID, From: string(entry.ManifestStatus), To: string(to)}
	}

	updates := map[string]any{"manifest_status": to}
	if to == model.ManifestLoaded {
		// A pending entry is stamped when it actually goes aboard.
		entry.LoadedAt = s.now()
		updates["loaded_at"] = entry.LoadedAt
	}
	res := db.Model(&entry).Where("manifest_status = ?", entry.ManifestStatus).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to move manifest entry %d to %s: %w", entryID, to, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &errs.StateError{EntryID: entryID, From: string(entry.ManifestStatus), To: string(to)}
	}
	entry.ManifestStatus = to
	return &entry, nil
}

// Get fetches a single manifest entry.
func (s *gormStore) Get(ctx context.Context, entryID int64) (*model.CargoManifest, error) {
	var entry model.CargoManifest
	if err := s.db.WithContext(ctx).Take(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(errs.KindManifest, entryID)
		}
		return nil, fmt.Errorf("failed to fetch manifest entry %d: %w", entryID, err)
	}
	return &entry, nil
}

// priorityOrder ranks priorities in SQL, highest first.
func priorityOrder() string {
	var b strings.Builder
	b.WriteString("CASE priority")
	for _, p := range []model.ManifestPriority{model.PriorityCritical, model.PriorityHigh, model.PriorityNormal, model.PriorityLow} {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, p.Rank())
	}
	b.WriteString(" ELSE 0 END DESC")
	return b.String()
}

// ListBySpacecraft returns the whole manifest, highest priority first and
// newest first within a priority.
func (s *gormStore) ListBySpacecraft(ctx context.Context, spacecraftID int64) ([]model.CargoManifest, error) {
	var entries []model.CargoManifest
	err := s.db.WithContext(ctx).
		Where("spacecraft_id = ?", spacecraftID).
		Order(priorityOrder()).
		Order("loaded_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list manifest for spacecraft %d: %w", spacecraftID, err)
	}
	return entries, nil
}

// ActiveBySpacecraft returns the entries currently aboard.
func (s *gormStore) ActiveBySpacecraft(ctx context.Context, spacecraftID int64) ([]model.CargoManifest, error) {
	var entries []model.CargoManifest
	err := s.db.WithContext(ctx).
		Where("spacecraft_id = ? AND manifest_status IN ?", spacecraftID, model.ActiveStatuses).
		Order("loaded_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active cargo for spacecraft %d: %w", spacecraftID, err)
	}
	return entries, nil
}

// CriticalPending returns PENDING entries with CRITICAL priority, oldest first.
func (s *gormStore) CriticalPending(ctx context.Context) ([]model.CargoManifest, error) {
	var entries []model.CargoManifest
	err := s.db.WithContext(ctx).
		Where("manifest_status = ? AND priority = ?", model.ManifestPending, model.PriorityCritical).
		Order("loaded_at ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list critical pending cargo: %w", err)
	}
	return entries, nil
}

// ActiveLines joins active entries with cargo unit mass and volume.
func (s *gormStore) ActiveLines(ctx context.Context, spacecraftID int64) ([]capacity.Line, error) {
	var lines []capacity.Line
	err := s.db.WithContext(ctx).
		Table("cargo_manifests").
		Select("cargo_manifests.quantity, cargos.mass_per_unit, cargos.volume_per_unit").
		Joins("JOIN cargos ON cargos.id = cargo_manifests.cargo_id").
		Where("cargo_manifests.spacecraft_id = ? AND cargo_manifests.manifest_status IN ?", spacecraftID, model.ActiveStatuses).
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active lines for spacecraft %d: %w", spacecraftID, err)
	}
	return lines, nil
}

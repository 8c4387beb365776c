// Package lookup resolves the reference entities the inventory core depends
// on but does not own.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cargo-inventory-backend/internal/errs"
	"cargo-inventory-backend/internal/model"
)

type CargoLookup interface {
	GetCargo(ctx context.Context, id int64) (*model.Cargo, error)
}

type StorageUnitLookup interface {
	GetStorageUnit(ctx context.Context, id int64) (*model.StorageUnit, error)
}

type SpacecraftLookup interface {
	GetSpacecraft(ctx context.Context, id int64) (*model.Spacecraft, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// Directory bundles every lookup.
type Directory interface {
	CargoLookup
	StorageUnitLookup
	SpacecraftLookup
	UserLookup
}

// UserOrNil resolves an optional user reference. A nil id or a user that no
// longer exists yields nil without an error.
func UserOrNil(ctx context.Context, users UserLookup, id *int64) (*model.User, error) {
	if id == nil {
		return nil, nil
	}
	u, err := users.GetUser(ctx, *id)
	if errors.Is(err, errs.ErrEntityNotFound) {
		return nil, nil
	}
	return u, err
}

type gormDirectory struct {
	db *gorm.DB
}

var _ Directory = (*gormDirectory)(nil)

// NewGormDirectory creates a Directory reading straight from the database.
func NewGormDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func find[T any](ctx context.Context, db *gorm.DB, kind string, id int64) (*T, error) {
	var v T
	if err := db.WithContext(ctx).Take(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(kind, id)
		}
		return nil, fmt.Errorf("failed to fetch %s %d: %w", kind, id, err)
	}
	return &v, nil
}

func (d *gormDirectory) GetCargo(ctx context.Context, id int64) (*model.Cargo, error) {
	return find[model.Cargo](ctx, d.db, errs.KindCargo, id)
}

func (d *gormDirectory) GetStorageUnit(ctx context.Context, id int64) (*model.StorageUnit, error) {
	return find[model.StorageUnit](ctx, d.db, errs.KindStorageUnit, id)
}

func (d *gormDirectory) GetSpacecraft(ctx context.Context, id int64) (*model.Spacecraft, error) {
	return find[model.Spacecraft](ctx, d.db, errs.KindSpacecraft, id)
}

func (d *gormDirectory) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return find[model.User](ctx, d.db, errs.KindUser, id)
}

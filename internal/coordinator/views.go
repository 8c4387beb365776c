package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"cargo-inventory-backend/internal/capacity"
	"cargo-inventory-backend/internal/errs"
	"cargo-inventory-backend/internal/lookup"
	"cargo-inventory-backend/internal/model"
)

// StorageView is a cargo storage entry with display names.
type StorageView struct {
	ID                    int64      `json:"id"`
	StorageUnitID         int64      `json:"storageUnitId"`
	StorageUnitCode       string     `json:"storageUnitCode"`
	StorageLocation       string     `json:"storageLocation"`
	CargoID               int64      `json:"cargoId"`
	CargoName             string     `json:"cargoName"`
	Quantity              int        `json:"quantity"`
	StoredAt              time.Time  `json:"storedAt"`
	LastInventoryCheck    *time.Time `json:"lastInventoryCheck"`
	LastCheckedByUserID   *int64     `json:"lastCheckedByUserId"`
	LastCheckedByUserName *string    `json:"lastCheckedByUserName"`
}

// ManifestView is a manifest entry with display names.
type ManifestView struct {
	ID                 int64                  `json:"id"`
	SpacecraftID       int64                  `json:"spacecraftId"`
	SpacecraftName     string                 `json:"spacecraftName"`
	CargoID            int64                  `json:"cargoId"`
	CargoName          string                 `json:"cargoName"`
	StorageUnitID      int64                  `json:"storageUnitId"`
	StorageUnitCode    string                 `json:"storageUnitCode"`
	Quantity           int                    `json:"quantity"`
	ManifestStatus     model.ManifestStatus   `json:"manifestStatus"`
	Priority           model.ManifestPriority `json:"priority"`
	LoadedAt           time.Time              `json:"loadedAt"`
	UnloadedAt         *time.Time             `json:"unloadedAt"`
	LoadedByUserID     int64                  `json:"loadedByUserId"`
	LoadedByUserName   string                 `json:"loadedByUserName"`
	UnloadedByUserID   *int64                 `json:"unloadedByUserId"`
	UnloadedByUserName *string                `json:"unloadedByUserName"`
}

// TransactionView is a ledger row with location labels.
type TransactionView struct {
	ID                  int64                 `json:"id"`
	TransactionType     model.TransactionType `json:"transactionType"`
	CargoID             int64                 `json:"cargoId"`
	CargoName           string                `json:"cargoName"`
	Quantity            int                   `json:"quantity"`
	FromLocation        string                `json:"fromLocation,omitempty"`
	ToLocation          string                `json:"toLocation,omitempty"`
	PerformedByUserName string                `json:"performedByUserName,omitempty"`
	TransactionDate     time.Time             `json:"transactionDate"`
	ReasonCode          string                `json:"reasonCode,omitempty"`
	ReferenceNumber     string                `json:"referenceNumber,omitempty"`
	Notes               string                `json:"notes,omitempty"`
}

// CapacityView is the capacity envelope of a storage unit or spacecraft.
type CapacityView struct {
	ID                    int64           `json:"id"`
	Name                  string          `json:"name"`
	TotalMassCapacity     decimal.Decimal `json:"totalMassCapacity"`
	TotalVolumeCapacity   decimal.Decimal `json:"totalVolumeCapacity"`
	CurrentMass           decimal.Decimal `json:"currentMass"`
	CurrentVolume         decimal.Decimal `json:"currentVolume"`
	AvailableMass         decimal.Decimal `json:"availableMass"`
	AvailableVolume       decimal.Decimal `json:"availableVolume"`
	MassUsagePercentage   float64         `json:"massUsagePercentage"`
	VolumeUsagePercentage float64         `json:"volumeUsagePercentage"`
}

func capacityView(id int64, name string, env capacity.Envelope) *CapacityView {
	return &CapacityView{
		ID:                    id,
		Name:                  name,
		TotalMassCapacity:     env.TotalMass,
		TotalVolumeCapacity:   env.TotalVolume,
		CurrentMass:           env.CurrentMass,
		CurrentVolume:         env.CurrentVolume,
		AvailableMass:         env.AvailableMass(),
		AvailableVolume:       env.AvailableVolume(),
		MassUsagePercentage:   env.MassUsage(),
		VolumeUsagePercentage: env.VolumeUsage(),
	}
}

// resolver memoizes display lookups for the duration of one call. A
// reference that no longer resolves renders as an empty name.
type resolver struct {
	ctx        context.Context
	lookups    Lookups
	cargo      map[int64]*model.Cargo
	units      map[int64]*model.StorageUnit
	spacecraft map[int64]*model.Spacecraft
	users      map[int64]*model.User
}

func newResolver(ctx context.Context, l Lookups) *resolver {
	return &resolver{
		ctx:        ctx,
		lookups:    l,
		cargo:      map[int64]*model.Cargo{},
		units:      map[int64]*model.StorageUnit{},
		spacecraft: map[int64]*model.Spacecraft{},
		users:      map[int64]*model.User{},
	}
}

func memo[T any](ctx context.Context, m map[int64]*T, id int64, get func(context.Context, int64) (*T, error)) (*T, error) {
	if v, ok := m[id]; ok {
		return v, nil
	}
	v, err := get(ctx, id)
	if errors.Is(err, errs.ErrEntityNotFound) {
		m[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m[id] = v
	return v, nil
}

func (r *resolver) cargoName(id int64) (string, error) {
	c, err := memo(r.ctx, r.cargo, id, r.lookups.Cargo.GetCargo)
	if err != nil || c == nil {
		return "", err
	}
	return c.Name, nil
}

func (r *resolver) unit(id int64) (*model.StorageUnit, error) {
	return memo(r.ctx, r.units, id, r.lookups.StorageUnits.GetStorageUnit)
}

func (r *resolver) spacecraftName(id int64) (string, error) {
	s, err := memo(r.ctx, r.spacecraft, id, r.lookups.Spacecraft.GetSpacecraft)
	if err != nil || s == nil {
		return "", err
	}
	return s.Name, nil
}

func (r *resolver) userName(id *int64) (*string, error) {
	if id == nil {
		return nil, nil
	}
	u, ok := r.users[*id]
	if !ok {
		var err error
		if u, err = lookup.UserOrNil(r.ctx, r.lookups.Users, id); err != nil {
			return nil, err
		}
		r.users[*id] = u
	}
	if u == nil {
		return nil, nil
	}
	name := u.DisplayName()
	return &name, nil
}

func (r *resolver) storageView(e model.CargoStorage) (StorageView, error) {
	v := StorageView{
		ID:                  e.ID,
		StorageUnitID:       e.StorageUnitID,
		CargoID:             e.CargoID,
		Quantity:            e.Quantity,
		StoredAt:            e.StoredAt,
		LastInventoryCheck:  e.LastInventoryCheck,
		LastCheckedByUserID: e.LastCheckedByUserID,
	}
	unit, err := r.unit(e.StorageUnitID)
	if err != nil {
		return v, err
	}
	if unit != nil {
		v.StorageUnitCode = unit.UnitCode
		v.StorageLocation = unit.Location
	}
	if v.CargoName, err = r.cargoName(e.CargoID); err != nil {
		return v, err
	}
	if v.LastCheckedByUserName, err = r.userName(e.LastCheckedByUserID); err != nil {
		return v, err
	}
	return v, nil
}

func (r *resolver) storageViews(entries []model.CargoStorage) ([]StorageView, error) {
	views := make([]StorageView, 0, len(entries))
	for _, e := range entries {
		v, err := r.storageView(e)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *resolver) manifestView(e model.CargoManifest) (ManifestView, error) {
	v := ManifestView{
		ID:               e.ID,
		SpacecraftID:     e.SpacecraftID,
		CargoID:          e.CargoID,
		StorageUnitID:    e.StorageUnitID,
		Quantity:         e.Quantity,
		ManifestStatus:   e.ManifestStatus,
		Priority:         e.Priority,
		LoadedAt:         e.LoadedAt,
		UnloadedAt:       e.UnloadedAt,
		LoadedByUserID:   e.LoadedByUserID,
		UnloadedByUserID: e.UnloadedByUserID,
	}
	var err error
	if v.SpacecraftName, err = r.spacecraftName(e.SpacecraftID); err != nil {
		return v, err
	}
	if v.CargoName, err = r.cargoName(e.CargoID); err != nil {
		return v, err
	}
	unit, err := r.unit(e.StorageUnitID)
	if err != nil {
		return v, err
	}
	if unit != nil {
		v.StorageUnitCode = unit.UnitCode
	}
	loadedBy, err := r.userName(&e.LoadedByUserID)
	if err != nil {
		return v, err
	}
	if loadedBy != nil {
		v.LoadedByUserName = *loadedBy
	}
	if v.UnloadedByUserName, err = r.userName(e.UnloadedByUserID); err != nil {
		return v, err
	}
	return v, nil
}

func (r *resolver) manifestViews(entries []model.CargoManifest) ([]ManifestView, error) {
	views := make([]ManifestView, 0, len(entries))
	for _, e := range entries {
		v, err := r.manifestView(e)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *resolver) location(unitID, spacecraftID *int64) (string, error) {
	switch {
	case unitID != nil:
		unit, err := r.unit(*unitID)
		if err != nil || unit == nil {
			return "", err
		}
		return "Storage: " + unit.UnitCode, nil
	case spacecraftID != nil:
		name, err := r.spacecraftName(*spacecraftID)
		if err != nil || name == "" {
			return "", err
		}
		return "Spacecraft: " + name, nil
	}
	return "", nil
}

func (r *resolver) transactionView(t model.InventoryTransaction) (TransactionView, error) {
	v := TransactionView{
		ID:              t.ID,
		TransactionType: t.TransactionType,
		CargoID:         t.CargoID,
		Quantity:        t.Quantity,
		TransactionDate: t.TransactionDate,
		ReasonCode:      t.ReasonCode,
		ReferenceNumber: t.ReferenceNumber,
		Notes:           t.Notes,
	}
	var err error
	if v.CargoName, err = r.cargoName(t.CargoID); err != nil {
		return v, err
	}
	if v.FromLocation, err = r.location(t.FromStorageUnitID, t.FromSpacecraftID); err != nil {
		return v, err
	}
	if v.ToLocation, err = r.location(t.ToStorageUnitID, t.ToSpacecraftID); err != nil {
		return v, err
	}
	performer, err := r.userName(t.PerformedByUserID)
	if err != nil {
		return v, err
	}
	if performer != nil {
		v.PerformedByUserName = *performer
	}
	return v, nil
}

func (r *resolver) transactionViews(txns []model.InventoryTransaction) ([]TransactionView, error) {
	views := make([]TransactionView, 0, len(txns))
	for _, t := range txns {
		v, err := r.transactionView(t)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Package coordinator runs every inventory business operation as one atomic
// unit over the inventory store, the manifest lifecycle and the ledger.
package coordinator

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/gorm"

	"cargo-inventory-backend/internal/capacity"
	"cargo-inventory-backend/internal/errs"
	"cargo-inventory-backend/internal/inventory"
	"cargo-inventory-backend/internal/ledger"
	"cargo-inventory-backend/internal/lookup"
	"cargo-inventory-backend/internal/manifest"
	"cargo-inventory-backend/internal/metrics"
	"cargo-inventory-backend/internal/model"
)

// Reason codes stamped on audit rows the coordinator writes itself.
const (
	ReasonStorageIntake  = "STORAGE_INTAKE"
	ReasonInventoryCheck = "INVENTORY_CHECK"
	ReasonManifestLoad   = "MANIFEST_LOAD"
	ReasonManifestUnload = "MANIFEST_UNLOAD"
)

const (
	defaultCheckMaxAge    = 30 * 24 * time.Hour
	manifestReferenceForm = "MANIFEST-%d"
)

// Lookups are the entity resolvers the coordinator depends on.
type Lookups struct {
	Cargo        lookup.CargoLookup
	StorageUnits lookup.StorageUnitLookup
	Spacecraft   lookup.SpacecraftLookup
	Users        lookup.UserLookup
}

// LookupsFrom uses one directory for every lookup.
func LookupsFrom(d lookup.Directory) Lookups {
	return Lookups{Cargo: d, StorageUnits: d, Spacecraft: d, Users: d}
}

// Options tune coordinator policy.
type Options struct {
	// EnforceCapacity rejects adds and loads that would overflow a location.
	EnforceCapacity bool
	// InventoryCheckMaxAge is how old a check may be before it is due again.
	InventoryCheckMaxAge time.Duration
	Metrics              metrics.Recorder
	Logger               *log.Logger
}

// Coordinator is the sole mutator of storage and manifest entries.
type Coordinator struct {
	db        *gorm.DB
	lookups   Lookups
	inventory inventory.Store
	manifests manifest.Store
	ledger    ledger.Ledger

	enforceCapacity bool
	checkMaxAge     time.Duration
	metrics         metrics.Recorder
	logger          *log.Logger
	now             func() time.Time
}

// New wires a coordinator. db provides the transaction boundary; the stores
// are rebound to each transaction with WithTx.
func New(db *gorm.DB, lookups Lookups, inv inventory.Store, man manifest.Store, led ledger.Ledger, opts Options) *Coordinator {
	c := &Coordinator{
		db:              db,
		lookups:         lookups,
		inventory:       inv,
		manifests:       man,
		ledger:          led,
		enforceCapacity: opts.EnforceCapacity,
		checkMaxAge:     opts.InventoryCheckMaxAge,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
	if c.checkMaxAge <= 0 {
		c.checkMaxAge = defaultCheckMaxAge
	}
	if c.metrics == nil {
		c.metrics = metrics.Noop{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	return c
}

// NewFromDB builds the stores and lookups over a single database handle.
func NewFromDB(db *gorm.DB, dir lookup.Directory, opts Options) *Coordinator {
	return New(db, LookupsFrom(dir), inventory.NewGormStore(db), manifest.NewGormStore(db), ledger.NewGormLedger(db), opts)
}

func (c *Coordinator) observe(ctx context.Context, operation string, start time.Time, err *error) {
	c.metrics.Observe(ctx, operation, *err == nil, time.Since(start))
}

// atomic runs fn in one database transaction with every store bound to it.
func (c *Coordinator) atomic(ctx context.Context, fn func(inv inventory.Store, man manifest.Store, led ledger.Ledger) error) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(c.inventory.WithTx(tx), c.manifests.WithTx(tx), c.ledger.WithTx(tx))
	})
}

func (c *Coordinator) optionalUser(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := c.lookups.Users.GetUser(ctx, *id)
	return err
}

// AddCargoToStorage merges quantity into the storage entry for the pair and
// records a LOAD into the unit.
func (c *Coordinator) AddCargoToStorage(ctx context.Context, req AddToStorageRequest) (view *StorageView, err error) {
	defer c.observe(ctx, "add_to_storage", time.Now(), &err)

	if req.Quantity <= 0 {
		return nil, &errs.QuantityError{Quantity: req.Quantity, Reason: "must be greater than zero"}
	}
	cargo, err := c.lookups.Cargo.GetCargo(ctx, req.CargoID)
	if err != nil {
		return nil, err
	}
	unit, err := c.lookups.StorageUnits.GetStorageUnit(ctx, req.StorageUnitID)
	if err != nil {
		return nil, err
	}
	if err := c.optionalUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	var entry *model.CargoStorage
	err = c.atomic(ctx, func(inv inventory.Store, _ manifest.Store, led ledger.Ledger) error {
		if c.enforceCapacity {
			lines, err := inv.UsageLines(ctx, unit.ID)
			if err != nil {
				return err
			}
			env := capacity.ForStorageUnit(*unit)
			used := capacity.Sum(lines...)
			env.CurrentMass, env.CurrentVolume = used.Mass, used.Volume
			if err := c.checkFits(env, "storage unit "+unit.UnitCode, capacity.LineFor(*cargo, req.Quantity).Load()); err != nil {
				return err
			}
		}

		var err error
		if entry, err = inv.AddToStorage(ctx, unit.ID, cargo.ID, req.Quantity); err != nil {
			return err
		}
		return led.Append(ctx, &model.InventoryTransaction{
			TransactionType:   model.TransactionLoad,
			CargoID:           cargo.ID,
			Quantity:          req.Quantity,
			ToStorageUnitID:   &unit.ID,
			PerformedByUserID: req.UserID,
			ReasonCode:        ReasonStorageIntake,
		})
	})
	if err != nil {
		return nil, err
	}

	v, err := newResolver(ctx, c.lookups).storageView(*entry)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Coordinator) checkFits(env capacity.Envelope, location string, need capacity.Load) error {
	if env.Fits(need) {
		return nil
	}
	after := env.With(need)
	if need.Mass.GreaterThan(env.AvailableMass()) {
		c.logger.Printf("capacity guard: rejected %s, mass usage would reach %.2f%%", location, after.MassUsage())
		return &errs.CapacityError{Location: location, Resource: "mass", Required: need.Mass.String(), Free: env.AvailableMass().String()}
	}
	c.logger.Printf("capacity guard: rejected %s, volume usage would reach %.2f%%", location, after.VolumeUsage())
	return &errs.CapacityError{Location: location, Resource: "volume", Required: need.Volume.String(), Free: env.AvailableVolume().String()}
}

// CorrectQuantity overwrites an entry's quantity after an inventory check and
// records the discrepancy as an ADJUSTMENT. A check that confirms the stored
// quantity only stamps the entry.
func (c *Coordinator) CorrectQuantity(ctx context.Context, entryID int64, req CorrectQuantityRequest) (view *StorageView, err error) {
	defer c.observe(ctx, "correct_quantity", time.Now(), &err)

	if req.Quantity < 0 {
		return nil, &errs.QuantityError{Quantity: req.Quantity, Reason: "must not be negative"}
	}
	if err := c.optionalUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	var correction *inventory.Correction
	err = c.atomic(ctx, func(inv inventory.Store, _ manifest.Store, led ledger.Ledger) error {
		var err error
		if correction, err = inv.CorrectQuantity(ctx, entryID, req.Quantity, req.UserID); err != nil {
			return err
		}

		delta := correction.Delta()
		if delta == 0 {
			return nil
		}
		adj := &model.InventoryTransaction{
			TransactionType:   model.TransactionAdjustment,
			CargoID:           correction.Entry.CargoID,
			Quantity:          delta,
			PerformedByUserID: req.UserID,
			ReasonCode:        ReasonInventoryCheck,
			Notes:             fmt.Sprintf("inventory check: %d -> %d", correction.Previous, correction.Entry.Quantity),
		}
		if delta < 0 {
			adj.Quantity = -delta
			adj.FromStorageUnitID = &correction.Entry.StorageUnitID
		} else {
			adj.ToStorageUnitID = &correction.Entry.StorageUnitID
		}
		return led.Append(ctx, adj)
	})
	if err != nil {
		return nil, err
	}

	if correction.Delta() != 0 {
		c.logger.Printf("inventory check on entry %d: %d -> %d", entryID, correction.Previous, correction.Entry.Quantity)
	}
	v, err := newResolver(ctx, c.lookups).storageView(correction.Entry)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// StorageEntry returns one storage entry with display names.
func (c *Coordinator) StorageEntry(ctx context.Context, entryID int64) (*StorageView, error) {
	entry, err := c.inventory.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	v, err := newResolver(ctx, c.lookups).storageView(*entry)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// TotalQuantityForCargo sums the cargo across every storage unit.
func (c *Coordinator) TotalQuantityForCargo(ctx context.Context, cargoID int64) (int64, error) {
	return c.inventory.TotalQuantityForCargo(ctx, cargoID)
}

// TotalQuantityForStorageUnit sums every cargo type held in a unit.
func (c *Coordinator) TotalQuantityForStorageUnit(ctx context.Context, storageUnitID int64) (int64, error) {
	return c.inventory.TotalQuantityForStorageUnit(ctx, storageUnitID)
}

// StorageContents lists a unit's entries, most recently stored first.
func (c *Coordinator) StorageContents(ctx context.Context, storageUnitID int64) ([]StorageView, error) {
	if _, err := c.lookups.StorageUnits.GetStorageUnit(ctx, storageUnitID); err != nil {
		return nil, err
	}
	entries, err := c.inventory.ListByStorageUnit(ctx, storageUnitID)
	if err != nil {
		return nil, err
	}
	return newResolver(ctx, c.lookups).storageViews(entries)
}

// InventoryCheckDue lists entries never checked or checked longer ago than
// the configured maximum age.
func (c *Coordinator) InventoryCheckDue(ctx context.Context) ([]StorageView, error) {
	entries, err := c.inventory.RequiringInventoryCheck(ctx, c.now().Add(-c.checkMaxAge))
	if err != nil {
		return nil, err
	}
	return newResolver(ctx, c.lookups).storageViews(entries)
}

// StorageUnitCapacity reports the unit's envelope from its materialized totals.
func (c *Coordinator) StorageUnitCapacity(ctx context.Context, storageUnitID int64) (*CapacityView, error) {
	unit, err := c.lookups.StorageUnits.GetStorageUnit(ctx, storageUnitID)
	if err != nil {
		return nil, err
	}
	return capacityView(unit.ID, unit.UnitCode, capacity.ForStorageUnit(*unit)), nil
}

// RecomputeStorageUnit refreshes the unit's materialized mass and volume.
func (c *Coordinator) RecomputeStorageUnit(ctx context.Context, storageUnitID int64) (view *CapacityView, err error) {
	defer c.observe(ctx, "recompute_storage_unit", time.Now(), &err)

	var unit *model.StorageUnit
	err = c.atomic(ctx, func(inv inventory.Store, _ manifest.Store, _ ledger.Ledger) error {
		var err error
		unit, err = inv.RecomputeStorageUnit(ctx, storageUnitID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return capacityView(unit.ID, unit.UnitCode, capacity.ForStorageUnit(*unit)), nil
}

// LoadCargoToSpacecraft loads the request's single item and batch items as
// LOADED manifest entries. Either every line is written or none is.
func (c *Coordinator) LoadCargoToSpacecraft(ctx context.Context, spacecraftID int64, req LoadRequest) (views []ManifestView, err error) {
	defer c.observe(ctx, "load_cargo", time.Now(), &err)

	spacecraft, err := c.lookups.Spacecraft.GetSpacecraft(ctx, spacecraftID)
	if err != nil {
		return nil, err
	}
	if _, err := c.lookups.Users.GetUser(ctx, req.LoadedByUserID); err != nil {
		return nil, err
	}

	raw := req.CargoItems
	if req.CargoID != nil {
		single := LoadItem{CargoID: *req.CargoID, Priority: req.Priority}
		if req.StorageUnitID != nil {
			single.StorageUnitID = *req.StorageUnitID
		}
		if req.Quantity != nil {
			single.Quantity = *req.Quantity
		}
		raw = append([]LoadItem{single}, raw...)
	}
	if len(raw) == 0 {
		return nil, &errs.QuantityError{Quantity: 0, Reason: "no cargo to load"}
	}

	items := make([]manifest.Item, len(raw))
	lines := make([]capacity.Line, len(raw))
	for i, it := range raw {
		if it.Quantity <= 0 {
			return nil, &errs.QuantityError{Quantity: it.Quantity, Reason: "must be greater than zero"}
		}
		priority, err := model.ParsePriority(it.Priority)
		if err != nil {
			return nil, err
		}
		cargo, err := c.lookups.Cargo.GetCargo(ctx, it.CargoID)
		if err != nil {
			return nil, err
		}
		if _, err := c.lookups.StorageUnits.GetStorageUnit(ctx, it.StorageUnitID); err != nil {
			return nil, err
		}
		items[i] = manifest.Item{CargoID: it.CargoID, StorageUnitID: it.StorageUnitID, Quantity: it.Quantity, Priority: priority}
		lines[i] = capacity.LineFor(*cargo, it.Quantity)
	}

	var entries []model.CargoManifest
	err = c.atomic(ctx, func(_ inventory.Store, man manifest.Store, led ledger.Ledger) error {
		if c.enforceCapacity {
			active, err := man.ActiveLines(ctx, spacecraft.ID)
			if err != nil {
				return err
			}
			env := capacity.ForSpacecraft(*spacecraft, active)
			if err := c.checkFits(env, "spacecraft "+spacecraft.Name, capacity.Sum(lines...)); err != nil {
				return err
			}
		}

		var err error
		if entries, err = man.LoadBatch(ctx, spacecraft.ID, items, req.LoadedByUserID); err != nil {
			return err
		}
		audit := make([]*model.InventoryTransaction, len(entries))
		for i := range entries {
			e := &entries[i]
			audit[i] = &model.InventoryTransaction{
				TransactionType:   model.TransactionLoad,
				CargoID:           e.CargoID,
				Quantity:          e.Quantity,
				FromStorageUnitID: &e.StorageUnitID,
				ToSpacecraftID:    &e.SpacecraftID,
				PerformedByUserID: &e.LoadedByUserID,
				TransactionDate:   e.LoadedAt,
				ReasonCode:        ReasonManifestLoad,
				ReferenceNumber:   fmt.Sprintf(manifestReferenceForm, e.ID),
			}
		}
		return led.Append(ctx, audit...)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Printf("loaded %d manifest line(s) onto spacecraft %d", len(entries), spacecraft.ID)
	return newResolver(ctx, c.lookups).manifestViews(entries)
}

// UnloadCargoFromSpacecraft unloads everything aboard the spacecraft. Every
// reference in the request must resolve, even those unloading ignores.
func (c *Coordinator) UnloadCargoFromSpacecraft(ctx context.Context, spacecraftID int64, req UnloadRequest) (views []ManifestView, err error) {
	defer c.observe(ctx, "unload_cargo", time.Now(), &err)

	if _, err := c.lookups.Spacecraft.GetSpacecraft(ctx, spacecraftID); err != nil {
		return nil, err
	}
	if _, err := c.lookups.Users.GetUser(ctx, req.UnloadedByUserID); err != nil {
		return nil, err
	}
	if err := c.optionalUser(ctx, req.LoadedByUserID); err != nil {
		return nil, err
	}
	if req.StorageUnitID != nil {
		if _, err := c.lookups.StorageUnits.GetStorageUnit(ctx, *req.StorageUnitID); err != nil {
			return nil, err
		}
	}
	if req.CargoID != nil {
		if _, err := c.lookups.Cargo.GetCargo(ctx, *req.CargoID); err != nil {
			return nil, err
		}
	}

	var entries []model.CargoManifest
	err = c.atomic(ctx, func(_ inventory.Store, man manifest.Store, led ledger.Ledger) error {
		var err error
		if entries, err = man.UnloadAllActive(ctx, spacecraftID, req.UnloadedByUserID); err != nil {
			return err
		}
		audit := make([]*model.InventoryTransaction, len(entries))
		for i := range entries {
			e := &entries[i]
			audit[i] = &model.InventoryTransaction{
				TransactionType:   model.TransactionUnload,
				CargoID:           e.CargoID,
				Quantity:          e.Quantity,
				FromSpacecraftID:  &e.SpacecraftID,
				ToStorageUnitID:   &e.StorageUnitID,
				PerformedByUserID: e.UnloadedByUserID,
				TransactionDate:   *e.UnloadedAt,
				ReasonCode:        ReasonManifestUnload,
				ReferenceNumber:   fmt.Sprintf(manifestReferenceForm, e.ID),
			}
		}
		return led.Append(ctx, audit...)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Printf("unloaded %d manifest line(s) from spacecraft %d", len(entries), spacecraftID)
	return newResolver(ctx, c.lookups).manifestViews(entries)
}

// AdvanceManifest moves one entry forward, e.g. LOADED -> IN_TRANSIT when a
// mission departs.
func (c *Coordinator) AdvanceManifest(ctx context.Context, entryID int64, to model.ManifestStatus) (view *ManifestView, err error) {
	defer c.observe(ctx, "advance_manifest", time.Now(), &err)

	var entry *model.CargoManifest
	err = c.atomic(ctx, func(_ inventory.Store, man manifest.Store, _ ledger.Ledger) error {
		var err error
		entry, err = man.Transition(ctx, entryID, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	v, err := newResolver(ctx, c.lookups).manifestView(*entry)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ManifestEntry returns one manifest entry with display names.
func (c *Coordinator) ManifestEntry(ctx context.Context, entryID int64) (*ManifestView, error) {
	entry, err := c.manifests.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	v, err := newResolver(ctx, c.lookups).manifestView(*entry)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SpacecraftManifest lists every entry, highest priority and newest first.
func (c *Coordinator) SpacecraftManifest(ctx context.Context, spacecraftID int64) ([]ManifestView, error) {
	if _, err := c.lookups.Spacecraft.GetSpacecraft(ctx, spacecraftID); err != nil {
		return nil, err
	}
	entries, err := c.manifests.ListBySpacecraft(ctx, spacecraftID)
	if err != nil {
		return nil, err
	}
	return newResolver(ctx, c.lookups).manifestViews(entries)
}

// ActiveCargo lists entries currently aboard the spacecraft.
func (c *Coordinator) ActiveCargo(ctx context.Context, spacecraftID int64) ([]ManifestView, error) {
	if _, err := c.lookups.Spacecraft.GetSpacecraft(ctx, spacecraftID); err != nil {
		return nil, err
	}
	entries, err := c.manifests.ActiveBySpacecraft(ctx, spacecraftID)
	if err != nil {
		return nil, err
	}
	return newResolver(ctx, c.lookups).manifestViews(entries)
}

// CriticalPending lists deferred CRITICAL entries, oldest first.
func (c *Coordinator) CriticalPending(ctx context.Context) ([]ManifestView, error) {
	entries, err := c.manifests.CriticalPending(ctx)
	if err != nil {
		return nil, err
	}
	return newResolver(ctx, c.lookups).manifestViews(entries)
}

// SpacecraftCapacity sums the active cargo aboard against the craft's limits.
func (c *Coordinator) SpacecraftCapacity(ctx context.Context, spacecraftID int64) (*CapacityView, error) {
	spacecraft, err := c.lookups.Spacecraft.GetSpacecraft(ctx, spacecraftID)
	if err != nil {
		return nil, err
	}
	lines, err := c.manifests.ActiveLines(ctx, spacecraftID)
	if err != nil {
		return nil, err
	}
	return capacityView(spacecraft.ID, spacecraft.Name, capacity.ForSpacecraft(*spacecraft, lines)), nil
}

// TransferBetweenStorages records a TRANSFER. Storage quantities are not
// adjusted; the ledger row is the whole effect.
func (c *Coordinator) TransferBetweenStorages(ctx context.Context, req TransferRequest) (view *TransactionView, err error) {
	defer c.observe(ctx, "transfer", time.Now(), &err)

	endpoints := ledger.Endpoints{
		FromStorageUnitID: req.FromStorageUnitID,
		FromSpacecraftID:  req.FromSpacecraftID,
		ToStorageUnitID:   req.ToStorageUnitID,
		ToSpacecraftID:    req.ToSpacecraftID,
	}
	if err := endpoints.Validate(); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, &errs.QuantityError{Quantity: req.Quantity, Reason: "must be greater than zero"}
	}

	if _, err := c.lookups.Cargo.GetCargo(ctx, req.CargoID); err != nil {
		return nil, err
	}
	if _, err := c.lookups.Users.GetUser(ctx, req.PerformedByUserID); err != nil {
		return nil, err
	}
	for _, unitID := range []*int64{req.FromStorageUnitID, req.ToStorageUnitID} {
		if unitID == nil {
			continue
		}
		if _, err := c.lookups.StorageUnits.GetStorageUnit(ctx, *unitID); err != nil {
			return nil, err
		}
	}
	for _, craftID := range []*int64{req.FromSpacecraftID, req.ToSpacecraftID} {
		if craftID == nil {
			continue
		}
		if _, err := c.lookups.Spacecraft.GetSpacecraft(ctx, *craftID); err != nil {
			return nil, err
		}
	}

	txn, err := c.ledger.RecordTransfer(ctx, ledger.Transfer{
		CargoID:           req.CargoID,
		Quantity:          req.Quantity,
		Endpoints:         endpoints,
		PerformedByUserID: req.PerformedByUserID,
		ReasonCode:        req.ReasonCode,
		ReferenceNumber:   req.ReferenceNumber,
		Notes:             req.Notes,
	})
	if err != nil {
		return nil, err
	}

	v, err := newResolver(ctx, c.lookups).transactionView(*txn)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// TransactionHistory lists every movement of a cargo, newest first.
func (c *Coordinator) TransactionHistory(ctx context.Context, cargoID int64) ([]TransactionView, error) {
	txns, err := c.ledger.History(ctx, cargoID)
	if err != nil {
		return nil, err
	}
	return newResolver(ctx, c.lookups).transactionViews(txns)
}

// StorageUnitTransactions lists movements into or out of a unit.
func (c *Coordinator) StorageUnitTransactions(ctx context.Context, storageUnitID int64) ([]TransactionView, error) {
	txns, err := c.ledger.ByStorageUnit(ctx, storageUnitID)
	if err != nil {
		return nil, err
	}
	return newResolver(ctx, c.lookups).transactionViews(txns)
}

// SpacecraftTransactions lists movements onto or off a spacecraft.
func (c *Coordinator) SpacecraftTransactions(ctx context.Context, spacecraftID int64) ([]TransactionView, error) {
	txns, err := c.ledger.BySpacecraft(ctx, spacecraftID)
	if err != nil {
		return nil, err
	}
	return newResolver(ctx, c.lookups).transactionViews(txns)
}

// LedgerNetQuantity derives a unit's stock of a cargo from the ledger alone.
// It is a reconciliation aid; storage entries remain the source of truth.
func (c *Coordinator) LedgerNetQuantity(ctx context.Context, cargoID, storageUnitID int64) (int64, error) {
	return c.ledger.NetQuantity(ctx, cargoID, storageUnitID)
}

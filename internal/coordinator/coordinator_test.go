package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cargo-inventory-backend/internal/dbtest"
	"cargo-inventory-backend/internal/errs"
	"cargo-inventory-backend/internal/inventory"
	"cargo-inventory-backend/internal/ledger"
	"cargo-inventory-backend/internal/lookup"
	"cargo-inventory-backend/internal/manifest"
	"cargo-inventory-backend/internal/model"
)

func ptr[T any](v T) *T { return &v }

type captureRecorder struct {
	mu    sync.Mutex
	calls map[string][]bool
}

func (r *captureRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op] = append(r.calls[op], success)
}

func newTestCoordinator(t *testing.T, opts Options) (*Coordinator, *gorm.DB) {
	gormDB := dbtest.SQLite(t)
	dbtest.Seed(t, gormDB)
	return NewFromDB(gormDB, lookup.NewGormDirectory(gormDB), opts), gormDB
}

func countRows(t *testing.T, gormDB *gorm.DB, m any) int64 {
	var n int64
	require.NoError(t, gormDB.Model(m).Count(&n).Error)
	return n
}

// Scenario A: 50 then 30 more of the same cargo in the same unit.
func TestAddCargoToStorage_Merges(t *testing.T) {
	c, gormDB := newTestCoordinator(t, Options{})
	ctx := context.Background()

	view, err := c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 1, CargoID: 1, Quantity: 50, UserID: ptr(int64(7))})
	require.NoError(t, err)
	assert.Equal(t, 50, view.Quantity)
	assert.Equal(t, "SU-001", view.StorageUnitCode)
	assert.Equal(t, "Hangar A", view.StorageLocation)
	assert.Equal(t, "Water", view.CargoName)
	assert.Nil(t, view.LastInventoryCheck)
	assert.Nil(t, view.LastCheckedByUserName)

	view, err = c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 1, CargoID: 1, Quantity: 30})
	require.NoError(t, err)
	assert.Equal(t, 80, view.Quantity)
	assert.Equal(t, int64(1), countRows(t, gormDB, &model.CargoStorage{}))

	total, err := c.TotalQuantityForCargo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(80), total)

	// Each add leaves a LOAD into the unit.
	history, err := c.TransactionHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, model.TransactionLoad, h.TransactionType)
		assert.Equal(t, "Storage: SU-001", h.ToLocation)
		assert.Empty(t, h.FromLocation)
	}
	assert.ElementsMatch(t, []string{"Jane Doe", ""}, []string{history[0].PerformedByUserName, history[1].PerformedByUserName})

	net, err := c.LedgerNetQuantity(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(80), net)
}

func TestAddCargoToStorage_ValidatesBeforeWriting(t *testing.T) {
	c, gormDB := newTestCoordinator(t, Options{})
	ctx := context.Background()

	testCases := []struct {
		name string
		req  AddToStorageRequest
		want error
		msg  string
	}{
		{"zero quantity", AddToStorageRequest{StorageUnitID: 1, CargoID: 1}, errs.ErrInvalidQuantity, ""},
		{"unknown cargo", AddToStorageRequest{StorageUnitID: 1, CargoID: 99, Quantity: 1}, errs.ErrEntityNotFound, "Cargo not found with id: 99"},
		{"unknown unit", AddToStorageRequest{StorageUnitID: 99, CargoID: 1, Quantity: 1}, errs.ErrEntityNotFound, "Storage unit not found with id: 99"},
		{"unknown user", AddToStorageRequest{StorageUnitID: 1, CargoID: 1, Quantity: 1, UserID: ptr(int64(99))}, errs.ErrEntityNotFound, "User not found with id: 99"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.AddCargoToStorage(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
			if tc.msg != "" {
				assert.EqualError(t, err, tc.msg)
			}
		})
	}

	assert.Zero(t, countRows(t, gormDB, &model.CargoStorage{}))
	assert.Zero(t, countRows(t, gormDB, &model.InventoryTransaction{}))
}

func TestCorrectQuantity_RecordsAdjustment(t *testing.T) {
	c, _ := newTestCoordinator(t, Options{})
	ctx := context.Background()

	added, err := c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 1, CargoID: 2, Quantity: 20})
	require.NoError(t, err)

	view, err := c.CorrectQuantity(ctx, added.ID, CorrectQuantityRequest{Quantity: 17, UserID: ptr(int64(8))})
	require.NoError(t, err)
	assert.Equal(t, 17, view.Quantity)
	require.NotNil(t, view.LastInventoryCheck)
	require.NotNil(t, view.LastCheckedByUserName)
	assert.Equal(t, "Richard Roe", *view.LastCheckedByUserName)

	history, err := c.StorageUnitTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	adj := history[0]
	if adj.TransactionType != model.TransactionAdjustment {
		adj = history[1]
	}
	assert.Equal(t, model.TransactionAdjustment, adj.TransactionType)
	assert.Equal(t, 3, adj.Quantity)
	assert.Equal(t, "Storage: SU-001", adj.FromLocation)
	assert.Equal(t, "inventory check: 20 -> 17", adj.Notes)
	assert.Equal(t, ReasonInventoryCheck, adj.ReasonCode)

	net, err := c.LedgerNetQuantity(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(17), net)

	// A check that confirms the stock stamps the entry but moves nothing.
	view, err = c.CorrectQuantity(ctx, added.ID, CorrectQuantityRequest{Quantity: 17, UserID: ptr(int64(7))})
	require.NoError(t, err)
	require.NotNil(t, view.LastCheckedByUserName)
	assert.Equal(t, "Jane Doe", *view.LastCheckedByUserName)
	history, err = c.StorageUnitTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	fetched, err := c.StorageEntry(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, fetched.Quantity)
	assert.Equal(t, "Oxygen Canister", fetched.CargoName)
	_, err = c.StorageEntry(ctx, 404)
	assert.EqualError(t, err, "Cargo storage not found with id: 404")

	_, err = c.CorrectQuantity(ctx, added.ID, CorrectQuantityRequest{Quantity: -1})
	assert.ErrorIs(t, err, errs.ErrInvalidQuantity)
	_, err = c.CorrectQuantity(ctx, 404, CorrectQuantityRequest{Quantity: 1})
	assert.ErrorIs(t, err, errs.ErrEntityNotFound)
}

// Scenario B: 10 units loaded with HIGH priority.
func TestLoadCargoToSpacecraft_Single(t *testing.T) {
	c, _ := newTestCoordinator(t, Options{})
	ctx := context.Background()

	views, err := c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{
		CargoID:        ptr(int64(1)),
		StorageUnitID:  ptr(int64(1)),
		Quantity:       ptr(10),
		Priority:       "HIGH",
		LoadedByUserID: 7,
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	v := views[0]
	assert.Equal(t, model.ManifestLoaded, v.ManifestStatus)
	assert.Equal(t, model.PriorityHigh, v.Priority)
	assert.Equal(t, 10, v.Quantity)
	assert.Equal(t, "Odyssey", v.SpacecraftName)
	assert.Equal(t, "Water", v.CargoName)
	assert.Equal(t, "SU-001", v.StorageUnitCode)
	assert.Equal(t, "Jane Doe", v.LoadedByUserName)
	assert.Nil(t, v.UnloadedByUserName)

	active, err := c.ActiveCargo(ctx, 5)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, v.ID, active[0].ID)

	history, err := c.SpacecraftTransactions(ctx, 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Storage: SU-001", history[0].FromLocation)
	assert.Equal(t, "Spacecraft: Odyssey", history[0].ToLocation)

	env, err := c.SpacecraftCapacity(ctx, 5)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(env.CurrentMass))
	assert.True(t, decimal.NewFromInt(280).Equal(env.AvailableMass))
	assert.InDelta(t, 6.67, env.MassUsagePercentage, 1e-9)
}

func TestLoadCargoToSpacecraft_SingleAndBatch(t *testing.T) {
	c, _ := newTestCoordinator(t, Options{})
	ctx := context.Background()

	views, err := c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{
		CargoID:        ptr(int64(1)),
		StorageUnitID:  ptr(int64(1)),
		Quantity:       ptr(1),
		LoadedByUserID: 7,
		CargoItems: []LoadItem{
			{CargoID: 2, StorageUnitID: 2, Quantity: 2, Priority: "CRITICAL"},
			{CargoID: 1, StorageUnitID: 2, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, model.PriorityNormal, views[0].Priority)
	assert.Equal(t, model.PriorityCritical, views[1].Priority)
	assert.Equal(t, model.PriorityNormal, views[2].Priority)

	manifestViews, err := c.SpacecraftManifest(ctx, 5)
	require.NoError(t, err)
	require.Len(t, manifestViews, 3)
	assert.Equal(t, model.PriorityCritical, manifestViews[0].Priority)
}

func TestLoadCargoToSpacecraft_AllOrNothing(t *testing.T) {
	c, gormDB := newTestCoordinator(t, Options{})
	ctx := context.Background()

	testCases := []struct {
		name string
		req  LoadRequest
		want error
	}{
		{"unknown cargo mid-batch", LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{
			{CargoID: 1, StorageUnitID: 1, Quantity: 1},
			{CargoID: 99, StorageUnitID: 1, Quantity: 1},
		}}, errs.ErrEntityNotFound},
		{"unknown storage unit", LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 99, Quantity: 1}}}, errs.ErrEntityNotFound},
		{"unknown user", LoadRequest{LoadedByUserID: 99, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 1, Quantity: 1}}}, errs.ErrEntityNotFound},
		{"zero quantity", LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 1}}}, errs.ErrInvalidQuantity},
		{"nothing to load", LoadRequest{LoadedByUserID: 7}, errs.ErrInvalidQuantity},
		{"unknown priority", LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 1, Quantity: 1, Priority: "URGENT"}}}, errs.ErrInvalidValue},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.LoadCargoToSpacecraft(ctx, 5, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := c.LoadCargoToSpacecraft(ctx, 99, LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 1, Quantity: 1}}})
	assert.EqualError(t, err, "Spacecraft not found with id: 99")

	assert.Zero(t, countRows(t, gormDB, &model.CargoManifest{}))
	assert.Zero(t, countRows(t, gormDB, &model.InventoryTransaction{}))
}

// failingLedger accepts nothing, forcing the surrounding transaction to roll back.
type failingLedger struct {
	ledger.Ledger
}

func (f failingLedger) WithTx(tx *gorm.DB) ledger.Ledger {
	return failingLedger{Ledger: f.Ledger.WithTx(tx)}
}

func (failingLedger) Append(context.Context, ...*model.InventoryTransaction) error {
	return errors.New("ledger unavailable")
}

func TestLoadCargoToSpacecraft_RollsBackOnLedgerFailure(t *testing.T) {
	gormDB := dbtest.SQLite(t)
	dbtest.Seed(t, gormDB)
	c := New(gormDB, LookupsFrom(lookup.NewGormDirectory(gormDB)),
		inventory.NewGormStore(gormDB), manifest.NewGormStore(gormDB),
		failingLedger{Ledger: ledger.NewGormLedger(gormDB)}, Options{})
	ctx := context.Background()

	_, err := c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{
		{CargoID: 1, StorageUnitID: 1, Quantity: 1},
		{CargoID: 2, StorageUnitID: 1, Quantity: 2},
	}})
	assert.EqualError(t, err, "ledger unavailable")
	assert.Zero(t, countRows(t, gormDB, &model.CargoManifest{}))

	_, err = c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 1, CargoID: 1, Quantity: 5})
	assert.Error(t, err)
	assert.Zero(t, countRows(t, gormDB, &model.CargoStorage{}))
}

// Scenario C: two active entries unloaded by user 7.
func TestUnloadCargoFromSpacecraft(t *testing.T) {
	c, gormDB := newTestCoordinator(t, Options{})
	ctx := context.Background()

	_, err := c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{LoadedByUserID: 8, CargoItems: []LoadItem{
		{CargoID: 1, StorageUnitID: 1, Quantity: 10},
		{CargoID: 2, StorageUnitID: 2, Quantity: 20},
	}})
	require.NoError(t, err)

	views, err := c.UnloadCargoFromSpacecraft(ctx, 5, UnloadRequest{UnloadedByUserID: 7})
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, model.ManifestUnloaded, v.ManifestStatus)
		require.NotNil(t, v.UnloadedByUserID)
		assert.Equal(t, int64(7), *v.UnloadedByUserID)
		assert.NotNil(t, v.UnloadedAt)
		require.NotNil(t, v.UnloadedByUserName)
		assert.Equal(t, "Jane Doe", *v.UnloadedByUserName)
		assert.Equal(t, "Richard Roe", v.LoadedByUserName)
	}

	history, err := c.SpacecraftTransactions(ctx, 5)
	require.NoError(t, err)
	unloads := 0
	for _, h := range history {
		if h.TransactionType == model.TransactionUnload {
			unloads++
			assert.Equal(t, "Spacecraft: Odyssey", h.FromLocation)
		}
	}
	assert.Equal(t, 2, unloads)

	active, err := c.ActiveCargo(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Nothing aboard: empty result, nothing written.
	before := countRows(t, gormDB, &model.InventoryTransaction{})
	views, err = c.UnloadCargoFromSpacecraft(ctx, 5, UnloadRequest{UnloadedByUserID: 7})
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Equal(t, before, countRows(t, gormDB, &model.InventoryTransaction{}))
}

func TestUnloadCargoFromSpacecraft_ValidatesEveryReference(t *testing.T) {
	c, gormDB := newTestCoordinator(t, Options{})
	ctx := context.Background()

	_, err := c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{LoadedByUserID: 8, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 1, Quantity: 10}}})
	require.NoError(t, err)

	testCases := []struct {
		name string
		req  UnloadRequest
		msg  string
	}{
		{"unloaded by", UnloadRequest{UnloadedByUserID: 99}, "User not found with id: 99"},
		{"loaded by", UnloadRequest{UnloadedByUserID: 7, LoadedByUserID: ptr(int64(98))}, "User not found with id: 98"},
		{"storage unit", UnloadRequest{UnloadedByUserID: 7, StorageUnitID: ptr(int64(97))}, "Storage unit not found with id: 97"},
		{"cargo", UnloadRequest{UnloadedByUserID: 7, CargoID: ptr(int64(96))}, "Cargo not found with id: 96"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.UnloadCargoFromSpacecraft(ctx, 5, tc.req)
			assert.EqualError(t, err, tc.msg)
		})
	}

	var entry model.CargoManifest
	require.NoError(t, gormDB.First(&entry).Error)
	assert.Equal(t, model.ManifestLoaded, entry.ManifestStatus)
}

func TestAdvanceManifest(t *testing.T) {
	c, _ := newTestCoordinator(t, Options{})
	ctx := context.Background()

	views, err := c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 1, Quantity: 1}}})
	require.NoError(t, err)

	v, err := c.AdvanceManifest(ctx, views[0].ID, model.ManifestInTransit)
	require.NoError(t, err)
	assert.Equal(t, model.ManifestInTransit, v.ManifestStatus)
	assert.Equal(t, "Odyssey", v.SpacecraftName)

	_, err = c.UnloadCargoFromSpacecraft(ctx, 5, UnloadRequest{UnloadedByUserID: 7})
	require.NoError(t, err)

	_, err = c.AdvanceManifest(ctx, views[0].ID, model.ManifestLoaded)
	assert.ErrorIs(t, err, errs.ErrManifestState)

	fetched, err := c.ManifestEntry(ctx, views[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ManifestUnloaded, fetched.ManifestStatus)
	assert.Equal(t, "Odyssey", fetched.SpacecraftName)
	_, err = c.ManifestEntry(ctx, 999)
	assert.ErrorIs(t, err, errs.ErrEntityNotFound)
}

// Scenario D: transfers need a source and a destination.
func TestTransferBetweenStorages(t *testing.T) {
	c, gormDB := newTestCoordinator(t, Options{})
	ctx := context.Background()

	_, err := c.TransferBetweenStorages(ctx, TransferRequest{CargoID: 1, Quantity: 5, PerformedByUserID: 7})
	assert.ErrorIs(t, err, errs.ErrInvalidTransferEndpoints)
	assert.Zero(t, countRows(t, gormDB, &model.InventoryTransaction{}))

	view, err := c.TransferBetweenStorages(ctx, TransferRequest{
		CargoID:           1,
		Quantity:          5,
		FromStorageUnitID: ptr(int64(1)),
		ToSpacecraftID:    ptr(int64(5)),
		PerformedByUserID: 7,
		ReasonCode:        "RESUPPLY",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTransfer, view.TransactionType)
	assert.Equal(t, "Water", view.CargoName)
	assert.Equal(t, "Storage: SU-001", view.FromLocation)
	assert.Equal(t, "Spacecraft: Odyssey", view.ToLocation)
	assert.Equal(t, "Jane Doe", view.PerformedByUserName)
	assert.Equal(t, int64(1), countRows(t, gormDB, &model.InventoryTransaction{}))

	// Transfers touch the ledger only.
	assert.Zero(t, countRows(t, gormDB, &model.CargoStorage{}))

	testCases := []struct {
		name string
		req  TransferRequest
		want error
	}{
		{"no destination", TransferRequest{CargoID: 1, Quantity: 5, FromStorageUnitID: ptr(int64(1)), PerformedByUserID: 7}, errs.ErrInvalidTransferEndpoints},
		{"zero quantity", TransferRequest{CargoID: 1, FromStorageUnitID: ptr(int64(1)), ToStorageUnitID: ptr(int64(2)), PerformedByUserID: 7}, errs.ErrInvalidQuantity},
		{"unknown destination unit", TransferRequest{CargoID: 1, Quantity: 1, FromStorageUnitID: ptr(int64(1)), ToStorageUnitID: ptr(int64(99)), PerformedByUserID: 7}, errs.ErrEntityNotFound},
		{"unknown source craft", TransferRequest{CargoID: 1, Quantity: 1, FromSpacecraftID: ptr(int64(99)), ToStorageUnitID: ptr(int64(1)), PerformedByUserID: 7}, errs.ErrEntityNotFound},
		{"unknown performer", TransferRequest{CargoID: 1, Quantity: 1, FromStorageUnitID: ptr(int64(1)), ToStorageUnitID: ptr(int64(2)), PerformedByUserID: 99}, errs.ErrEntityNotFound},
		{"unknown cargo", TransferRequest{CargoID: 99, Quantity: 1, FromStorageUnitID: ptr(int64(1)), ToStorageUnitID: ptr(int64(2)), PerformedByUserID: 7}, errs.ErrEntityNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.TransferBetweenStorages(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, int64(1), countRows(t, gormDB, &model.InventoryTransaction{}))
}

func TestCapacityEnforcement(t *testing.T) {
	ctx := context.Background()

	t.Run("advisory by default", func(t *testing.T) {
		c, _ := newTestCoordinator(t, Options{})
		// SU-002 holds 100 mass; 60 water weighs 120.
		_, err := c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 2, CargoID: 1, Quantity: 60})
		require.NoError(t, err)

		env, err := c.RecomputeStorageUnit(ctx, 2)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(-20).Equal(env.AvailableMass))
	})

	t.Run("storage unit guard", func(t *testing.T) {
		c, gormDB := newTestCoordinator(t, Options{EnforceCapacity: true})
		_, err := c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 2, CargoID: 1, Quantity: 40})
		require.NoError(t, err)

		_, err = c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 2, CargoID: 1, Quantity: 11})
		assert.ErrorIs(t, err, errs.ErrCapacityExceeded)

		_, err = c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 2, CargoID: 1, Quantity: 10})
		require.NoError(t, err)
		total, err := c.TotalQuantityForStorageUnit(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(50), total)
		assert.Equal(t, int64(2), countRows(t, gormDB, &model.InventoryTransaction{}))
	})

	t.Run("volume bound cargo", func(t *testing.T) {
		c, gormDB := newTestCoordinator(t, Options{EnforceCapacity: true})
		foam := model.Cargo{ID: 3, Name: "Packing Foam", MassPerUnit: decimal.NewFromInt(1), VolumePerUnit: decimal.NewFromInt(10)}
		require.NoError(t, gormDB.Create(&foam).Error)

		// SU-002 holds 50 volume; 6 foam takes 60 while weighing only 6.
		_, err := c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 2, CargoID: 3, Quantity: 6})
		var capErr *errs.CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, "volume", capErr.Resource)
		assert.Equal(t, "60", capErr.Required)
		assert.Equal(t, "50", capErr.Free)

		_, err = c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 2, CargoID: 3, Quantity: 5})
		assert.NoError(t, err)
	})

	t.Run("spacecraft guard", func(t *testing.T) {
		c, gormDB := newTestCoordinator(t, Options{EnforceCapacity: true})
		// Odyssey holds 300 mass; oxygen is 5 per unit.
		_, err := c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{{CargoID: 2, StorageUnitID: 1, Quantity: 60}}})
		require.NoError(t, err)

		_, err = c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 1, Quantity: 1}}})
		var capErr *errs.CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, "mass", capErr.Resource)
		assert.Equal(t, int64(1), countRows(t, gormDB, &model.CargoManifest{}))

		_, err = c.UnloadCargoFromSpacecraft(ctx, 5, UnloadRequest{UnloadedByUserID: 7})
		require.NoError(t, err)
		_, err = c.LoadCargoToSpacecraft(ctx, 5, LoadRequest{LoadedByUserID: 7, CargoItems: []LoadItem{{CargoID: 1, StorageUnitID: 1, Quantity: 1}}})
		assert.NoError(t, err)
	})
}

func TestStorageQueries(t *testing.T) {
	c, _ := newTestCoordinator(t, Options{InventoryCheckMaxAge: time.Hour})
	ctx := context.Background()

	first, err := c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 1, CargoID: 1, Quantity: 10})
	require.NoError(t, err)
	second, err := c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 1, CargoID: 2, Quantity: 4})
	require.NoError(t, err)

	contents, err := c.StorageContents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, contents, 2)

	_, err = c.StorageContents(ctx, 99)
	assert.ErrorIs(t, err, errs.ErrEntityNotFound)

	_, err = c.CorrectQuantity(ctx, second.ID, CorrectQuantityRequest{Quantity: 4})
	require.NoError(t, err)
	due, err := c.InventoryCheckDue(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, first.ID, due[0].ID)

	env, err := c.StorageUnitCapacity(ctx, 1)
	require.NoError(t, err)
	assert.True(t, env.CurrentMass.IsZero(), "materialized totals only change on recompute")

	env, err = c.RecomputeStorageUnit(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40).Equal(env.CurrentMass))
	assert.True(t, decimal.NewFromInt(22).Equal(env.CurrentVolume))
	assert.InDelta(t, 4.0, env.MassUsagePercentage, 1e-9)

	env, err = c.StorageUnitCapacity(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(960).Equal(env.AvailableMass))
}

func TestCriticalPending(t *testing.T) {
	c, gormDB := newTestCoordinator(t, Options{})
	ctx := context.Background()

	pending := model.CargoManifest{SpacecraftID: 5, CargoID: 2, StorageUnitID: 1, Quantity: 3,
		LoadedAt: time.Now().UTC(), LoadedByUserID: 7, ManifestStatus: model.ManifestPending, Priority: model.PriorityCritical}
	require.NoError(t, gormDB.Create(&pending).Error)

	views, err := c.CriticalPending(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Oxygen Canister", views[0].CargoName)

	v, err := c.AdvanceManifest(ctx, pending.ID, model.ManifestLoaded)
	require.NoError(t, err)
	assert.Equal(t, model.ManifestLoaded, v.ManifestStatus)

	views, err = c.CriticalPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestMetricsObserved(t *testing.T) {
	rec := &captureRecorder{calls: map[string][]bool{}}
	c, _ := newTestCoordinator(t, Options{Metrics: rec})
	ctx := context.Background()

	_, err := c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 1, CargoID: 1, Quantity: 1})
	require.NoError(t, err)
	_, err = c.AddCargoToStorage(ctx, AddToStorageRequest{StorageUnitID: 1, CargoID: 1})
	require.Error(t, err)
	_, err = c.TransferBetweenStorages(ctx, TransferRequest{CargoID: 1, Quantity: 1})
	require.Error(t, err)

	assert.Equal(t, []bool{true, false}, rec.calls["add_to_storage"])
	assert.Equal(t, []bool{false}, rec.calls["transfer"])
}

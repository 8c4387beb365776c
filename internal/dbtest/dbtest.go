// Package dbtest opens throwaway databases for package tests.
package dbtest

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cargo-inventory-backend/internal/db"
	"cargo-inventory-backend/internal/model"
)

// SQLite opens a migrated in-memory database private to the test.
func SQLite(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

// Postgres returns a gorm handle backed by sqlmock, speaking the postgres dialect.
func Postgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: conn,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

// Any matches every argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

// Fixture is a small catalogue seeded into a test database.
type Fixture struct {
	Cargo       []model.Cargo
	Units       []model.StorageUnit
	Spacecrafts []model.Spacecraft
	Users       []model.User
}

// Seed inserts two cargo types, two storage units, one spacecraft and two users.
func Seed(t *testing.T, gormDB *gorm.DB) Fixture {
	t.Helper()

	f := Fixture{
		Cargo: []model.Cargo{
			{ID: 1, Name: "Water", MassPerUnit: decimal.NewFromInt(2), VolumePerUnit: decimal.NewFromInt(1)},
			{ID: 2, Name: "Oxygen Canister", MassPerUnit: decimal.NewFromInt(5), VolumePerUnit: decimal.NewFromInt(3)},
		},
		Units: []model.StorageUnit{
			{ID: 1, UnitCode: "SU-001", Location: "Hangar A", TotalMassCapacity: decimal.NewFromInt(1000), TotalVolumeCapacity: decimal.NewFromInt(500)},
			{ID: 2, UnitCode: "SU-002", Location: "Hangar B", TotalMassCapacity: decimal.NewFromInt(100), TotalVolumeCapacity: decimal.NewFromInt(50)},
		},
		Spacecrafts: []model.Spacecraft{
			{ID: 5, RegistryCode: "SC-005", Name: "Odyssey", MassCapacity: decimal.NewFromInt(300), VolumeCapacity: decimal.NewFromInt(200)},
		},
		Users: []model.User{
			{ID: 7, Username: "jdoe", FirstName: "Jane", LastName: "Doe"},
			{ID: 8, Username: "rroe", FirstName: "Richard", LastName: "Roe"},
		},
	}

	require.NoError(t, gormDB.Create(&f.Cargo).Error)
	require.NoError(t, gormDB.Create(&f.Units).Error)
	require.NoError(t, gormDB.Create(&f.Spacecrafts).Error)
	require.NoError(t, gormDB.Create(&f.Users).Error)
	return f
}

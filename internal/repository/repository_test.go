package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "fleet.db")}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Init(context.Background()))
	t.Cleanup(db.Close)
	return db
}

func newTestVehicle(vin, plate string) *entity.Vehicle {
	return &entity.Vehicle{
		VIN:            vin,
		Make:           "Ford",
		Model:          "Transit",
		Year:           2018,
		LicensePlate:   plate,
		PurchaseDate:   time.Date(2018, 3, 15, 0, 0, 0, 0, time.UTC),
		CurrentMileage: 45000,
		Status:         "Active",
	}
}

func TestVehicleCRUD(t *testing.T) {
	db := openTestDB(t)
	repo := NewVehicleRepository(db, nil)
	ctx := context.Background()

	v := newTestVehicle("1ftyr1zm5hkb10739", "abc1234")
	require.NoError(t, repo.Create(ctx, v))
	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, "1FTYR1ZM5HKB10739", v.VIN)

	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.VIN, got.VIN)
	assert.Equal(t, "ABC1234", got.LicensePlate)
	assert.Equal(t, "2018-03-15", got.PurchaseDate.Format("2006-01-02"))
	assert.Nil(t, got.AssignedDriver)

	byVIN, err := repo.GetByVIN(ctx, "1ftyr1zm5hkb10739")
	require.NoError(t, err)
	assert.Equal(t, v.ID, byVIN.ID)

	driver := "Dana Smith"
	got.AssignedDriver = &driver
	got.CurrentMileage = 46000
	got.Status = "In Maintenance"
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedDriver)
	assert.Equal(t, "Dana Smith", *updated.AssignedDriver)
	assert.Equal(t, 46000, updated.CurrentMileage)
	assert.Equal(t, "In Maintenance", updated.Status)

	require.NoError(t, repo.Delete(ctx, v.ID))
	_, err = repo.GetByID(ctx, v.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestVehicleNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewVehicleRepository(db, nil)
	ctx := context.Background()
	missing := uuid.New()

	_, err := repo.GetByID(ctx, missing)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = repo.GetByVIN(ctx, "NOSUCHVIN000000AA")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = repo.Update(ctx, &entity.Vehicle{ID: missing, PurchaseDate: time.Now()})
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = repo.Delete(ctx, missing)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestVehicleDuplicateVIN(t *testing.T) {
	db := openTestDB(t)
	repo := NewVehicleRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestVehicle("1FTYR1ZM5HKB10739", "ABC1234")))
	err := repo.Create(ctx, newTestVehicle("1FTYR1ZM5HKB10739", "XYZ9999"))
	require.Error(t, err)
}

func TestVehicleRosterOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewVehicleRepository(db, nil)
	ctx := context.Background()

	first := newTestVehicle("1FTYR1ZM5HKB10739", "ABC1234")
	first.CreatedAt = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	second := newTestVehicle("4T1B11HK5KU700001", "DEF5678")
	second.Make, second.Model, second.Year = "Toyota", "Camry", 2019
	second.CreatedAt = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	// Insert out of order; the roster must come back in created_at order.
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	refs, err := repo.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "1FTYR1ZM5HKB10739", refs[0].VIN)
	assert.Equal(t, "4T1B11HK5KU700001", refs[1].VIN)
	assert.Equal(t, "2018 Ford Transit", refs[0].Label())
}

func TestBumpMileageOnlyRaises(t *testing.T) {
	db := openTestDB(t)
	repo := NewVehicleRepository(db, nil)
	ctx := context.Background()

	v := newTestVehicle("1FTYR1ZM5HKB10739", "ABC1234")
	require.NoError(t, repo.Create(ctx, v))

	require.NoError(t, repo.BumpMileage(ctx, v.ID, 47500))
	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 47500, got.CurrentMileage)

	// A lower reading must never roll the odometer back.
	require.NoError(t, repo.BumpMileage(ctx, v.ID, 10))
	got, err = repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 47500, got.CurrentMileage)
}

func newTestRecord(vehicleID uuid.UUID, day string, typ string) *entity.MaintenanceRecord {
	d, _ := time.Parse("2006-01-02", day)
	return &entity.MaintenanceRecord{
		VehicleID:        vehicleID,
		MaintenanceType:  typ,
		ServiceDate:      d,
		MileageAtService: 45000,
		Cost:             89.99,
	}
}

func TestMaintenanceRecordCRUD(t *testing.T) {
	db := openTestDB(t)
	vehicles := NewVehicleRepository(db, nil)
	records := NewMaintenanceRecordRepository(db, nil)
	ctx := context.Background()

	v := newTestVehicle("1FTYR1ZM5HKB10739", "ABC1234")
	require.NoError(t, vehicles.Create(ctx, v))

	rec := newTestRecord(v.ID, "2024-06-12", "Oil Change")
	provider := "Quick Lube"
	notes := "5W-30 synthetic"
	due := time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC)
	next := 50000
	rec.ServiceProvider = &provider
	rec.Notes = &notes
	rec.NextServiceDue = &due
	rec.NextServiceMileage = &next
	require.NoError(t, records.Create(ctx, rec))

	got, err := records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.VehicleID)
	assert.Equal(t, "Oil Change", got.MaintenanceType)
	assert.Equal(t, "2024-06-12", got.ServiceDate.Format("2006-01-02"))
	assert.InDelta(t, 89.99, got.Cost, 0.001)
	require.NotNil(t, got.ServiceProvider)
	assert.Equal(t, "Quick Lube", *got.ServiceProvider)
	require.NotNil(t, got.NextServiceDue)
	assert.Equal(t, "2024-12-12", got.NextServiceDue.Format("2006-01-02"))
	require.NotNil(t, got.NextServiceMileage)
	assert.Equal(t, 50000, *got.NextServiceMileage)

	got.Cost = 120
	got.ServiceProvider = nil
	got.NextServiceDue = nil
	got.NextServiceMileage = nil
	require.NoError(t, records.Update(ctx, got))

	updated, err := records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.InDelta(t, 120, updated.Cost, 0.001)
	assert.Nil(t, updated.ServiceProvider)
	assert.Nil(t, updated.NextServiceDue)
	assert.Nil(t, updated.NextServiceMileage)

	require.NoError(t, records.Delete(ctx, rec.ID))
	_, err = records.GetByID(ctx, rec.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestMaintenanceRecordNotFound(t *testing.T) {
	db := openTestDB(t)
	records := NewMaintenanceRecordRepository(db, nil)
	ctx := context.Background()
	missing := uuid.New()

	_, err := records.GetByID(ctx, missing)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = records.Update(ctx, newTestRecord(missing, "2024-06-12", "Oil Change"))
	require.Error(t, err)

	err = records.Delete(ctx, missing)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestMaintenanceRecordListDateRange(t *testing.T) {
	db := openTestDB(t)
	vehicles := NewVehicleRepository(db, nil)
	records := NewMaintenanceRecordRepository(db, nil)
	ctx := context.Background()

	v := newTestVehicle("1FTYR1ZM5HKB10739", "ABC1234")
	require.NoError(t, vehicles.Create(ctx, v))

	for _, day := range []string{"2024-01-10", "2024-03-05", "2024-06-20"} {
		require.NoError(t, records.Create(ctx, newTestRecord(v.ID, day, "Oil Change")))
	}

	all, err := records.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "2024-06-20", all[0].ServiceDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-10", all[2].ServiceDate.Format("2006-01-02"))

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	ranged, err := records.List(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "2024-03-05", ranged[0].ServiceDate.Format("2006-01-02"))

	fromOnly, err := records.List(ctx, &from, nil)
	require.NoError(t, err)
	assert.Len(t, fromOnly, 2)
}

func TestMaintenanceRecordListByVehicle(t *testing.T) {
	db := openTestDB(t)
	vehicles := NewVehicleRepository(db, nil)
	records := NewMaintenanceRecordRepository(db, nil)
	ctx := context.Background()

	a := newTestVehicle("1FTYR1ZM5HKB10739", "ABC1234")
	b := newTestVehicle("4T1B11HK5KU700001", "DEF5678")
	require.NoError(t, vehicles.Create(ctx, a))
	require.NoError(t, vehicles.Create(ctx, b))

	require.NoError(t, records.Create(ctx, newTestRecord(a.ID, "2024-01-10", "Oil Change")))
	require.NoError(t, records.Create(ctx, newTestRecord(a.ID, "2024-03-05", "Tire Rotation")))
	require.NoError(t, records.Create(ctx, newTestRecord(b.ID, "2024-02-01", "Brake Service")))

	forA, err := records.ListByVehicle(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	forB, err := records.ListByVehicle(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, forB, 1)
	assert.Equal(t, "Brake Service", forB[0].MaintenanceType)
}

func TestDeleteVehicleCascadesRecords(t *testing.T) {
	db := openTestDB(t)
	vehicles := NewVehicleRepository(db, nil)
	records := NewMaintenanceRecordRepository(db, nil)
	ctx := context.Background()

	v := newTestVehicle("1FTYR1ZM5HKB10739", "ABC1234")
	require.NoError(t, vehicles.Create(ctx, v))
	require.NoError(t, records.Create(ctx, newTestRecord(v.ID, "2024-01-10", "Oil Change")))

	require.NoError(t, vehicles.Delete(ctx, v.ID))

	left, err := records.ListByVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRebind(t *testing.T) {
	sqlite := &DB{dialect: dialectSQLite}
	pg := &DB{dialect: dialectPostgres}

	q := `SELECT * FROM vehicles WHERE vin = ? AND year = ?`
	assert.Equal(t, q, sqlite.rebind(q))
	assert.Equal(t, `SELECT * FROM vehicles WHERE vin = $1 AND year = $2`, pg.rebind(q))
}

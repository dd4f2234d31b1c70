package repository

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/defectscope/internal/db"
	"github.com/emilianohg/defectscope/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenFile(filepath.Join(t.TempDir(), "cache.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func strp(s string) *string { return &s }

func TestMigrateIsIdempotent(t *testing.T) {
	database := openTestDB(t)
	// Re-running schema creation against an up-to-date database is a
	// no-op, never an error.
	require.NoError(t, db.Migrate(database))
}

func TestVehicleGetOrCreateNormalizesCase(t *testing.T) {
	database := openTestDB(t)
	repo := NewVehicleRepo(database)

	v1, err := repo.GetOrCreate("honda", "accord", 2021)
	require.NoError(t, err)
	assert.Equal(t, "HONDA", v1.Make)
	assert.Equal(t, "ACCORD", v1.Model)
	assert.Equal(t, 2021, v1.Year)

	// Any casing resolves to the same identity; attributes are never
	// updated after first creation.
	v2, err := repo.GetOrCreate("Honda", "Accord", 2021)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, v2.ID)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM vehicles").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestVehicleGetMissing(t *testing.T) {
	database := openTestDB(t)
	repo := NewVehicleRepo(database)

	v, err := repo.Get("HONDA", "ACCORD", 2021)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestVehicleGetOrCreateConcurrent(t *testing.T) {
	database := openTestDB(t)
	repo := NewVehicleRepo(database)

	// Two callers racing on the same new triple: the store's UNIQUE
	// constraint decides the winner and the loser re-reads.
	const racers = 2
	results := make([]*models.Vehicle, racers)
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.GetOrCreate("honda", "accord", 2021)
		}(i)
	}
	wg.Wait()

	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
	}
	assert.Equal(t, results[0].ID, results[1].ID)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM vehicles").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestComplaintInsertRoundTrip(t *testing.T) {
	database := openTestDB(t)
	vehicle, err := NewVehicleRepo(database).GetOrCreate("HONDA", "ACCORD", 2021)
	require.NoError(t, err)

	repo := NewComplaintRepo(database)

	crash := true
	injuries := 2
	filed := time.Date(2021, 4, 17, 0, 0, 0, 0, time.UTC)

	outcome, err := repo.Insert(&models.Complaint{
		VehicleID:          vehicle.ID,
		ODINumber:          "11543210",
		Manufacturer:       strp("Honda (American Honda Motor Co.)"),
		Crash:              &crash,
		NumberOfInjuries:   &injuries,
		DateComplaintFiled: &filed,
		Components:         strp("ENGINE, FUEL SYSTEM"),
		Summary:            strp("engine stalled at highway speed"),
	})
	require.NoError(t, err)
	assert.Equal(t, Inserted, outcome)

	got, err := repo.GetByODINumber("11543210")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, vehicle.ID, got.VehicleID)
	require.NotNil(t, got.Crash)
	assert.True(t, *got.Crash)
	assert.Nil(t, got.Fire, "absent flag stays unknown")
	require.NotNil(t, got.NumberOfInjuries)
	assert.Equal(t, 2, *got.NumberOfInjuries)
	assert.Nil(t, got.NumberOfDeaths)
	require.NotNil(t, got.DateComplaintFiled)
	assert.Equal(t, filed.Year(), got.DateComplaintFiled.Year())
	assert.Equal(t, filed.Month(), got.DateComplaintFiled.Month())
	assert.Equal(t, filed.Day(), got.DateComplaintFiled.Day())
	assert.Nil(t, got.DateOfIncident)
	require.NotNil(t, got.Components)
	assert.Equal(t, "ENGINE, FUEL SYSTEM", *got.Components)
}

func TestComplaintODINumberIsGloballyUnique(t *testing.T) {
	database := openTestDB(t)
	vehicleRepo := NewVehicleRepo(database)
	repo := NewComplaintRepo(database)

	v1, err := vehicleRepo.GetOrCreate("HONDA", "ACCORD", 2021)
	require.NoError(t, err)
	v2, err := vehicleRepo.GetOrCreate("HONDA", "ACCORD", 2022)
	require.NoError(t, err)

	outcome, err := repo.Insert(&models.Complaint{VehicleID: v1.ID, ODINumber: "11543210"})
	require.NoError(t, err)
	assert.Equal(t, Inserted, outcome)

	// Same vehicle: duplicate.
	outcome, err = repo.Insert(&models.Complaint{VehicleID: v1.ID, ODINumber: "11543210"})
	require.NoError(t, err)
	assert.Equal(t, Duplicate, outcome)

	// Different vehicle, same ODI number: still a duplicate. The ODI
	// number is unique across the whole store, not per vehicle.
	outcome, err = repo.Insert(&models.Complaint{VehicleID: v2.ID, ODINumber: "11543210"})
	require.NoError(t, err)
	assert.Equal(t, Duplicate, outcome)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM complaints").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRecallCampaignUniquePerVehicle(t *testing.T) {
	database := openTestDB(t)
	vehicleRepo := NewVehicleRepo(database)
	repo := NewRecallRepo(database)

	v1, err := vehicleRepo.GetOrCreate("HONDA", "ACCORD", 2021)
	require.NoError(t, err)
	v2, err := vehicleRepo.GetOrCreate("HONDA", "ACCORD", 2022)
	require.NoError(t, err)

	outcome, err := repo.Insert(&models.Recall{VehicleID: v1.ID, CampaignNumber: "21V123000"})
	require.NoError(t, err)
	assert.Equal(t, Inserted, outcome)

	outcome, err = repo.Insert(&models.Recall{VehicleID: v1.ID, CampaignNumber: "21V123000"})
	require.NoError(t, err)
	assert.Equal(t, Duplicate, outcome)

	// The same campaign under another model-year is a distinct row.
	outcome, err = repo.Insert(&models.Recall{VehicleID: v2.ID, CampaignNumber: "21V123000"})
	require.NoError(t, err)
	assert.Equal(t, Inserted, outcome)
}

func TestRecallsOrderedByReportDate(t *testing.T) {
	database := openTestDB(t)
	vehicle, err := NewVehicleRepo(database).GetOrCreate("HONDA", "ACCORD", 2021)
	require.NoError(t, err)

	repo := NewRecallRepo(database)
	older := time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, rec := range []*models.Recall{
		{VehicleID: vehicle.ID, CampaignNumber: "NODATE"},
		{VehicleID: vehicle.ID, CampaignNumber: "OLD", ReportReceivedDate: &older},
		{VehicleID: vehicle.ID, CampaignNumber: "NEW", ReportReceivedDate: &newer},
	} {
		_, err := repo.Insert(rec)
		require.NoError(t, err)
	}

	recalls, err := repo.GetByVehicleID(vehicle.ID)
	require.NoError(t, err)
	require.Len(t, recalls, 3)
	assert.Equal(t, "NEW", recalls[0].CampaignNumber)
	assert.Equal(t, "OLD", recalls[1].CampaignNumber)
	assert.Equal(t, "NODATE", recalls[2].CampaignNumber, "undated campaigns sort last")
}

func TestVehicleDeleteCascades(t *testing.T) {
	database := openTestDB(t)
	vehicle, err := NewVehicleRepo(database).GetOrCreate("HONDA", "ACCORD", 2021)
	require.NoError(t, err)

	_, err = NewComplaintRepo(database).Insert(&models.Complaint{VehicleID: vehicle.ID, ODINumber: "1"})
	require.NoError(t, err)
	_, err = NewRecallRepo(database).Insert(&models.Recall{VehicleID: vehicle.ID, CampaignNumber: "21V123000"})
	require.NoError(t, err)

	require.NoError(t, NewVehicleRepo(database).Delete(vehicle.ID))

	var complaints, recalls int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM complaints").Scan(&complaints))
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM recalls").Scan(&recalls))
	assert.Equal(t, 0, complaints)
	assert.Equal(t, 0, recalls)
}

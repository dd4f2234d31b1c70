package queries

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/defectscope/internal/db"
	"github.com/emilianohg/defectscope/internal/models"
	"github.com/emilianohg/defectscope/internal/repository"
)

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }
func intp(n int) *int       { return &n }
func datep(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// seedVehicle loads a vehicle with a small, varied complaint set:
// unknown flags and counts, missing dates, mixed components.
func seedVehicle(t *testing.T) (*sql.DB, *models.Vehicle) {
	t.Helper()

	database, err := db.OpenFile(filepath.Join(t.TempDir(), "cache.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))

	vehicle, err := repository.NewVehicleRepo(database).GetOrCreate("HONDA", "ACCORD", 2021)
	require.NoError(t, err)

	complaints := repository.NewComplaintRepo(database)
	seed := []*models.Complaint{
		{
			ODINumber: "1", Crash: boolp(true), Fire: boolp(false),
			NumberOfInjuries: intp(2), DateComplaintFiled: datep(2021, 3, 5),
			Components: strp("POWER TRAIN"), Summary: strp("Transmission slipping on the highway"),
		},
		{
			ODINumber: "2", Crash: boolp(false),
			DateComplaintFiled: datep(2021, 3, 20),
			Components:         strp("POWER TRAIN"), Summary: strp("harsh shifting and jerking"),
		},
		{
			ODINumber: "3", Fire: boolp(true), NumberOfDeaths: intp(1),
			DateComplaintFiled: datep(2021, 5, 2),
			Components:         strp("ENGINE"), Summary: strp("engine fire after stalling"),
		},
		{
			// Unknown everything: flags and counts are NULL, no dates.
			ODINumber: "4", Summary: strp("TRANSMISSION hesitates from a stop"),
		},
	}
	for _, c := range seed {
		c.VehicleID = vehicle.ID
		outcome, err := complaints.Insert(c)
		require.NoError(t, err)
		require.Equal(t, repository.Inserted, outcome)
	}

	recalls := repository.NewRecallRepo(database)
	for _, campaign := range []string{"21V123000", "22V456000"} {
		_, err := recalls.Insert(&models.Recall{VehicleID: vehicle.ID, CampaignNumber: campaign})
		require.NoError(t, err)
	}

	return database, vehicle
}

func TestCounts(t *testing.T) {
	database, vehicle := seedVehicle(t)
	q := New(database)

	complaints, err := q.ComplaintCount(vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, complaints)

	recalls, err := q.RecallCount(vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, recalls)
}

func TestSeverityTreatsUnknownAsZero(t *testing.T) {
	database, vehicle := seedVehicle(t)

	s, err := New(database).Severity(vehicle.ID)
	require.NoError(t, err)

	// NULL flags and counts collapse to zero here, not in storage.
	assert.Equal(t, 1, s.Crashes)
	assert.Equal(t, 1, s.Fires)
	assert.Equal(t, 2, s.Injuries)
	assert.Equal(t, 1, s.Deaths)
}

func TestSeverityEmptyVehicle(t *testing.T) {
	database, _ := seedVehicle(t)

	other, err := repository.NewVehicleRepo(database).GetOrCreate("TOYOTA", "CAMRY", 2020)
	require.NoError(t, err)

	s, err := New(database).Severity(other.ID)
	require.NoError(t, err)
	assert.Zero(t, s.Crashes)
	assert.Zero(t, s.Fires)
	assert.Zero(t, s.Injuries)
	assert.Zero(t, s.Deaths)
}

func TestTopComponents(t *testing.T) {
	database, vehicle := seedVehicle(t)

	top, err := New(database).TopComponents(vehicle.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, top)

	assert.Equal(t, "POWER TRAIN", top[0].Components)
	assert.Equal(t, 2, top[0].Count)

	// Complaints without a components label group under a placeholder.
	var labels []string
	for _, cc := range top {
		labels = append(labels, cc.Components)
	}
	assert.Contains(t, labels, "(unknown)")
}

func TestComplaintsOverTimeBucketsByMonth(t *testing.T) {
	database, vehicle := seedVehicle(t)

	trend, err := New(database).ComplaintsOverTime(vehicle.ID)
	require.NoError(t, err)

	// The undated complaint is excluded; the rest bucket by YYYY-MM.
	require.Len(t, trend, 2)
	assert.Equal(t, "2021-03", trend[0].Month)
	assert.Equal(t, 2, trend[0].Count)
	assert.Equal(t, "2021-05", trend[1].Month)
	assert.Equal(t, 1, trend[1].Count)
}

func TestSearchBySymptomIsCaseInsensitive(t *testing.T) {
	database, vehicle := seedVehicle(t)
	q := New(database)

	hits, err := q.SearchBySymptom(vehicle.ID, "TRANSMISSION", 50)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Dated hits first (newest), undated last.
	assert.Equal(t, "1", hits[0].ODINumber)
	assert.Equal(t, "4", hits[1].ODINumber)

	// Component text matches too, not just summaries.
	hits, err = q.SearchBySymptom(vehicle.ID, "power train", 50)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	// Limit applies.
	hits, err = q.SearchBySymptom(vehicle.ID, "transmission", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchScopedToVehicle(t *testing.T) {
	database, _ := seedVehicle(t)

	other, err := repository.NewVehicleRepo(database).GetOrCreate("TOYOTA", "CAMRY", 2020)
	require.NoError(t, err)

	hits, err := New(database).SearchBySymptom(other.ID, "transmission", 50)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

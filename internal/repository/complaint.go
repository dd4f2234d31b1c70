package repository

import (
	"database/sql"

	"github.com/emilianohg/defectscope/internal/models"
)

type ComplaintRepo struct {
	db *sql.DB
}

func NewComplaintRepo(db *sql.DB) *ComplaintRepo {
	return &ComplaintRepo{db: db}
}

// Insert stores a complaint, deduped globally by ODI number. A
// duplicate is reported as an outcome, not an error: it is how repeated
// ingestion stays idempotent.
func (r *ComplaintRepo) Insert(c *models.Complaint) (InsertOutcome, error) {
	_, err := r.db.Exec(`
		INSERT INTO complaints (
			vehicle_id, odi_number, manufacturer, crash, fire,
			number_of_injuries, number_of_deaths,
			date_of_incident, date_complaint_filed,
			vin, components, summary, products
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.VehicleID, c.ODINumber, c.Manufacturer, c.Crash, c.Fire,
		c.NumberOfInjuries, c.NumberOfDeaths,
		c.DateOfIncident, c.DateComplaintFiled,
		c.VIN, c.Components, c.Summary, c.Products,
	)
	if isUniqueViolation(err) {
		return Duplicate, nil
	}
	if err != nil {
		return 0, err
	}
	return Inserted, nil
}

// GetByODINumber looks a complaint up by its global identifier. Returns
// nil without error when absent.
func (r *ComplaintRepo) GetByODINumber(odi string) (*models.Complaint, error) {
	row := r.db.QueryRow(selectComplaint+" WHERE odi_number = ?", odi)
	c, err := scanComplaint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByVehicleID returns all complaints for a vehicle, most recently
// filed first with undated records last.
func (r *ComplaintRepo) GetByVehicleID(vehicleID int64) ([]models.Complaint, error) {
	rows, err := r.db.Query(
		selectComplaint+`
		WHERE vehicle_id = ?
		ORDER BY date_complaint_filed IS NULL, date_complaint_filed DESC
	`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}

const selectComplaint = `
	SELECT id, vehicle_id, odi_number, manufacturer, crash, fire,
	       number_of_injuries, number_of_deaths,
	       date_of_incident, date_complaint_filed,
	       vin, components, summary, products, created_at
	FROM complaints`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	var manufacturer, vin, components, summary, products sql.NullString
	var crash, fire sql.NullBool
	var injuries, deaths sql.NullInt64
	var incident, filed sql.NullTime

	if err := row.Scan(
		&c.ID, &c.VehicleID, &c.ODINumber, &manufacturer, &crash, &fire,
		&injuries, &deaths, &incident, &filed,
		&vin, &components, &summary, &products, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	c.Manufacturer = strPtr(manufacturer)
	c.Crash = boolPtr(crash)
	c.Fire = boolPtr(fire)
	c.NumberOfInjuries = intPtr(injuries)
	c.NumberOfDeaths = intPtr(deaths)
	c.DateOfIncident = timePtr(incident)
	c.DateComplaintFiled = timePtr(filed)
	c.VIN = strPtr(vin)
	c.Components = strPtr(components)
	c.Summary = strPtr(summary)
	c.Products = strPtr(products)

	return &c, nil
}

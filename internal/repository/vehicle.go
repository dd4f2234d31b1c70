package repository

import (
	"database/sql"
	"strings"

	"github.com/emilianohg/defectscope/internal/models"
)

type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

// GetOrCreate resolves a (make, model, year) triple to its canonical
// row, creating one on first sight. Make and model are uppercased
// before lookup or insert. Two callers racing on the same new triple
// are resolved by the UNIQUE constraint: the loser re-reads the row the
// winner created.
func (r *VehicleRepo) GetOrCreate(make, model string, year int) (*models.Vehicle, error) {
	make = strings.ToUpper(make)
	model = strings.ToUpper(model)

	v, err := r.Get(make, model, year)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}

	v, err = r.create(make, model, year)
	if isUniqueViolation(err) {
		// Lost the creation race; the row exists now.
		return r.Get(make, model, year)
	}
	return v, err
}

// Get looks up a vehicle by exact (normalized) triple. Returns nil
// without error when the vehicle has not been ingested yet.
func (r *VehicleRepo) Get(make, model string, year int) (*models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.QueryRow(`
		SELECT id, make, model, year, created_at
		FROM vehicles
		WHERE make = ? AND model = ? AND year = ?
	`, strings.ToUpper(make), strings.ToUpper(model), year).Scan(
		&v.ID, &v.Make, &v.Model, &v.Year, &v.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &v, nil
}

func (r *VehicleRepo) GetByID(id int64) (*models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.QueryRow(`
		SELECT id, make, model, year, created_at
		FROM vehicles
		WHERE id = ?
	`, id).Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &v, nil
}

func (r *VehicleRepo) GetAll() ([]models.Vehicle, error) {
	rows, err := r.db.Query(`
		SELECT id, make, model, year, created_at
		FROM vehicles
		ORDER BY make, model, year
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// Delete removes a vehicle; its complaints and recalls go with it via
// foreign key cascade. Not part of normal operation, kept for local
// cleanup.
func (r *VehicleRepo) Delete(id int64) error {
	_, err := r.db.Exec("DELETE FROM vehicles WHERE id = ?", id)
	return err
}

func (r *VehicleRepo) create(make, model string, year int) (*models.Vehicle, error) {
	result, err := r.db.Exec(
		"INSERT INTO vehicles (make, model, year) VALUES (?, ?, ?)",
		make, model, year,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

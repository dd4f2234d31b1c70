package repository

import (
	"database/sql"

	"github.com/emilianohg/defectscope/internal/models"
)

type RecallRepo struct {
	db *sql.DB
}

func NewRecallRepo(db *sql.DB) *RecallRepo {
	return &RecallRepo{db: db}
}

// Insert stores a recall campaign, deduped by (vehicle, campaign
// number). A duplicate campaign for the same vehicle is reported as an
// outcome, not an error.
func (r *RecallRepo) Insert(rec *models.Recall) (InsertOutcome, error) {
	_, err := r.db.Exec(`
		INSERT INTO recalls (
			vehicle_id, campaign_number, recall_number,
			report_received_date, component, summary,
			consequence, remedy, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.VehicleID, rec.CampaignNumber, rec.RecallNumber,
		rec.ReportReceivedDate, rec.Component, rec.Summary,
		rec.Consequence, rec.Remedy, rec.Notes,
	)
	if isUniqueViolation(err) {
		return Duplicate, nil
	}
	if err != nil {
		return 0, err
	}
	return Inserted, nil
}

// GetByVehicleID returns all recall campaigns for a vehicle, most
// recent report first with undated campaigns last.
func (r *RecallRepo) GetByVehicleID(vehicleID int64) ([]models.Recall, error) {
	rows, err := r.db.Query(`
		SELECT id, vehicle_id, campaign_number, recall_number,
		       report_received_date, component, summary,
		       consequence, remedy, notes, created_at
		FROM recalls
		WHERE vehicle_id = ?
		ORDER BY report_received_date IS NULL, report_received_date DESC
	`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recalls []models.Recall
	for rows.Next() {
		var rec models.Recall
		var recallNumber, component, summary, consequence, remedy, notes sql.NullString
		var received sql.NullTime

		if err := rows.Scan(
			&rec.ID, &rec.VehicleID, &rec.CampaignNumber, &recallNumber,
			&received, &component, &summary,
			&consequence, &remedy, &notes, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		rec.RecallNumber = strPtr(recallNumber)
		rec.ReportReceivedDate = timePtr(received)
		rec.Component = strPtr(component)
		rec.Summary = strPtr(summary)
		rec.Consequence = strPtr(consequence)
		rec.Remedy = strPtr(remedy)
		rec.Notes = strPtr(notes)

		recalls = append(recalls, rec)
	}
	return recalls, rows.Err()
}

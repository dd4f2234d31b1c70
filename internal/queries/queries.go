// Package queries holds the read-only aggregations the dashboard and
// CLI render. Everything here is a projection over the local cache;
// nothing writes.
package queries

import (
	"database/sql"
	"time"
)

type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

func (q *Queries) ComplaintCount(vehicleID int64) (int, error) {
	var count int
	err := q.db.QueryRow(
		"SELECT COUNT(*) FROM complaints WHERE vehicle_id = ?", vehicleID,
	).Scan(&count)
	return count, err
}

func (q *Queries) RecallCount(vehicleID int64) (int, error) {
	var count int
	err := q.db.QueryRow(
		"SELECT COUNT(*) FROM recalls WHERE vehicle_id = ?", vehicleID,
	).Scan(&count)
	return count, err
}

// SeveritySummary aggregates the case-strength signals across a
// vehicle's complaints. Unknown flags and counts collapse to zero here,
// at aggregation time, never in storage.
type SeveritySummary struct {
	Crashes  int
	Fires    int
	Injuries int
	Deaths   int
}

func (q *Queries) Severity(vehicleID int64) (*SeveritySummary, error) {
	var s SeveritySummary
	err := q.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN crash = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN fire = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(COALESCE(number_of_injuries, 0)), 0),
			COALESCE(SUM(COALESCE(number_of_deaths, 0)), 0)
		FROM complaints
		WHERE vehicle_id = ?
	`, vehicleID).Scan(&s.Crashes, &s.Fires, &s.Injuries, &s.Deaths)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ComponentCount is one row of the most-reported-components ranking.
// Components stays the stored display string, so grouping is by the
// whole string rather than individual component names.
type ComponentCount struct {
	Components string
	Count      int
}

func (q *Queries) TopComponents(vehicleID int64, limit int) ([]ComponentCount, error) {
	rows, err := q.db.Query(`
		SELECT COALESCE(components, '(unknown)'), COUNT(*) AS n
		FROM complaints
		WHERE vehicle_id = ?
		GROUP BY components
		ORDER BY n DESC
		LIMIT ?
	`, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ComponentCount
	for rows.Next() {
		var cc ComponentCount
		if err := rows.Scan(&cc.Components, &cc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

// MonthCount is complaint volume for one YYYY-MM bucket.
type MonthCount struct {
	Month string
	Count int
}

// ComplaintsOverTime buckets complaint volume by filing month. Records
// without a filed date are excluded; a spike here is an early signal of
// a systemic defect.
func (q *Queries) ComplaintsOverTime(vehicleID int64) ([]MonthCount, error) {
	rows, err := q.db.Query(`
		SELECT strftime('%Y-%m', date_complaint_filed) AS ym, COUNT(*)
		FROM complaints
		WHERE vehicle_id = ? AND date_complaint_filed IS NOT NULL
		GROUP BY ym
		ORDER BY ym
	`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []MonthCount
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, mc)
	}
	return counts, rows.Err()
}

// SymptomHit is one complaint matched by a symptom search.
type SymptomHit struct {
	ODINumber          string
	DateComplaintFiled *time.Time
	Components         *string
	Summary            *string
}

// SearchBySymptom finds complaints whose summary or components mention
// the given text, case-insensitively. Substring matching only; this is
// deliberately not full-text search.
func (q *Queries) SearchBySymptom(vehicleID int64, text string, limit int) ([]SymptomHit, error) {
	pattern := "%" + text + "%"
	rows, err := q.db.Query(`
		SELECT odi_number, date_complaint_filed, components, summary
		FROM complaints
		WHERE vehicle_id = ?
		  AND (LOWER(summary) LIKE LOWER(?) OR LOWER(components) LIKE LOWER(?))
		ORDER BY date_complaint_filed IS NULL, date_complaint_filed DESC
		LIMIT ?
	`, vehicleID, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SymptomHit
	for rows.Next() {
		var h SymptomHit
		var filed sql.NullTime
		var components, summary sql.NullString
		if err := rows.Scan(&h.ODINumber, &filed, &components, &summary); err != nil {
			return nil, err
		}
		if filed.Valid {
			h.DateComplaintFiled = &filed.Time
		}
		if components.Valid {
			h.Components = &components.String
		}
		if summary.Valid {
			h.Summary = &summary.String
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

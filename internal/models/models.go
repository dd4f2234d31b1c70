package models

import "time"

// Vehicle is the dimension everything else hangs off: one row per
// (make, model, year). Make and model are stored uppercase so lookups
// are stable regardless of how the user typed them.
type Vehicle struct {
	ID        int64
	Make      string
	Model     string
	Year      int
	CreatedAt time.Time
}

// Complaint is a single consumer-filed safety report from the ODI
// complaints database, deduped globally by ODINumber.
type Complaint struct {
	ID        int64
	VehicleID int64
	ODINumber string

	Manufacturer *string

	// Severity signals. nil means the upstream record didn't say.
	Crash            *bool
	Fire             *bool
	NumberOfInjuries *int
	NumberOfDeaths   *int

	DateOfIncident     *time.Time
	DateComplaintFiled *time.Time

	VIN *string

	// Components is a display string; upstream sends either a scalar or a
	// list, which gets joined with ", ".
	Components *string
	Summary    *string

	// Products can be a list or object upstream; stored as JSON text.
	Products *string

	CreatedAt time.Time
}

// Recall is a safety recall campaign, deduped per vehicle by campaign
// number. The same campaign can legitimately appear under several
// model-year rows.
type Recall struct {
	ID             int64
	VehicleID      int64
	CampaignNumber string

	RecallNumber       *string
	ReportReceivedDate *time.Time
	Component          *string
	Summary            *string
	Consequence        *string
	Remedy             *string
	Notes              *string

	CreatedAt time.Time
}

// Package ingest pulls complaint and recall data from NHTSA into the
// local cache. The pipeline is idempotent: re-running it against an
// unchanged upstream leaves the cache identical and reports zero new
// insertions, with the schema's uniqueness constraints as the source of
// truth for what already exists.
package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emilianohg/defectscope/internal/db"
	"github.com/emilianohg/defectscope/internal/models"
	"github.com/emilianohg/defectscope/internal/nhtsa"
	"github.com/emilianohg/defectscope/internal/repository"
)

// Source provides the external NHTSA fetches the pipeline consumes.
// *nhtsa.Client satisfies it.
type Source interface {
	FetchComplaints(ctx context.Context, make, model string, year int) (*nhtsa.VehicleResponse, error)
	FetchRecalls(ctx context.Context, make, model string, year int) (*nhtsa.VehicleResponse, error)
	DecodeVIN(ctx context.Context, rawVIN string) (*nhtsa.DecodedVIN, error)
}

// VehicleStore resolves vehicle identities.
type VehicleStore interface {
	GetOrCreate(make, model string, year int) (*models.Vehicle, error)
}

// ComplaintStore accepts dedup-inserts of normalized complaints.
type ComplaintStore interface {
	Insert(c *models.Complaint) (repository.InsertOutcome, error)
}

// RecallStore accepts dedup-inserts of normalized recalls.
type RecallStore interface {
	Insert(r *models.Recall) (repository.InsertOutcome, error)
}

// Result reports what one ingestion run added to the cache. Duplicate
// records skipped by constraint are not counted.
type Result struct {
	Vehicle       *models.Vehicle
	NewComplaints int
	NewRecalls    int
}

// Pipeline is the single ingestion path, whether input arrives as a
// make/model/year triple or a VIN.
type Pipeline struct {
	source     Source
	vehicles   VehicleStore
	complaints ComplaintStore
	recalls    RecallStore

	// ensureSchema runs before any write; nil when the caller already
	// guarantees the schema (as fake-store tests do).
	ensureSchema func() error
}

// New builds a pipeline over explicit stores.
func New(source Source, vehicles VehicleStore, complaints ComplaintStore, recalls RecallStore) *Pipeline {
	return &Pipeline{
		source:     source,
		vehicles:   vehicles,
		complaints: complaints,
		recalls:    recalls,
	}
}

// NewWithDB wires a pipeline to the SQLite repositories over database,
// ensuring the schema exists on first ingest.
func NewWithDB(database *sql.DB, source Source) *Pipeline {
	p := New(
		source,
		repository.NewVehicleRepo(database),
		repository.NewComplaintRepo(database),
		repository.NewRecallRepo(database),
	)
	p.ensureSchema = func() error { return db.Migrate(database) }
	return p
}

// Ingest fetches and caches complaints and recalls for a
// make/model/year. Per-record problems (no identifier, already cached)
// are silently skipped; a failed upstream fetch is fatal for this call,
// leaving whatever was already inserted committed.
func (p *Pipeline) Ingest(ctx context.Context, make, model string, year int) (*Result, error) {
	if p.ensureSchema != nil {
		if err := p.ensureSchema(); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	vehicle, err := p.vehicles.GetOrCreate(make, model, year)
	if err != nil {
		return nil, fmt.Errorf("resolve vehicle: %w", err)
	}

	result := &Result{Vehicle: vehicle}

	complaintsResp, err := p.source.FetchComplaints(ctx, make, model, year)
	if err != nil {
		return nil, err
	}
	result.NewComplaints, err = p.ingestComplaints(vehicle.ID, complaintsResp)
	if err != nil {
		return nil, err
	}

	recallsResp, err := p.source.FetchRecalls(ctx, make, model, year)
	if err != nil {
		return nil, err
	}
	result.NewRecalls, err = p.ingestRecalls(vehicle.ID, recallsResp)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// IngestVIN decodes a VIN and runs the regular pipeline on the decoded
// triple, so VIN input and manual input share one code path. A decode
// failure aborts before any fetch or cache write.
func (p *Pipeline) IngestVIN(ctx context.Context, rawVIN string) (*nhtsa.DecodedVIN, *Result, error) {
	decoded, err := p.source.DecodeVIN(ctx, rawVIN)
	if err != nil {
		return nil, nil, err
	}

	result, err := p.Ingest(ctx, decoded.Make, decoded.Model, decoded.Year)
	if err != nil {
		return decoded, nil, err
	}
	return decoded, result, nil
}

func (p *Pipeline) ingestComplaints(vehicleID int64, resp *nhtsa.VehicleResponse) (int, error) {
	inserted := 0
	for _, raw := range resp.Results {
		c, ok := nhtsa.NormalizeComplaint(raw)
		if !ok {
			continue
		}
		c.VehicleID = vehicleID

		outcome, err := p.complaints.Insert(c)
		if err != nil {
			return inserted, fmt.Errorf("insert complaint %s: %w", c.ODINumber, err)
		}
		if outcome == repository.Inserted {
			inserted++
		}
	}
	return inserted, nil
}

func (p *Pipeline) ingestRecalls(vehicleID int64, resp *nhtsa.VehicleResponse) (int, error) {
	inserted := 0
	for _, raw := range resp.Results {
		rec, ok := nhtsa.NormalizeRecall(raw)
		if !ok {
			continue
		}
		rec.VehicleID = vehicleID

		outcome, err := p.recalls.Insert(rec)
		if err != nil {
			return inserted, fmt.Errorf("insert recall %s: %w", rec.CampaignNumber, err)
		}
		if outcome == repository.Inserted {
			inserted++
		}
	}
	return inserted, nil
}

// Package nhtsa talks to the public NHTSA APIs (ODI complaints, recall
// campaigns, vPIC VIN decoding) and normalizes their loosely-typed JSON
// payloads into the local record shapes.
package nhtsa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/emilianohg/defectscope/internal/config"
)

// Client performs blocking fetches against the NHTSA endpoints. Every
// call gets one attempt with a fixed timeout; retry policy belongs to
// the caller, not here.
type Client struct {
	httpClient    *http.Client
	complaintsURL string
	recallsURL    string
	vinDecoderURL string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		complaintsURL: cfg.ComplaintsURL,
		recallsURL:    cfg.RecallsURL,
		vinDecoderURL: cfg.VinDecoderURL,
	}
}

// VehicleResponse is the common envelope of the complaints and recalls
// endpoints. Results stay loosely typed: field names and value types
// vary between payloads, so normalization handles them per record.
type VehicleResponse struct {
	Count   int              `json:"count"`
	Message string           `json:"message"`
	Results []map[string]any `json:"results"`
}

// DecodedVIN is a successfully decoded and validated VIN.
type DecodedVIN struct {
	VIN   string
	Make  string
	Model string
	Year  int
}

// FetchComplaints retrieves all ODI complaints filed for a
// make/model/year from the complaintsByVehicle endpoint.
func (c *Client) FetchComplaints(ctx context.Context, make, model string, year int) (*VehicleResponse, error) {
	var resp VehicleResponse
	params := url.Values{
		"make":      {make},
		"model":     {model},
		"modelYear": {strconv.Itoa(year)},
	}
	if err := c.getJSON(ctx, c.complaintsURL, params, &resp); err != nil {
		return nil, fmt.Errorf("fetch complaints: %w", err)
	}
	return &resp, nil
}

// FetchRecalls retrieves recall campaigns for a make/model/year from
// the recallsByVehicle endpoint. NHTSA's model naming can be strict, so
// a decoded model string is not guaranteed to match.
func (c *Client) FetchRecalls(ctx context.Context, make, model string, year int) (*VehicleResponse, error) {
	var resp VehicleResponse
	params := url.Values{
		"make":      {make},
		"model":     {model},
		"modelYear": {strconv.Itoa(year)},
	}
	if err := c.getJSON(ctx, c.recallsURL, params, &resp); err != nil {
		return nil, fmt.Errorf("fetch recalls: %w", err)
	}
	return &resp, nil
}

type vinDecodeResponse struct {
	Results []struct {
		Make      string `json:"Make"`
		Model     string `json:"Model"`
		ModelYear string `json:"ModelYear"`
	} `json:"Results"`
}

// DecodeVIN decodes a VIN via vPIC into a make/model/year triple. The
// VIN is trimmed and uppercased first; anything that is not 17
// characters is rejected before any network call. Decoding is
// side-effect-free: nothing is written to the cache here.
func (c *Client) DecodeVIN(ctx context.Context, rawVIN string) (*DecodedVIN, error) {
	vin := strings.ToUpper(strings.TrimSpace(rawVIN))
	if len(vin) != 17 {
		return nil, fmt.Errorf("VIN must be exactly 17 characters (got %d)", len(vin))
	}

	var resp vinDecodeResponse
	params := url.Values{"format": {"json"}}
	if err := c.getJSON(ctx, c.vinDecoderURL+"/"+vin, params, &resp); err != nil {
		return nil, fmt.Errorf("decode VIN: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("could not decode VIN (no results returned)")
	}

	// vPIC returns a list; the first item carries the decoded attributes.
	r := resp.Results[0]
	make := strings.TrimSpace(r.Make)
	model := strings.TrimSpace(r.Model)
	yearStr := strings.TrimSpace(r.ModelYear)

	year, err := strconv.Atoi(yearStr)
	if make == "" || model == "" || err != nil || year <= 0 {
		return nil, fmt.Errorf("could not decode VIN (check VIN and try again)")
	}

	return &DecodedVIN{VIN: vin, Make: make, Model: model, Year: year}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

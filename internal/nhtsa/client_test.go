package nhtsa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/defectscope/internal/config"
)

// newTestClient points a client at a test server, tracking how many
// requests actually went over the wire.
func newTestClient(handler http.Handler) (*Client, *httptest.Server, *atomic.Int64) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler.ServeHTTP(w, r)
	}))

	cfg := &config.Config{
		ComplaintsURL:  srv.URL + "/complaints/complaintsByVehicle",
		RecallsURL:     srv.URL + "/recalls/recallsByVehicle",
		VinDecoderURL:  srv.URL + "/api/vehicles/DecodeVinValues",
		TimeoutSeconds: 5,
	}
	return NewClient(cfg), srv, &calls
}

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func TestDecodeVINRejectsBadLengthWithoutNetworkCall(t *testing.T) {
	client, srv, calls := newTestClient(jsonHandler(`{"Results": []}`))
	defer srv.Close()

	for _, vin := range []string{"", "SHORT", "1HGCM82633A00435", "1HGCM82633A0043522"} {
		_, err := client.DecodeVIN(context.Background(), vin)
		require.Error(t, err, "vin %q", vin)
		assert.Contains(t, err.Error(), "17 characters")
	}

	assert.Equal(t, int64(0), calls.Load(), "invalid VINs must not reach the network")
}

func TestDecodeVINTrimsAndUppercases(t *testing.T) {
	var gotPath string
	client, srv, calls := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Results": [{"Make": "HONDA", "Model": "ACCORD", "ModelYear": "2021"}]}`))
	}))
	defer srv.Close()

	decoded, err := client.DecodeVIN(context.Background(), "  1hgcm82633a004352  ")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "/1HGCM82633A004352"))
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, "1HGCM82633A004352", decoded.VIN)
	assert.Equal(t, "HONDA", decoded.Make)
	assert.Equal(t, "ACCORD", decoded.Model)
	assert.Equal(t, 2021, decoded.Year)
}

func TestDecodeVINFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no results", `{"Results": []}`},
		{"blank make", `{"Results": [{"Make": "  ", "Model": "ACCORD", "ModelYear": "2021"}]}`},
		{"blank model", `{"Results": [{"Make": "HONDA", "Model": "", "ModelYear": "2021"}]}`},
		{"non-numeric year", `{"Results": [{"Make": "HONDA", "Model": "ACCORD", "ModelYear": "unknown"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, srv, _ := newTestClient(jsonHandler(tc.body))
			defer srv.Close()

			_, err := client.DecodeVIN(context.Background(), "1HGCM82633A004352")
			assert.Error(t, err)
		})
	}
}

func TestDecodeVINServerError(t *testing.T) {
	client, srv, _ := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := client.DecodeVIN(context.Background(), "1HGCM82633A004352")
	assert.Error(t, err)
}

func TestFetchComplaintsDecodesEnvelope(t *testing.T) {
	var gotQuery string
	client, srv, _ := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 2, "message": "Results returned successfully",
			"results": [{"odiNumber": 11543210}, {"odiNumber": 11543211}]
		}`))
	}))
	defer srv.Close()

	resp, err := client.FetchComplaints(context.Background(), "HONDA", "ACCORD", 2021)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Results, 2)
	assert.Contains(t, gotQuery, "make=HONDA")
	assert.Contains(t, gotQuery, "model=ACCORD")
	assert.Contains(t, gotQuery, "modelYear=2021")
}

func TestFetchNonSuccessStatusIsFatal(t *testing.T) {
	client, srv, _ := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := client.FetchComplaints(context.Background(), "HONDA", "ACCORD", 2021)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch complaints")

	_, err = client.FetchRecalls(context.Background(), "HONDA", "ACCORD", 2021)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch recalls")
}

func TestFetchMalformedBodyIsFatal(t *testing.T) {
	client, srv, _ := newTestClient(jsonHandler(`{"results": "not a list"`))
	defer srv.Close()

	_, err := client.FetchRecalls(context.Background(), "HONDA", "ACCORD", 2021)
	assert.Error(t, err)
}

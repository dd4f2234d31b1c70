package nhtsa

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emilianohg/defectscope/internal/models"
)

// Date formats seen in NHTSA payloads, tried in order.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02T15:04:05",
}

// Recall payload keys vary between capitalized, lowercase and renamed
// variants depending on which upstream revision served the response.
// Each logical field lists its candidate keys in priority order; the
// first non-empty match wins.
var (
	campaignNumberKeys = []string{"NHTSACampaignNumber", "nhtsaCampaignNumber", "campaignNumber"}
	recallNumberKeys   = []string{"RecallNumber", "ManufacturerRecallNumber"}
	reportReceivedKeys = []string{"ReportReceivedDate", "reportReceivedDate"}
	componentKeys      = []string{"Component", "component"}
	recallSummaryKeys  = []string{"Summary", "summary"}
	// NHTSA sometimes misspells "Consequence" as "Conequence"; the
	// misspelled key is checked first because payloads carrying it do
	// not carry the correct spelling.
	consequenceKeys = []string{"Conequence", "Consequence", "consequence"}
	remedyKeys      = []string{"Remedy", "remedy"}
	notesKeys       = []string{"Notes", "notes"}
)

// NormalizeComplaint converts one raw complaint record into the
// canonical shape. Returns false when the record has no ODI number: an
// identity-less record is expected upstream noise and is dropped, not
// an error. Malformed optional fields never fail the record; they are
// left unset.
func NormalizeComplaint(r map[string]any) (*models.Complaint, bool) {
	// Known keys from the complaintsByVehicle endpoint:
	// odiNumber, manufacturer, crash, fire, numberOfInjuries,
	// numberOfDeaths, dateOfIncident, dateComplaintFiled, vin,
	// components, summary, products

	odi := strings.TrimSpace(asString(r["odiNumber"]))
	if odi == "" {
		return nil, false
	}

	c := &models.Complaint{
		ODINumber:          odi,
		Manufacturer:       optString(r["manufacturer"]),
		Crash:              optBool(r["crash"]),
		Fire:               optBool(r["fire"]),
		NumberOfInjuries:   optInt(r["numberOfInjuries"]),
		NumberOfDeaths:     optInt(r["numberOfDeaths"]),
		DateOfIncident:     parseDate(asString(r["dateOfIncident"])),
		DateComplaintFiled: parseDate(asString(r["dateComplaintFiled"])),
		VIN:                optString(r["vin"]),
		Components:         normalizeComponents(r["components"]),
		Summary:            optString(r["summary"]),
		Products:           normalizeProducts(r["products"]),
	}

	return c, true
}

// NormalizeRecall converts one raw recall record into the canonical
// shape, resolving key variants per field. Returns false when no
// campaign number is found under any known key.
func NormalizeRecall(r map[string]any) (*models.Recall, bool) {
	campaign := firstString(r, campaignNumberKeys)
	if campaign == nil {
		return nil, false
	}

	rec := &models.Recall{
		CampaignNumber:     *campaign,
		RecallNumber:       firstString(r, recallNumberKeys),
		ReportReceivedDate: parseDateP(firstString(r, reportReceivedKeys)),
		Component:          firstString(r, componentKeys),
		Summary:            firstString(r, recallSummaryKeys),
		Consequence:        firstString(r, consequenceKeys),
		Remedy:             firstString(r, remedyKeys),
		Notes:              firstString(r, notesKeys),
	}

	return rec, true
}

// firstString resolves a logical field from its candidate keys: the
// first key whose value is non-empty after trimming wins.
func firstString(r map[string]any, keys []string) *string {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			s := strings.TrimSpace(asString(v))
			if s != "" {
				return &s
			}
		}
	}
	return nil
}

// parseDate tries each known format in order. Strings matching none of
// them yield nil rather than an error: a malformed date loses the date,
// not the record.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseDateP(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return parseDate(*s)
}

// normalizeComponents flattens the components field into one display
// string: lists are joined with ", " skipping nulls, scalars are
// stringified.
func normalizeComponents(v any) *string {
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			parts = append(parts, asString(item))
		}
		s := strings.Join(parts, ", ")
		return &s
	}
	s := asString(v)
	return &s
}

// normalizeProducts keeps structured products payloads as
// reconstructable JSON text; scalars are stringified as-is.
func normalizeProducts(v any) *string {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		s := string(b)
		return &s
	}
	s := asString(v)
	return &s
}

// asString renders a JSON-decoded scalar as a string. Numbers arrive as
// float64, so integral values (like numeric ODI numbers) must not pick
// up an exponent or trailing decimals.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// optString returns a present value stringified, or nil when absent.
func optString(v any) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}

// optBool coerces a present value by truthiness; absent stays unknown
// rather than defaulting to false.
func optBool(v any) *bool {
	if v == nil {
		return nil
	}
	b := truthy(v)
	return &b
}

// optInt coerces a present numeric or numeric-string value; anything
// else is left unset. Aggregation, not storage, treats unset as zero.
func optInt(v any) *int {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		n := int(t)
		return &n
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &n
		}
		return nil
	default:
		return nil
	}
}

// truthy mirrors the loose coercion the upstream payloads require:
// non-empty strings, non-zero numbers and non-empty collections are
// true.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return v != nil
	}
}

package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

const maxEnvelopeDepth = 4

// Entry is one supplier's results inside a push event.
type Entry struct {
	QuoteID      string `json:"quoteId"`
	SupplierCode string `json:"supplierCode"`
	// CrmCode is the older name for SupplierCode.
	CrmCode      string          `json:"crmCode"`
	SupplierName string          `json:"hotelName"`
	StartDate    string          `json:"startDate"`
	EndDate      string          `json:"endDate"`
	Nights       int             `json:"nights"`
	Results      json.RawMessage `json:"results"`
}

func (e Entry) Supplier() string {
	if e.SupplierCode != "" {
		return e.SupplierCode
	}
	return e.CrmCode
}

// End is EndDate, or StartDate plus Nights when only those were sent.
func (e Entry) End() string {
	if e.EndDate != "" {
		return e.EndDate
	}
	return models.SearchFilters{StartDate: e.StartDate, Nights: e.Nights}.EndDate()
}

// Override is the date context this entry asks its supplier group to
// use, or false when the entry carries no dates.
func (e Entry) Override() (models.GroupOverride, bool) {
	if e.Supplier() == "" || (e.StartDate == "" && e.EndDate == "" && e.Nights == 0) {
		return models.GroupOverride{}, false
	}
	o := models.GroupOverride{StartDate: e.StartDate, EndDate: e.End(), Nights: e.Nights}
	if o.Nights == 0 && o.StartDate != "" && o.EndDate != "" {
		s, err1 := time.Parse(models.DateLayout, o.StartDate)
		end, err2 := time.Parse(models.DateLayout, o.EndDate)
		if err1 == nil && err2 == nil {
			o.Nights = int(end.Sub(s).Hours() / 24)
		}
	}
	return o, true
}

// Decode unwraps a push event into its entries. It accepts a bare entry,
// an array or keyed object of entries, and either of those wrapped as
// {"data":{"payload":{...}}} with the entries under "Hotel_JSON__c" or
// "entries", possibly as a JSON-encoded string.
func Decode(raw []byte) ([]Entry, error) {
	entries, err := decode(bytes.TrimSpace(raw), 0)
	if err != nil {
		return nil, &models.ParseError{Fragment: "event", Err: err}
	}
	return entries, nil
}

func decode(raw []byte, depth int) ([]Entry, error) {
	if depth > maxEnvelopeDepth {
		return nil, fmt.Errorf("envelope nested deeper than %d levels", maxEnvelopeDepth)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty event")
	}
	switch raw[0] {
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		return decode([]byte(inner), depth+1)
	case '[':
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	case '{':
	default:
		return nil, fmt.Errorf("unexpected event starting with %q", raw[0])
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if data, ok := obj["data"]; ok {
		var env struct {
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		if len(env.Payload) == 0 {
			return nil, errors.New("event data has no payload")
		}
		return decode(env.Payload, depth+1)
	}
	for _, k := range []string{"Hotel_JSON__c", "entries"} {
		if inner, ok := obj[k]; ok {
			return decode(inner, depth+1)
		}
	}
	if _, ok := obj["quoteId"]; ok {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return []Entry{e}, nil
	}

	// keyed object of entries; keys carry no meaning
	entries := make([]Entry, 0, len(obj))
	for _, k := range sortedKeys(obj) {
		var e Entry
		if err := json.Unmarshal(obj[k], &e); err != nil {
			return nil, fmt.Errorf("entry %q: %w", k, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

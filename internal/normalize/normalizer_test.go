package normalize

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

func testPrice(minor int64, cur string) string {
	return cur + strconv.FormatInt(minor/100, 10)
}

const samplePayload = `[{"result":[
 {"OptId":"NTYACCAB001SSTAFB",
  "OptGeneral":{"SupplierName":"Cape &amp; Bay Lodge","Description":"Standard <b>Room</b>","LocalityDescription":"Cape Town","ClassDescription":"4 Star","Child_From":"2","Child_To":"11","Destination":"South Africa|Western Cape|Cape Town"},
  "OptStayResults":[
   {"RateId":"R1","Availability":"OK","AgentPrice":10000,"TotalPrice":"12000","CancelHours":"48","RateText":"Bed &amp; breakfast","Currency":"ZAR"},
   {"RateId":"R2","Availability":"XX","TotalPrice":5000,"CancelHours":0,"DateFrom":"2025-06-01","DateTo":"2025-06-03"}
  ]},
 {"OptId":"NTYACCAB002SSTAFB","OptGeneral":{"SupplierName":"No Stays"}}
]}]`

func TestNormalize_FlattensStays(t *testing.T) {
	n := NewNormalizer(testPrice, "ZAR", nil)
	res, err := n.Normalize([]byte(samplePayload), DateContext{Start: "2025-05-01", End: "2025-05-04"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("unexpected skipped fragments: %v", res.Skipped)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows (option without stays emits none), got %d", len(res.Rows))
	}

	r := res.Rows[0]
	if r.SupplierName != "Cape & Bay Lodge" {
		t.Errorf("entities not decoded: %q", r.SupplierName)
	}
	if r.ServiceDescription != "Standard Room" {
		t.Errorf("markup not stripped: %q", r.ServiceDescription)
	}
	if r.RateDescription != "Bed & breakfast" {
		t.Errorf("rate text = %q", r.RateDescription)
	}
	if r.SupplierCode != "CAB001" {
		t.Errorf("supplier code = %q", r.SupplierCode)
	}
	if r.AvailabilityStatus != models.StatusAvailable {
		t.Errorf("status = %q", r.AvailabilityStatus)
	}
	if r.NetAmount != "ZAR100" || r.SellAmount != "ZAR120" {
		t.Errorf("amounts = %q / %q", r.NetAmount, r.SellAmount)
	}
	if !r.CancellationAllowed {
		t.Error("48 cancel hours should allow cancellation")
	}
	if r.ChildPolicySummary != "Child: 2-11" {
		t.Errorf("child policy = %q", r.ChildPolicySummary)
	}
	if r.DateStart != "2025-05-01" || r.DateEnd != "2025-05-04" {
		t.Errorf("request dates not applied: %s..%s", r.DateStart, r.DateEnd)
	}
	if r.SelectionKey != "NTYACCAB001SSTAFB#R1|2025-05-01|2025-05-04" {
		t.Errorf("selection key = %q", r.SelectionKey)
	}
	if r.RateCategory != "Contract net rate with 4 star" {
		t.Errorf("rate category = %q", r.RateCategory)
	}

	r2 := res.Rows[1]
	if r2.AvailabilityStatus != models.StatusUnknown {
		t.Errorf("unknown code should map to Unknown, got %q", r2.AvailabilityStatus)
	}
	if r2.CancellationAllowed {
		t.Error("zero cancel hours must not allow cancellation")
	}
	if r2.DateKey != "2025-06-01|2025-06-03" {
		t.Errorf("stay dates should win, got %q", r2.DateKey)
	}
	if r2.NetMinor != 5000 {
		t.Errorf("net should fall back to total price, got %d", r2.NetMinor)
	}
	if !r2.AddDisabled {
		t.Error("non-available rows cannot be added")
	}
}

func TestNormalize_AcceptsEncodedAndNestedShapes(t *testing.T) {
	inner := `{"result":{"result":[{"OptId":"ABCDEFGHIJKL","OptStayResults":[{"RateId":"1","Availability":"RQ"}]}]}}`
	encoded, _ := json.Marshal(inner)

	n := NewNormalizer(testPrice, "ZAR", map[string]string{"FGHIJK": "Looked Up"})
	for name, payload := range map[string][]byte{
		"nested":  []byte(inner),
		"encoded": encoded,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := n.Normalize(payload, DateContext{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.Rows) != 1 {
				t.Fatalf("expected 1 row, got %d", len(res.Rows))
			}
			row := res.Rows[0]
			if row.SupplierName != "Looked Up" {
				t.Errorf("supplier name side table not used: %q", row.SupplierName)
			}
			if row.DateKey != "" {
				t.Errorf("undated row should have empty date key, got %q", row.DateKey)
			}
			if row.AvailabilityStatus != models.StatusOnRequest {
				t.Errorf("status = %q", row.AvailabilityStatus)
			}
		})
	}
}

func TestNormalize_IsolatesBadFragments(t *testing.T) {
	payload := `{"result":[
		{"OptId":"NTYACCAB001SSTAFB","OptStayResults":[{"RateId":"1","Availability":"OK","AgentPrice":"abc"}]},
		{"OptId":"NTYACCAB003SSTAFB","OptStayResults":[{"RateId":"1","Availability":"OK","AgentPrice":100}]}
	]}`
	n := NewNormalizer(testPrice, "ZAR", nil)
	res, err := n.Normalize([]byte(payload), DateContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].SupplierCode != "CAB003" {
		t.Fatalf("expected only the good option, got %+v", res.Rows)
	}
	if len(res.Skipped) != 1 || !errors.Is(res.Skipped[0], models.ErrParse) {
		t.Fatalf("expected one parse error, got %v", res.Skipped)
	}
}

func TestNormalize_MalformedPayload(t *testing.T) {
	n := NewNormalizer(testPrice, "ZAR", nil)
	_, err := n.Normalize([]byte(`{"result": [`), DateContext{})
	if !errors.Is(err, models.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"Caf&eacute; &amp; Bar":       "Café & Bar",
		"<p>Two<br/>lines</p>":        "Two lines",
		"  spaced \n out  ":           "spaced out",
		"&lt;not a tag&gt;":           "<not a tag>",
		"<ul><li>a &amp; b</li></ul>": "a & b",
	}
	for in, want := range tests {
		if got := CleanText(in); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

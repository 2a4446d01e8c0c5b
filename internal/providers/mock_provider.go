package providers

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

// Supplier is one entry of the mock inventory.
type Supplier struct {
	Code        string
	Name        string
	Class       string
	Locality    string
	Destination string
}

// OptID builds the provider option id the supplier code is derived from.
func (s Supplier) OptID() string { return "NTYAC" + s.Code + "SSTAFB" }

var catalogue = []Supplier{
	{Code: "CAB001", Name: "Cape Bay Lodge", Class: "4 Star", Locality: "Camps Bay", Destination: "Africa|South Africa|Western Cape|Cape Town"},
	{Code: "KRU002", Name: "Kruger Tented Camp", Class: "5 Star", Locality: "Sabi Sands", Destination: "Africa|South Africa|Mpumalanga|Kruger"},
	{Code: "HER003", Name: "Hermanus Whale House", Class: "3 Star", Locality: "Hermanus", Destination: "Africa|South Africa|Overberg|Hermanus"},
	{Code: "OKA004", Name: "Okavango Delta Retreat", Class: "5 Star", Locality: "Okavango", Destination: "Africa|Botswana|Okavango"},
	{Code: "VIC005", Name: "Victoria Falls Guest House", Class: "3 Star", Locality: "Livingstone", Destination: "Zambia, Livingstone"},
}

// Catalogue returns the suppliers the mock serves.
func Catalogue() []Supplier {
	out := make([]Supplier, len(catalogue))
	copy(out, catalogue)
	return out
}

var availabilityCodes = []string{"OK", "OK", "RQ", "NA"}

type MockProvider struct {
	name       string
	avgLatency float64
	failRate   float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockProvider(name string, avgLatency, failRate float64, seedOffset int64) *MockProvider {
	seed := time.Now().UnixNano() + seedOffset
	return &MockProvider{name: name, avgLatency: avgLatency, failRate: failRate, rng: rand.New(rand.NewSource(seed))}
}

// NewSeededMockProvider is NewMockProvider with a fixed seed.
func NewSeededMockProvider(name string, avgLatency, failRate float64, seed int64) *MockProvider {
	return &MockProvider{name: name, avgLatency: avgLatency, failRate: failRate, rng: rand.New(rand.NewSource(seed))}
}

func (m *MockProvider) Name() string { return m.name }

// Search returns a payload shaped like the inventory API: an array whose
// first element carries the options under "result".
func (m *MockProvider) Search(ctx context.Context, req *models.SearchRequest) ([]byte, error) {
	m.mu.Lock()
	latency := SampleLatencyFromRng(m.rng, m.avgLatency)
	fail := ShouldFailFromRng(m.rng, m.failRate)
	m.mu.Unlock()

	// variable latency and context cancelable
	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if fail {
		return nil, errors.New("provider error (simulated)")
	}

	m.mu.Lock()
	opts := m.options(req)
	m.mu.Unlock()
	return json.Marshal([]map[string]any{{"result": opts}})
}

func (m *MockProvider) options(req *models.SearchRequest) []map[string]any {
	rooms := len(req.Rooms)
	if rooms == 0 {
		rooms = 1
	}
	nights := req.Nights
	if nights <= 0 {
		nights = 1
	}
	end := req.EndDate()

	var out []map[string]any
	for _, s := range catalogue {
		if req.SupplierCode != "" && req.SupplierCode != s.Code {
			continue
		}
		if req.StarRating != "" && !strings.EqualFold(req.StarRating, s.Class) {
			continue
		}
		var stays []map[string]any
		for i, rate := range []string{"BB", "FB"} {
			agent := int64(90000+m.rng.Intn(60000)+i*25000) * int64(nights*rooms)
			cancel := 0
			if m.rng.Intn(2) == 0 {
				cancel = 48
			}
			stays = append(stays, map[string]any{
				"RateId":       rate,
				"RateName":     rate,
				"RateText":     rateText(rate),
				"Availability": availabilityCodes[m.rng.Intn(len(availabilityCodes))],
				"AgentPrice":   agent,
				"TotalPrice":   agent * 6 / 5,
				"Currency":     "ZAR",
				"CancelHours":  cancel,
				"RoomType":     "DBL",
				"DateFrom":     req.StartDate,
				"DateTo":       end,
			})
		}
		out = append(out, map[string]any{
			"OptId": s.OptID(),
			"OptGeneral": map[string]any{
				"SupplierName":        s.Name,
				"Description":         "Standard Room",
				"Comment":             "Sea &amp; mountain views",
				"LocalityDescription": s.Locality,
				"ClassDescription":    s.Class,
				"SupplierStatus":      "Preferred",
				"Adult_From":          "12",
				"Adult_To":            "99",
				"Child_From":          "2",
				"Child_To":            "11",
				"Destination":         s.Destination,
			},
			"OptStayResults": stays,
		})
	}
	return out
}

func rateText(rate string) string {
	switch rate {
	case "FB":
		return "Full board"
	default:
		return "Bed &amp; breakfast"
	}
}

func SampleLatencyFromRng(rng *rand.Rand, avg float64) time.Duration {
	ms := float64(50) + rng.ExpFloat64()*avg*200.0
	return time.Duration(ms) * time.Millisecond
}

func ShouldFailFromRng(rng *rand.Rand, rate float64) bool {
	return rng.Float64() < rate
}

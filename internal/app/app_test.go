package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/config"
)

const inventory = `[{"result":[{"OptId":"NTYACKRU002SSTAFB","OptGeneral":{"SupplierName":"Kruger Tented Camp"},"OptStayResults":[` +
	`{"RateId":"BB","Availability":"OK","AgentPrice":250000,"TotalPrice":300000}]}]}]`

func testConfig(t *testing.T, providerURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Log:    config.LogConfig{Level: "info", Format: "json"},
		Search: config.SearchConfig{
			ProviderTimeout:   time.Second,
			ProviderCurrency:  "ZAR",
			ProviderURLs:      []string{providerURL},
			CacheTTL:          time.Minute,
			RateLimitCapacity: 100,
			RateLimitRefill:   time.Minute,
		},
		Store: config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "quotes.db"), Seed: true},
		Push:  config.PushConfig{Transport: "memory", Channel: "availability"},
		Rooms: config.RoomsConfig{MaxAdults: 4, MaxChildren: 3, MaxInfants: 2},
		View:  config.ViewConfig{DestinationLimit: 2},
		CORS:  config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func serve(a *App, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func TestAppEndToEnd(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(inventory))
	}))
	defer provider.Close()

	a, err := New(context.Background(), testConfig(t, provider.URL), nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if rr := serve(a, http.MethodGet, "/readyz", ""); rr.Code != http.StatusOK {
		t.Fatalf("readyz: %d %s", rr.Code, rr.Body.String())
	}

	// the demo quote has 4 adults, 2 children and 1 infant in one room
	rr := serve(a, http.MethodPost, "/quotes/"+DemoQuoteID+"/search",
		`{"serviceType":"Accommodation","location":"Kruger","startDate":"2025-07-01","nights":2,"rooms":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("search: %d %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Kruger Tented Camp") || !strings.Contains(rr.Body.String(), "Day 1-3") {
		t.Fatalf("unexpected search body %s", rr.Body.String())
	}

	event := `{"data":{"payload":{"Hotel_JSON__c":"[{\"quoteId\":\"` + DemoQuoteID + `\",\"crmCode\":\"VIC005\",\"startDate\":\"2025-07-03\",\"nights\":1,\"results\":[{\"result\":[{\"OptId\":\"NTYACVIC005SSTAFB\",\"OptStayResults\":[{\"RateId\":\"BB\",\"Availability\":\"RQ\",\"AgentPrice\":99000}]}]}]}]"}}}`
	if rr := serve(a, http.MethodPost, "/events", event); rr.Code != http.StatusAccepted {
		t.Fatalf("publish: %d %s", rr.Code, rr.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rr = serve(a, http.MethodGet, "/quotes/"+DemoQuoteID+"/view", "")
		if strings.Contains(rr.Body.String(), "Victoria Falls Guest House") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("pushed supplier never appeared: %s", rr.Body.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := Seed(context.Background(), a.Store); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	totals, err := a.Store.PassengerTotals(context.Background(), DemoQuoteID)
	if err != nil || totals != DemoTotals {
		t.Fatalf("totals = %+v, %v", totals, err)
	}
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/commit"
	ht "github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/http"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/ingest"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/normalize"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/pricing"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/routes"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/search"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/storage/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

const capeBay = `[{"result":[{"OptId":"NTYACCAB001SSTAFB","OptGeneral":{"SupplierName":"Cape Bay Lodge","Destination":"South Africa|Cape Town"},"OptStayResults":[` +
	`{"RateId":"BB","Availability":"OK","AgentPrice":150000,"TotalPrice":180000},` +
	`{"RateId":"FB","Availability":"NA","AgentPrice":190000,"TotalPrice":228000}]}]}]`

type fixedService struct{}

func (fixedService) Search(ctx context.Context, req *models.SearchRequest) (search.AggregatedResult, error) {
	return search.AggregatedResult{
		Stats:    search.Stats{ProvidersTotal: 1, ProvidersSucceeded: 1, Cache: "miss"},
		Payloads: []search.ProviderPayload{{Provider: "fixed", Raw: []byte(capeBay)}},
	}, nil
}

type limitOne struct{ used map[string]bool }

func (l *limitOne) Allow(key string) bool {
	if l.used[key] {
		return false
	}
	l.used[key] = true
	return true
}

func newServer(t *testing.T, rl search.RateLimiter) http.Handler {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "quotes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.SaveQuote(ctx, "Q1", models.PassengerTotals{Adults: 2}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveOptionDetail(ctx, models.OptionDetail{
		OptID: "NTYACCAB001SSTAFB", ExternalID: "EXT-CAB001", Description: "Standard Room", Comment: "Camps Bay",
	}); err != nil {
		t.Fatal(err)
	}

	m := obs.NewMetrics(prometheus.NewRegistry())
	bus := ingest.NewMemoryBus(4)
	reg := search.NewRegistry(store, search.SessionDeps{
		Service:    fixedService{},
		Normalizer: normalize.NewNormalizer(pricing.NewMarkup("", 0).Func(), "ZAR", nil),
		Committer:  commit.NewOrchestrator(store, nil, m),
		Channel:    "availability",
		Metrics:    m,
	}, search.SessionConfig{Limits: models.RoomLimits{MaxAdults: 2}})
	t.Cleanup(reg.Close)

	h := ht.NewHandler(reg, store, bus, "availability", nil)
	return routes.GetRoutes(h, m, nil, routes.Options{RequestTimeout: 5 * time.Second, RateLimiter: rl})
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

const filters = `{"serviceType":"Accommodation","location":"Cape Town","startDate":"2025-05-01","nights":3}`

func TestSearchSelectCommit(t *testing.T) {
	srv := newServer(t, nil)

	rr := do(t, srv, http.MethodPost, "/quotes/Q1/search", filters)
	if rr.Code != http.StatusOK {
		t.Fatalf("search: %d %s", rr.Code, rr.Body.String())
	}
	res := decode[search.SearchResult](t, rr)
	if res.Added != 2 || len(res.View.Sections) != 1 {
		t.Fatalf("unexpected search result %+v", res)
	}
	items := res.View.Sections[0].Groups[0].Items
	if items[0].RateID != "BB" || items[1].AvailabilityStatus != models.StatusUnavailable {
		t.Fatalf("unexpected item order %+v", items)
	}

	for _, it := range items {
		rr = do(t, srv, http.MethodPost, "/quotes/Q1/selection/toggle", fmt.Sprintf(`{"selectionKey":%q}`, it.SelectionKey))
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"selected":true`) {
			t.Fatalf("toggle: %d %s", rr.Code, rr.Body.String())
		}
	}

	rr = do(t, srv, http.MethodPost, "/quotes/Q1/commit", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("commit: %d %s", rr.Code, rr.Body.String())
	}
	out := decode[map[string]any](t, rr)
	if out["summary"] != "all succeeded: 1/1" {
		t.Fatalf("unexpected commit outcome %v", out)
	}

	rr = do(t, srv, http.MethodGet, "/quotes/Q1/line-items", "")
	lines := decode[struct {
		LineItems []models.CommitRequest `json:"lineItems"`
	}](t, rr)
	if len(lines.LineItems) != 1 || lines.LineItems[0].SelectionKey != items[0].SelectionKey {
		t.Fatalf("unexpected line items %+v", lines.LineItems)
	}
	if lines.LineItems[0].NumberOfDays != 3 || lines.LineItems[0].Status != commit.LineItemStatus {
		t.Fatalf("line item fields %+v", lines.LineItems[0])
	}

	// only the unavailable row is left selected
	rr = do(t, srv, http.MethodPost, "/quotes/Q1/commit", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 with nothing bookable selected, got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/quotes/Q1/view", "")
	v := decode[search.View](t, rr)
	if v.Selection.Count != 1 || v.LastCommit == nil {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
		substr string
	}{
		{"missing context", http.MethodPost, "/quotes/Q1/search", `{"serviceType":"Accommodation"}`, http.StatusBadRequest, `"missing":"location,startDate,nights"`},
		{"bad json", http.MethodPost, "/quotes/Q1/search", `{`, http.StatusBadRequest, "invalid request body"},
		{"unknown quote", http.MethodGet, "/quotes/NOPE/view", "", http.StatusNotFound, "unknown session"},
		{"unknown row", http.MethodPost, "/quotes/Q1/selection/toggle", `{"selectionKey":"x"}`, http.StatusNotFound, "unknown row"},
		{"over capacity", http.MethodPatch, "/quotes/Q1/rooms/0", `{"field":"adults","value":3}`, http.StatusUnprocessableEntity, `"class":"Adult"`},
		{"bad room index", http.MethodPatch, "/quotes/Q1/rooms/first", `{"field":"adults","value":1}`, http.StatusBadRequest, "room index"},
		{"fractional count", http.MethodPatch, "/quotes/Q1/rooms/0", `{"field":"adults","value":1.5}`, http.StatusBadRequest, "whole number"},
		{"resize without count", http.MethodPut, "/quotes/Q1/rooms", `{}`, http.StatusBadRequest, "count is required"},
		{"malformed event", http.MethodPost, "/quotes/Q1/events", `not json`, http.StatusBadRequest, "malformed payload"},
		{"group search before search", http.MethodPost, "/quotes/Q1/groups/CAB001/search", "", http.StatusBadRequest, "missing required search context"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			if rr.Code != tt.want || !strings.Contains(rr.Body.String(), tt.substr) {
				t.Fatalf("got %d %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRoomsAndSnapshot(t *testing.T) {
	srv := newServer(t, nil)

	rr := do(t, srv, http.MethodPut, "/quotes/Q1/rooms", `{"count":0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("resize: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodPut, "/quotes/Q1/rooms", `{"count":2}`)
	rooms := decode[struct {
		Rooms []models.RoomConfig `json:"rooms"`
	}](t, rr)
	if len(rooms.Rooms) != 2 || rooms.Rooms[0].Adults != 1 || rooms.Rooms[1].Adults != 1 {
		t.Fatalf("expected 1+1 adults, got %+v", rooms.Rooms)
	}

	rr = do(t, srv, http.MethodPatch, "/quotes/Q1/rooms/1", `{"field":"roomType","value":"TWIN AVAIL"}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "TWIN AVAIL") {
		t.Fatalf("room type edit: %d %s", rr.Code, rr.Body.String())
	}

	do(t, srv, http.MethodPost, "/quotes/Q1/search", filters)
	rr = do(t, srv, http.MethodGet, "/quotes/Q1/snapshot", "")
	snap := decode[search.Snapshot](t, rr)
	if len(snap.Rows) != 2 || len(snap.Rooms) != 2 || snap.Filters == nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	rr = do(t, srv, http.MethodDelete, "/quotes/Q1/results", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("clear results: %d", rr.Code)
	}
	body, _ := json.Marshal(snap)
	rr = do(t, srv, http.MethodPut, "/quotes/Q1/snapshot", string(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("restore: %d %s", rr.Code, rr.Body.String())
	}
	v := decode[search.View](t, rr)
	if len(v.Sections) != 1 || len(v.Rooms) != 2 || v.Rooms[1].RoomType != "TWIN AVAIL" {
		t.Fatalf("restore mismatch %+v", v)
	}

	rr = do(t, srv, http.MethodDelete, "/quotes/Q1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("close session: %d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/quotes/Q1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second close: %d", rr.Code)
	}
}

func TestRateLimitedSearch(t *testing.T) {
	srv := newServer(t, &limitOne{used: map[string]bool{}})

	if rr := do(t, srv, http.MethodPost, "/quotes/Q1/search", filters); rr.Code != http.StatusOK {
		t.Fatalf("first search: %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/quotes/Q1/search", filters); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second search: %d", rr.Code)
	}
	// other endpoints are not limited
	if rr := do(t, srv, http.MethodGet, "/quotes/Q1/view", ""); rr.Code != http.StatusOK {
		t.Fatalf("view: %d", rr.Code)
	}
}

func TestPublishAndProbes(t *testing.T) {
	srv := newServer(t, nil)

	rr := do(t, srv, http.MethodPost, "/events", `{"quoteId":"Q9","results":[]}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("publish: %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusOK {
		t.Fatalf("readyz: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Fatalf("metrics: %d", rr.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&models.TransportError{Op: "search", Err: context.Canceled}, http.StatusBadGateway},
		{&models.RoomMismatchError{}, http.StatusUnprocessableEntity},
		{models.ErrCommitInProgress, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := ht.StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

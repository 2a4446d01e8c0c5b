package grouping

import (
	"testing"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/keys"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

func offer(optID, rateID string, status models.AvailabilityStatus, net string) models.AvailabilityRow {
	r := models.AvailabilityRow{
		OptID:              optID,
		RateID:             rateID,
		SupplierName:       "Cape Bay Lodge",
		AvailabilityStatus: status,
		NetAmount:          net,
		DateStart:          "2025-05-01",
		DateEnd:            "2025-05-04",
	}
	keys.Tag(&r)
	return r
}

func TestGroupBySupplierAndDate_StatusOrder(t *testing.T) {
	rows := []models.AvailabilityRow{
		offer("NTYACCAB001SSTAFB", "1", models.StatusUnavailable, "ZAR10"),
		offer("NTYACCAB001SSTAFB", "2", models.StatusAvailable, "ZAR10"),
		offer("NTYACCAB001SSTAFB", "3", models.StatusOnRequest, "ZAR10"),
	}
	groups := GroupBySupplierAndDate(rows, Options{})
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	want := []models.AvailabilityStatus{models.StatusAvailable, models.StatusOnRequest, models.StatusUnavailable}
	for i, it := range groups[0].Items {
		if it.AvailabilityStatus != want[i] {
			t.Errorf("item %d: got %s, want %s", i, it.AvailabilityStatus, want[i])
		}
	}
}

func TestGroupBySupplierAndDate_StatusBeatsPrice(t *testing.T) {
	rows := []models.AvailabilityRow{
		offer("NTYACCAB001SSTAFB", "rq", models.StatusOnRequest, "ZAR50"),
		offer("NTYACCAB001SSTAFB", "ok", models.StatusAvailable, "ZAR100"),
	}
	g := GroupBySupplierAndDate(rows, Options{})[0]
	if len(g.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(g.Items))
	}
	if g.Items[0].RateID != "ok" || g.Items[1].RateID != "rq" {
		t.Errorf("expected [Available(100), OnRequest(50)], got [%s, %s]", g.Items[0].RateID, g.Items[1].RateID)
	}
}

func TestGroupBySupplierAndDate_PriceAscendingUnparsedFirst(t *testing.T) {
	rows := []models.AvailabilityRow{
		offer("NTYACCAB001SSTAFB", "a", models.StatusAvailable, "ZAR1,200.00"),
		offer("NTYACCAB001SSTAFB", "b", models.StatusAvailable, "ZAR300.00"),
		offer("NTYACCAB001SSTAFB", "c", models.StatusAvailable, "n/a"),
	}
	g := GroupBySupplierAndDate(rows, Options{})[0]
	got := []string{g.Items[0].RateID, g.Items[1].RateID, g.Items[2].RateID}
	want := []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got order %v, want %v", got, want)
		}
	}
}

func TestGroupBySupplierAndDate_GroupOrderAndPlaceholders(t *testing.T) {
	zed := offer("NTYACZED001SSTAFB", "1", models.StatusAvailable, "ZAR1")
	zed.SupplierName = "zebra camp"
	alpha := offer("NTYACALP001SSTAFB", "1", models.StatusAvailable, "ZAR1")
	alpha.SupplierName = "Alpha Inn"

	opts := Options{
		Global: models.SearchFilters{ServiceType: "Accommodation", Location: "CPT", StartDate: "2025-05-01", Nights: 3},
		Overrides: map[string]models.GroupOverride{
			"ZED001": {StartDate: "2025-05-02", Nights: 2},
		},
		Names: map[string]string{"MID001": "Middle Manor"},
		Placeholders: []Placeholder{
			{SupplierCode: "MID001", DateStart: "2025-05-01", DateEnd: "2025-05-04"},
			// already has rows, must not duplicate the group
			{SupplierCode: "ALP001", DateStart: "2025-05-01", DateEnd: "2025-05-04"},
		},
		Loading: map[string]bool{"MID0012025-05-01|2025-05-04": true},
	}
	groups := GroupBySupplierAndDate([]models.AvailabilityRow{zed, alpha}, opts)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	names := []string{groups[0].SupplierName, groups[1].SupplierName, groups[2].SupplierName}
	if names[0] != "Alpha Inn" || names[1] != "Middle Manor" || names[2] != "zebra camp" {
		t.Fatalf("unexpected group order %v", names)
	}
	mid := groups[1]
	if !mid.Placeholder() || !mid.IsLoading {
		t.Errorf("placeholder group should be empty and loading: %+v", mid)
	}
	if groups[0].IsLoading {
		t.Error("loading flag leaked to another group")
	}
	if ef := groups[2].EffectiveFilters; ef.StartDate != "2025-05-02" || ef.Nights != 2 || ef.Location != "CPT" {
		t.Errorf("override not applied over global filters: %+v", ef)
	}
	if ef := groups[0].EffectiveFilters; ef.StartDate != "2025-05-01" || ef.Nights != 3 {
		t.Errorf("group without override should use global filters: %+v", ef)
	}
}

func TestGroupBySupplierAndDate_Idempotent(t *testing.T) {
	rows := []models.AvailabilityRow{
		offer("NTYACCAB001SSTAFB", "2", models.StatusOnRequest, "ZAR5"),
		offer("NTYACCAB001SSTAFB", "1", models.StatusAvailable, "ZAR5"),
	}
	first := GroupBySupplierAndDate(rows, Options{})
	second := GroupBySupplierAndDate(rows, Options{})
	if first[0].Items[0].SelectionKey != second[0].Items[0].SelectionKey {
		t.Fatal("rebuilding produced a different order")
	}
	if rows[0].RateID != "2" {
		t.Fatal("grouping reordered the caller's rows")
	}
}

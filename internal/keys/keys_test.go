package keys

import (
	"testing"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

func TestSupplierCode(t *testing.T) {
	tests := []struct {
		optID string
		want  string
	}{
		{"NTYACCAB001SSTAFB", "CAB001"},
		{"short", ""},
		{"", ""},
		{"0123456789", ""},
		{"01234ABCDEF", "ABCDEF"},
	}
	for _, tt := range tests {
		if got := SupplierCode(tt.optID); got != tt.want {
			t.Errorf("SupplierCode(%q) = %q, want %q", tt.optID, got, tt.want)
		}
	}
}

func TestDateKey(t *testing.T) {
	if got := DateKey("2025-05-01", "2025-05-04"); got != "2025-05-01|2025-05-04" {
		t.Errorf("unexpected date key %q", got)
	}
	if got := DateKey("", ""); got != "" {
		t.Errorf("undated rows should share the empty key, got %q", got)
	}
	if DateKey("2025-05-01", "") == DateKey("", "") {
		t.Error("a half-dated row must not collapse into the undated bucket")
	}
}

func TestTagIsDeterministic(t *testing.T) {
	r := models.AvailabilityRow{OptID: "NTYACCAB001SSTAFB", RateID: "R1", DateStart: "2025-05-01", DateEnd: "2025-05-04"}
	Tag(&r)
	if r.SupplierCode != "CAB001" {
		t.Errorf("supplier code = %q", r.SupplierCode)
	}
	if r.SelectionKey != "NTYACCAB001SSTAFB#R1|2025-05-01|2025-05-04" {
		t.Errorf("selection key = %q", r.SelectionKey)
	}
	again := r
	Tag(&again)
	if again.SelectionKey != r.SelectionKey {
		t.Error("re-tagging changed the selection key")
	}
	if RowGroupKey(r) != "CAB0012025-05-01|2025-05-04" {
		t.Errorf("group key = %q", RowGroupKey(r))
	}
}

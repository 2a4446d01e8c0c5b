// Package grouping derives the supplier and date-section view of a working
// set. Everything here is rebuilt from scratch on each call; nothing is
// cached between calls.
package grouping

import (
	"sort"
	"strings"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/keys"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/pricing"
)

// Placeholder is a supplier the operator asked for that has no rows yet.
type Placeholder struct {
	SupplierCode string `json:"supplierCode"`
	SupplierName string `json:"supplierName,omitempty"`
	DateStart    string `json:"dateStart"`
	DateEnd      string `json:"dateEnd"`
}

// GroupKey is the key the placeholder's group would have.
func (p Placeholder) GroupKey() string {
	return keys.GroupKey(p.SupplierCode, keys.DateKey(p.DateStart, p.DateEnd))
}

// Options are the side tables and transient flags a grouping pass reads.
type Options struct {
	Global models.SearchFilters
	// Overrides by supplier code.
	Overrides map[string]models.GroupOverride
	// Names are supplier names by code, used when rows carry none.
	Names        map[string]string
	Placeholders []Placeholder
	// Loading flags by group key.
	Loading map[string]bool
}

// GroupBySupplierAndDate partitions rows by (supplier code, date key) and
// sorts both the items of each group and the groups themselves.
func GroupBySupplierAndDate(rows []models.AvailabilityRow, opts Options) []models.SupplierGroup {
	byKey := make(map[string]*models.SupplierGroup)
	var order []string

	for _, r := range rows {
		gk := keys.RowGroupKey(r)
		g, ok := byKey[gk]
		if !ok {
			g = &models.SupplierGroup{
				GroupKey:     gk,
				SupplierCode: r.SupplierCode,
				DateKey:      r.DateKey,
				DateStart:    r.DateStart,
				DateEnd:      r.DateEnd,
			}
			byKey[gk] = g
			order = append(order, gk)
		}
		if g.SupplierName == "" {
			g.SupplierName = r.SupplierName
		}
		g.Items = append(g.Items, r)
	}

	for _, p := range opts.Placeholders {
		gk := p.GroupKey()
		if _, ok := byKey[gk]; ok {
			continue
		}
		byKey[gk] = &models.SupplierGroup{
			GroupKey:     gk,
			SupplierCode: p.SupplierCode,
			SupplierName: p.SupplierName,
			DateKey:      keys.DateKey(p.DateStart, p.DateEnd),
			DateStart:    p.DateStart,
			DateEnd:      p.DateEnd,
			Items:        []models.AvailabilityRow{},
		}
		order = append(order, gk)
	}

	out := make([]models.SupplierGroup, 0, len(order))
	for _, gk := range order {
		g := byKey[gk]
		if g.SupplierName == "" {
			g.SupplierName = opts.Names[g.SupplierCode]
		}
		if g.SupplierName == "" {
			g.SupplierName = g.SupplierCode
		}
		g.EffectiveFilters = opts.Overrides[g.SupplierCode].Apply(opts.Global)
		g.EffectiveFilters.SupplierCode = g.SupplierCode
		g.IsLoading = opts.Loading[gk]
		SortItems(g.Items)
		out = append(out, *g)
	}
	SortGroups(out)
	return out
}

// SortItems orders rows by availability, then numeric net amount, then
// selection key so equal rows keep a stable order across rebuilds.
func SortItems(items []models.AvailabilityRow) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := a.AvailabilityStatus.Rank(), b.AvailabilityStatus.Rank(); ra != rb {
			return ra < rb
		}
		if na, nb := pricing.SortKey(a.NetAmount), pricing.SortKey(b.NetAmount); na != nb {
			return na < nb
		}
		return a.SelectionKey < b.SelectionKey
	})
}

// SortGroups orders groups by supplier name, ignoring case, then start date.
func SortGroups(groups []models.SupplierGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if na, nb := strings.ToLower(a.SupplierName), strings.ToLower(b.SupplierName); na != nb {
			return na < nb
		}
		if a.DateStart != b.DateStart {
			return a.DateStart < b.DateStart
		}
		return a.GroupKey < b.GroupKey
	})
}

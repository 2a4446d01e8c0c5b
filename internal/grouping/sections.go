package grouping

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

const DefaultDestinationLimit = 2

// BuildSections buckets groups by date key. Sections are ordered by start
// then end date, with the undated section last. Day labels count from the
// earliest start date across every section.
func BuildSections(groups []models.SupplierGroup, destinationLimit int) []models.DateSection {
	if destinationLimit <= 0 {
		destinationLimit = DefaultDestinationLimit
	}
	byKey := make(map[string]*models.DateSection)
	var order []string
	for _, g := range groups {
		s, ok := byKey[g.DateKey]
		if !ok {
			s = &models.DateSection{DateKey: g.DateKey, DateStart: g.DateStart, DateEnd: g.DateEnd}
			byKey[g.DateKey] = s
			order = append(order, g.DateKey)
		}
		s.Groups = append(s.Groups, g)
	}

	var earliest time.Time
	for _, k := range order {
		if t, ok := parseDate(byKey[k].DateStart); ok && (earliest.IsZero() || t.Before(earliest)) {
			earliest = t
		}
	}

	out := make([]models.DateSection, 0, len(order))
	for _, k := range order {
		s := byKey[k]
		SortGroups(s.Groups)
		s.TitleLabel = TitleLabel(s.DateStart, s.DateEnd)
		s.DayOffsetLabel = DayOffsetLabel(earliest, s.DateStart, s.DateEnd)
		s.DestinationSummary = DestinationSummary(s.Groups, destinationLimit)
		out = append(out, *s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ua, ub := a.DateStart == "", b.DateStart == ""; ua != ub {
			return ub
		}
		if a.DateStart != b.DateStart {
			return a.DateStart < b.DateStart
		}
		return a.DateEnd < b.DateEnd
	})
	return out
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TitleLabel renders a date range: "01-04 May 2025" within one month,
// "30 Apr - 02 May 2025" across months, and both years when they differ.
func TitleLabel(start, end string) string {
	s, okS := parseDate(start)
	e, okE := parseDate(end)
	switch {
	case !okS && !okE:
		return "Dates to be confirmed"
	case !okE:
		return s.Format("02 Jan 2006")
	case !okS:
		return e.Format("02 Jan 2006")
	}
	switch {
	case s.Year() != e.Year():
		return s.Format("02 Jan 2006") + " - " + e.Format("02 Jan 2006")
	case s.Month() != e.Month():
		return s.Format("02 Jan") + " - " + e.Format("02 Jan 2006")
	default:
		return s.Format("02") + "-" + e.Format("02 Jan 2006")
	}
}

// DayOffsetLabel renders "Day X-Y" with 1-based offsets from earliest.
func DayOffsetLabel(earliest time.Time, start, end string) string {
	s, ok := parseDate(start)
	if !ok || earliest.IsZero() {
		return ""
	}
	x := daysBetween(earliest, s) + 1
	e, ok := parseDate(end)
	if !ok {
		return fmt.Sprintf("Day %d", x)
	}
	y := daysBetween(earliest, e) + 1
	if y <= x {
		return fmt.Sprintf("Day %d", x)
	}
	return fmt.Sprintf("Day %d-%d", x, y)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// ParentDestination picks the parent label out of a pipe or comma delimited
// destination: the second-to-last segment, or the first of exactly two.
func ParentDestination(dest string) string {
	parts := strings.FieldsFunc(dest, func(r rune) bool { return r == '|' || r == ',' })
	segs := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, p)
		}
	}
	switch len(segs) {
	case 0:
		return ""
	case 1:
		return segs[0]
	case 2:
		return segs[0]
	default:
		return segs[len(segs)-2]
	}
}

// DestinationSummary lists up to limit distinct parent destinations of the
// groups' rows, then "+N more" for the rest.
func DestinationSummary(groups []models.SupplierGroup, limit int) string {
	seen := make(map[string]bool)
	var names []string
	for _, g := range groups {
		for _, r := range g.Items {
			p := ParentDestination(r.Destination)
			if p == "" || seen[strings.ToLower(p)] {
				continue
			}
			seen[strings.ToLower(p)] = true
			names = append(names, p)
		}
	}
	if len(names) <= limit {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(names[:limit], ", "), len(names)-limit)
}

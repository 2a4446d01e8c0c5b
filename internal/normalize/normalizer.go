// Package normalize turns raw provider availability payloads into flat,
// keyed AvailabilityRow values.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/keys"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/pricing"
)

// DateContext supplies dates for stays that do not carry their own.
type DateContext struct {
	Start string
	End   string
}

// Result is the outcome of one payload: the rows that could be built and
// the option fragments that were skipped.
type Result struct {
	Rows    []models.AvailabilityRow
	Skipped []error
}

type Normalizer struct {
	price    pricing.Func
	currency string
	// supplier names by code, used when a payload omits SupplierName
	names map[string]string
}

func NewNormalizer(price pricing.Func, providerCurrency string, supplierNames map[string]string) *Normalizer {
	return &Normalizer{price: price, currency: providerCurrency, names: supplierNames}
}

// Normalize flattens one provider response. An error is returned only when
// the payload as a whole cannot be read; malformed option entries are
// reported in Result.Skipped and the rest still produce rows.
func (n *Normalizer) Normalize(raw []byte, dc DateContext) (Result, error) {
	opts, err := collectOptions(json.RawMessage(raw), 0)
	if err != nil {
		return Result{}, &models.ParseError{Err: err}
	}
	var res Result
	for i, o := range opts {
		var opt rawOption
		if err := json.Unmarshal(o, &opt); err != nil {
			res.Skipped = append(res.Skipped, &models.ParseError{Fragment: fmt.Sprintf("option[%d]", i), Err: err})
			continue
		}
		res.Rows = append(res.Rows, n.optionRows(opt, dc)...)
	}
	return res, nil
}

func (n *Normalizer) optionRows(opt rawOption, dc DateContext) []models.AvailabilityRow {
	if len(opt.Stays) == 0 {
		return nil
	}
	g := opt.General
	optID := strings.TrimSpace(string(opt.OptID))
	code := keys.SupplierCode(optID)

	supplier := CleanText(g.SupplierName)
	if supplier == "" {
		supplier = n.names[code]
	}
	desc := CleanText(g.Description)
	locality := CleanText(firstNonEmpty(g.LocalityDescription, g.Locality))
	star := CleanText(firstNonEmpty(g.ClassDescription, g.Class))
	destination := CleanText(firstNonEmpty(g.Destination, locality))
	policy := childPolicy(g)

	rows := make([]models.AvailabilityRow, 0, len(opt.Stays))
	for i, s := range opt.Stays {
		row := models.AvailabilityRow{
			OptID:               optID,
			RateID:              rateID(s, i),
			SupplierName:        supplier,
			ServiceDescription:  desc,
			ServiceLabel:        serviceLabel(desc, supplier),
			LocalityLabel:       locality,
			Destination:         destination,
			StarRating:          star,
			SupplierStatus:      CleanText(g.SupplierStatus),
			RoomType:            CleanText(s.RoomType),
			AvailabilityStatus:  models.StatusFromCode(s.Availability),
			RateCategory:        rateCategory(s, star),
			RateDescription:     rateDescription(s),
			Currency:            strings.ToUpper(firstNonEmpty(s.Currency, n.currency)),
			CancellationAllowed: s.CancelHours.Set && s.CancelHours.Value > 0,
			ChildPolicySummary:  policy,
			DateStart:           firstNonEmpty(strings.TrimSpace(s.DateFrom), dc.Start),
			DateEnd:             firstNonEmpty(strings.TrimSpace(s.DateTo), dc.End),
		}
		if net, ok := pick(s.AgentPrice, s.TotalPrice); ok {
			row.NetMinor = net
			row.NetAmount = n.convert(net, row.Currency)
		}
		if sell, ok := pick(s.TotalPrice, s.AgentPrice); ok {
			row.SellMinor = sell
			row.SellAmount = n.convert(sell, row.Currency)
		}
		row.AddDisabled = row.AvailabilityStatus != models.StatusAvailable
		keys.Tag(&row)
		rows = append(rows, row)
	}
	return rows
}

func (n *Normalizer) convert(minor int64, currency string) string {
	if n.price == nil {
		return currency + strconv.FormatInt(minor, 10)
	}
	return n.price(minor, currency)
}

// rateID falls back to the rate name, then the stay position, so that
// several stays of one option never share a selection key.
func rateID(s rawStay, i int) string {
	if id := strings.TrimSpace(string(s.RateID)); id != "" {
		return id
	}
	if name := strings.TrimSpace(s.RateName); name != "" {
		return name
	}
	return strconv.Itoa(i)
}

func pick(primary, fallback flexNumber) (int64, bool) {
	if primary.Set && primary.Value != 0 {
		return int64(primary.Value), true
	}
	if fallback.Set {
		return int64(fallback.Value), true
	}
	if primary.Set {
		return int64(primary.Value), true
	}
	return 0, false
}

func serviceLabel(desc, supplier string) string {
	switch {
	case desc == "":
		return supplier
	case supplier == "":
		return desc
	}
	return desc + " - " + supplier
}

func rateCategory(s rawStay, star string) string {
	if s.External.OptionDescription != "" {
		if s.RateName != "" {
			return CleanText(s.RateName)
		}
		return "Wholesale"
	}
	if star != "" {
		return "Contract net rate with " + strings.ToLower(star)
	}
	return "Contract net rate"
}

func rateDescription(s rawStay) string {
	if t := CleanText(firstNonEmpty(s.RateText, s.External.PlanDescription)); t != "" {
		return t
	}
	return "-"
}

func childPolicy(g rawGeneral) string {
	var parts []string
	add := func(label string, from, to flexString) {
		if from == "" && to == "" {
			return
		}
		parts = append(parts, fmt.Sprintf("%s: %s-%s", label, orDash(string(from)), orDash(string(to))))
	}
	add("Adults", g.AdultFrom, g.AdultTo)
	add("Child", g.ChildFrom, g.ChildTo)
	add("Infant", g.InfantFrom, g.InfantTo)
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

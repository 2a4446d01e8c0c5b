package models

import "strings"

// AvailabilityStatus is the canonical availability of one offer.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "Available"
	StatusOnRequest   AvailabilityStatus = "OnRequest"
	StatusUnavailable AvailabilityStatus = "Unavailable"
	StatusUnknown     AvailabilityStatus = "Unknown"
)

// StatusFromCode maps a provider availability code (OK, RQ, NA) to a status.
// Anything unrecognised is Unknown rather than dropped.
func StatusFromCode(code string) AvailabilityStatus {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "OK":
		return StatusAvailable
	case "RQ":
		return StatusOnRequest
	case "NA":
		return StatusUnavailable
	default:
		return StatusUnknown
	}
}

// Rank orders statuses for display: Available first, then OnRequest,
// then everything that cannot be booked.
func (s AvailabilityStatus) Rank() int {
	switch s {
	case StatusAvailable:
		return 0
	case StatusOnRequest:
		return 1
	default:
		return 2
	}
}

// AvailabilityRow is one bookable rate for one supplier option on one date range.
type AvailabilityRow struct {
	OptID              string             `json:"optId"`
	RateID             string             `json:"rateId"`
	SupplierCode       string             `json:"supplierCode"`
	SupplierName       string             `json:"supplierName"`
	ServiceDescription string             `json:"serviceDescription"`
	ServiceLabel       string             `json:"serviceLabel"`
	LocalityLabel      string             `json:"localityLabel"`
	Destination        string             `json:"destination,omitempty"`
	StarRating         string             `json:"starRating"`
	SupplierStatus     string             `json:"supplierStatus"`
	RoomType           string             `json:"roomType"`
	AvailabilityStatus AvailabilityStatus `json:"availabilityStatus"`
	RateCategory       string             `json:"rateCategory"`
	RateDescription    string             `json:"rateDescription"`

	// NetAmount and SellAmount are display values produced by the pricing
	// function; the minor-unit fields keep what the provider sent.
	NetAmount  string `json:"netAmount"`
	SellAmount string `json:"sellAmount"`
	NetMinor   int64  `json:"netMinor"`
	SellMinor  int64  `json:"sellMinor"`
	Currency   string `json:"currency"`

	CancellationAllowed bool   `json:"cancellationAllowed"`
	ChildPolicySummary  string `json:"childPolicySummary"`

	DateStart    string `json:"dateStart"`
	DateEnd      string `json:"dateEnd"`
	DateKey      string `json:"dateKey"`
	SelectionKey string `json:"selectionKey"`

	// IsSelected is always re-derived from the selection set.
	IsSelected  bool `json:"isSelected"`
	AddDisabled bool `json:"addDisabled"`
}

// Bookable reports whether the row may be committed to a quote.
func (r AvailabilityRow) Bookable() bool {
	return r.AvailabilityStatus != StatusUnavailable
}

// SupplierGroup holds the rows sharing (supplier code, date key).
type SupplierGroup struct {
	GroupKey         string            `json:"groupKey"`
	SupplierCode     string            `json:"supplierCode"`
	SupplierName     string            `json:"supplierName"`
	DateKey          string            `json:"dateKey"`
	DateStart        string            `json:"dateStart"`
	DateEnd          string            `json:"dateEnd"`
	EffectiveFilters SearchFilters     `json:"effectiveFilters"`
	Items            []AvailabilityRow `json:"items"`
	IsLoading        bool              `json:"isLoading"`
}

// Placeholder reports a supplier that was requested but has not returned rows yet.
func (g SupplierGroup) Placeholder() bool { return len(g.Items) == 0 }

// DateSection holds the supplier groups sharing a date key.
type DateSection struct {
	DateKey            string          `json:"dateKey"`
	DateStart          string          `json:"dateStart"`
	DateEnd            string          `json:"dateEnd"`
	TitleLabel         string          `json:"titleLabel"`
	DayOffsetLabel     string          `json:"dayOffsetLabel"`
	DestinationSummary string          `json:"destinationSummary"`
	Groups             []SupplierGroup `json:"groups"`
}

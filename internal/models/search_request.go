package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/validator"
)

const DateLayout = "2006-01-02"

// SearchFilters are the operator's search inputs.
type SearchFilters struct {
	ServiceType    string `json:"serviceType" validate:"required"`
	Location       string `json:"location" validate:"required"`
	StartDate      string `json:"startDate" validate:"required,datetime=2006-01-02"`
	Nights         int    `json:"nights" validate:"required,min=1,max=30"`
	Rooms          int    `json:"rooms" validate:"omitempty,min=1,max=20"`
	StarRating     string `json:"starRating,omitempty"`
	SupplierCode   string `json:"supplierCode,omitempty"`
	SupplierStatus string `json:"supplierStatus,omitempty"`
}

// EndDate is StartDate plus Nights, or empty when either is unusable.
func (f SearchFilters) EndDate() string {
	if f.StartDate == "" || f.Nights <= 0 {
		return ""
	}
	t, err := time.Parse(DateLayout, f.StartDate)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, f.Nights).Format(DateLayout)
}

// Validate reports missing required fields as a MissingContextError and any
// other constraint failure as ErrInvalidFilters.
func (f *SearchFilters) Validate() error {
	f.ServiceType = strings.TrimSpace(f.ServiceType)
	f.Location = strings.TrimSpace(f.Location)
	f.StartDate = strings.TrimSpace(f.StartDate)

	issues := validator.Struct(f)
	if len(issues) == 0 {
		return nil
	}
	var missing, invalid []string
	for _, is := range issues {
		if is.Tag == "required" {
			missing = append(missing, is.Field)
			continue
		}
		invalid = append(invalid, is.String())
	}
	if len(missing) > 0 {
		return &MissingContextError{Fields: missing}
	}
	return fmt.Errorf("%w: %s", ErrInvalidFilters, strings.Join(invalid, ", "))
}

// GroupOverride replaces parts of the global filters for one supplier.
// Zero values fall back to the global filters.
type GroupOverride struct {
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	Nights     int    `json:"nights,omitempty"`
	Rooms      int    `json:"rooms,omitempty"`
	StarRating string `json:"starRating,omitempty"`
}

// Apply layers the override on top of global.
func (o GroupOverride) Apply(global SearchFilters) SearchFilters {
	out := global
	if o.StartDate != "" {
		out.StartDate = o.StartDate
	}
	if o.Nights > 0 {
		out.Nights = o.Nights
	} else if o.EndDate != "" {
		if n := nightsBetween(out.StartDate, o.EndDate); n > 0 {
			out.Nights = n
		}
	}
	if o.Rooms > 0 {
		out.Rooms = o.Rooms
	}
	if o.StarRating != "" {
		out.StarRating = o.StarRating
	}
	return out
}

func nightsBetween(start, end string) int {
	s, err := validator.ValidateDate(start)
	if err != nil {
		return 0
	}
	e, err := validator.ValidateDate(end)
	if err != nil {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}

// SearchRequest is what the engine hands to the provider transport.
type SearchRequest struct {
	QuoteID      string       `json:"quoteId"`
	ServiceType  string       `json:"serviceType"`
	Location     string       `json:"location"`
	StartDate    string       `json:"startDate"`
	Nights       int          `json:"nights"`
	SupplierCode string       `json:"supplierCode,omitempty"`
	StarRating   string       `json:"starRating,omitempty"`
	Rooms        []RoomConfig `json:"rooms"`
}

// NewSearchRequest builds a provider request from filters and the current rooms.
func NewSearchRequest(quoteID string, f SearchFilters, rooms []RoomConfig) *SearchRequest {
	rs := make([]RoomConfig, len(rooms))
	copy(rs, rooms)
	return &SearchRequest{
		QuoteID:      quoteID,
		ServiceType:  f.ServiceType,
		Location:     f.Location,
		StartDate:    f.StartDate,
		Nights:       f.Nights,
		SupplierCode: f.SupplierCode,
		StarRating:   f.StarRating,
		Rooms:        rs,
	}
}

// EndDate mirrors SearchFilters.EndDate.
func (r *SearchRequest) EndDate() string {
	return SearchFilters{StartDate: r.StartDate, Nights: r.Nights}.EndDate()
}

// CacheKey identifies requests that would return the same provider payload.
func (r *SearchRequest) CacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%d|%s|%s", r.ServiceType, strings.ToLower(r.Location), r.StartDate, r.Nights, r.SupplierCode, r.StarRating)
	for _, room := range r.Rooms {
		fmt.Fprintf(&b, "|%s:%d/%d/%d", room.RoomType, room.Adults, room.Children, room.Infants)
	}
	return b.String()
}

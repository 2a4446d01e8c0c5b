// Package commit writes selected rows to the quote backend one at a time.
package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/rooms"
)

const (
	LineItemStatus = "Not Booked"
	ServiceType    = "Accommodation"
)

// Backend is the slice of the quote store the orchestrator needs.
type Backend interface {
	LookupOptionDetail(ctx context.Context, optID string) (models.OptionDetail, error)
	Commit(ctx context.Context, req models.CommitRequest) ([]string, error)
}

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Outcome aggregates one commit batch.
type Outcome struct {
	Status    Status                   `json:"status"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	Committed []string                 `json:"committed"`
	Failures  []*models.RowCommitError `json:"failures,omitempty"`
}

func (o Outcome) Total() int { return o.Succeeded + o.Failed }

// Summary reads e.g. "partial success: 1/2".
func (o Outcome) Summary() string {
	switch o.Status {
	case StatusSucceeded:
		return fmt.Sprintf("all succeeded: %d/%d", o.Succeeded, o.Total())
	case StatusPartial:
		return fmt.Sprintf("partial success: %d/%d", o.Succeeded, o.Total())
	default:
		return fmt.Sprintf("all failed: %d/%d", o.Succeeded, o.Total())
	}
}

// Input is everything one batch needs, captured from the session.
type Input struct {
	QuoteID string
	Rows    []models.AvailabilityRow
	Rooms   []models.RoomConfig
	Totals  models.PassengerTotals
	// Filters are the effective filters of each row's supplier, by code.
	Filters map[string]models.SearchFilters
	// SupplierRooms are the rooms each supplier was searched with, by code.
	// Suppliers missing here use Rooms.
	SupplierRooms map[string][]models.RoomConfig
}

type Orchestrator struct {
	backend Backend
	logger  *slog.Logger
	metrics *obs.Metrics
	newID   func() string
}

func NewOrchestrator(b Backend, logger *slog.Logger, m *obs.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{backend: b, logger: logger, metrics: m, newID: uuid.NewString}
}

// Commit validates rooms, then commits each bookable row strictly in order.
// onSuccess runs after each successful row, before the next row starts.
// A row failure is recorded and the loop moves on.
func (o *Orchestrator) Commit(ctx context.Context, in Input, onSuccess func(selectionKey string)) (Outcome, error) {
	var rows []models.AvailabilityRow
	for _, r := range in.Rows {
		if r.Bookable() {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return Outcome{}, models.ErrNothingSelected
	}
	if err := rooms.ValidateExact(in.Rooms, in.Totals); err != nil {
		return Outcome{}, err
	}

	var out Outcome
	for _, r := range rows {
		if err := o.commitRow(ctx, in, r); err != nil {
			var rce *models.RowCommitError
			if !errors.As(err, &rce) {
				rce = &models.RowCommitError{SelectionKey: r.SelectionKey, Messages: []string{err.Error()}}
			}
			out.Failed++
			out.Failures = append(out.Failures, rce)
			o.metrics.IncCommitRow("failed")
			o.logger.Warn("row commit failed", "quote_id", in.QuoteID, "selection_key", r.SelectionKey, "error", err)
			continue
		}
		out.Succeeded++
		out.Committed = append(out.Committed, r.SelectionKey)
		o.metrics.IncCommitRow("ok")
		if onSuccess != nil {
			onSuccess(r.SelectionKey)
		}
	}

	switch {
	case out.Failed == 0:
		out.Status = StatusSucceeded
	case out.Succeeded == 0:
		out.Status = StatusFailed
	default:
		out.Status = StatusPartial
	}
	o.metrics.IncCommitBatch(string(out.Status))
	o.logger.Info("commit batch finished", "quote_id", in.QuoteID, "outcome", out.Summary())
	return out, nil
}

func (o *Orchestrator) commitRow(ctx context.Context, in Input, r models.AvailabilityRow) error {
	detail, err := o.backend.LookupOptionDetail(ctx, r.OptID)
	if err != nil {
		return &models.TransportError{Op: "lookup option " + r.OptID, Err: err}
	}
	if detail.ExternalID == "" {
		return &models.RowCommitError{SelectionKey: r.SelectionKey, Messages: []string{"option " + r.OptID + " has no external id"}}
	}

	req := o.buildRequest(in, r, detail)
	msgs, err := o.backend.Commit(ctx, req)
	if err != nil {
		return &models.TransportError{Op: "commit " + r.SelectionKey, Err: err}
	}
	if len(msgs) > 0 {
		return &models.RowCommitError{SelectionKey: r.SelectionKey, Messages: msgs}
	}
	return nil
}

// buildRequest carries the row's own dates and its supplier's rooms, falling
// back to the supplier's effective filters when the row is undated.
func (o *Orchestrator) buildRequest(in Input, r models.AvailabilityRow, d models.OptionDetail) models.CommitRequest {
	f := in.Filters[r.SupplierCode]
	rs, ok := in.SupplierRooms[r.SupplierCode]
	if !ok {
		rs = in.Rooms
	}
	date := r.DateStart
	if date == "" {
		date = f.StartDate
	}
	days := nights(r.DateStart, r.DateEnd)
	if days == 0 {
		days = f.Nights
	}

	name := d.SupplierName
	if name == "" {
		name = r.SupplierName
	}
	serviceType := d.ServiceType
	if serviceType == "" {
		serviceType = ServiceType
	}
	location := d.Location
	if location == "" {
		location = f.Location
	}

	return models.CommitRequest{
		ID:                       o.newID(),
		QuoteID:                  in.QuoteID,
		SelectionKey:             r.SelectionKey,
		LineItemName:             name,
		ServiceType:              serviceType,
		Location:                 location,
		SupplierName:             name,
		SupplierID:               d.SupplierID,
		ServiceDetail:            d.Description,
		ServiceDetailDisplayName: d.DisplayLabel(),
		Status:                   LineItemStatus,
		ServiceDate:              date,
		NumberOfDays:             days,
		RateID:                   r.RateID,
		NetAmount:                r.NetAmount,
		SellAmount:               r.SellAmount,
		SelectedOptionExternalID: d.ExternalID,
		Rooms:                    models.RoomConfigurations(rs),
	}
}

func nights(start, end string) int {
	s, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return 0
	}
	e, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}

// Package storage provides the quote backend the engine reads passenger
// totals and option details from and commits selected rows to.
package storage

import (
	"context"
	"errors"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store is implemented by the sqlite and postgres backends.
type Store interface {
	// LookupOptionDetail resolves the option record behind a row.
	LookupOptionDetail(ctx context.Context, optID string) (models.OptionDetail, error)

	// Commit writes one quote line item. A non-empty message list is a
	// row-level rejection; the error is reserved for backend failures.
	Commit(ctx context.Context, req models.CommitRequest) ([]string, error)

	// PassengerTotals returns the passenger counts recorded on a quote.
	PassengerTotals(ctx context.Context, quoteID string) (models.PassengerTotals, error)

	// SaveQuote and SaveOptionDetail seed reference data.
	SaveQuote(ctx context.Context, quoteID string, totals models.PassengerTotals) error
	SaveOptionDetail(ctx context.Context, d models.OptionDetail) error

	// LineItems lists what has been committed to a quote.
	LineItems(ctx context.Context, quoteID string) ([]models.CommitRequest, error)

	Ping(ctx context.Context) error
	Close() error
}

// CommitChecks are the row-level rejections shared by both backends.
func CommitChecks(req models.CommitRequest) []string {
	var msgs []string
	if req.QuoteID == "" {
		msgs = append(msgs, "quote id is required")
	}
	if req.SelectedOptionExternalID == "" {
		msgs = append(msgs, "selected option has no external id")
	}
	if req.ServiceDate == "" {
		msgs = append(msgs, "service date is required")
	}
	if len(req.Rooms) == 0 {
		msgs = append(msgs, "at least one room is required")
	}
	return msgs
}

package app

import (
	"context"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/commit"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/providers"
)

const DemoQuoteID = "Q-DEMO"

// DemoTotals are the passengers on the demo quote.
var DemoTotals = models.PassengerTotals{Adults: 4, Children: 2, Infants: 1}

// Seed records the demo quote and an option detail for every supplier the
// mock inventory serves. Running it again overwrites the same records.
func Seed(ctx context.Context, store interface {
	SaveQuote(ctx context.Context, quoteID string, t models.PassengerTotals) error
	SaveOptionDetail(ctx context.Context, d models.OptionDetail) error
}) error {
	if err := store.SaveQuote(ctx, DemoQuoteID, DemoTotals); err != nil {
		return err
	}
	for _, s := range providers.Catalogue() {
		d := models.OptionDetail{
			OptID:        s.OptID(),
			ExternalID:   "EXT-" + s.Code,
			Description:  "Standard Room",
			Comment:      s.Locality,
			ServiceType:  commit.ServiceType,
			Location:     s.Locality,
			SupplierID:   "SUP-" + s.Code,
			SupplierName: s.Name,
		}
		if err := store.SaveOptionDetail(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

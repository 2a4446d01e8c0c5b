package models

// OptionDetail is the backing record of one provider option, resolved
// before a row is committed.
type OptionDetail struct {
	OptID        string `json:"optId"`
	ExternalID   string `json:"externalId"`
	Description  string `json:"description"`
	Comment      string `json:"comment"`
	ServiceType  string `json:"serviceType"`
	Location     string `json:"location"`
	SupplierID   string `json:"supplierId"`
	SupplierName string `json:"supplierName"`
}

// DisplayLabel is the "Description || Comment" label used on quote lines.
func (d OptionDetail) DisplayLabel() string {
	return d.Description + " || " + d.Comment
}

// RoomConfiguration is one room as written on a quote line.
type RoomConfiguration struct {
	Order          int    `json:"order"`
	ServiceType    string `json:"serviceType"`
	ServiceSubtype string `json:"serviceSubtype"`
	Adults         int    `json:"adults"`
	Children       int    `json:"children"`
	Infants        int    `json:"infants"`
	Passengers     int    `json:"passengers"`
}

// CommitRequest persists one selected row as a quote line item.
type CommitRequest struct {
	ID                       string              `json:"id"`
	QuoteID                  string              `json:"quoteId"`
	SelectionKey             string              `json:"selectionKey"`
	LineItemName             string              `json:"lineItemName"`
	ServiceType              string              `json:"serviceType"`
	Location                 string              `json:"location"`
	SupplierName             string              `json:"supplierName"`
	SupplierID               string              `json:"supplierId"`
	ServiceDetail            string              `json:"serviceDetail"`
	ServiceDetailDisplayName string              `json:"serviceDetailDisplayName"`
	Status                   string              `json:"status"`
	ServiceDate              string              `json:"serviceDate"`
	NumberOfDays             int                 `json:"numberOfDays"`
	RateID                   string              `json:"rateId"`
	NetAmount                string              `json:"netAmount"`
	SellAmount               string              `json:"sellAmount"`
	SelectedOptionExternalID string              `json:"selectedOptionExternalId"`
	Rooms                    []RoomConfiguration `json:"rooms"`
}

// RoomConfigurations converts engine rooms into quote-line rooms.
func RoomConfigurations(rooms []RoomConfig) []RoomConfiguration {
	out := make([]RoomConfiguration, 0, len(rooms))
	for i, r := range rooms {
		out = append(out, RoomConfiguration{
			Order:          i + 1,
			ServiceType:    "Accommodation",
			ServiceSubtype: r.RoomType,
			Adults:         r.Adults,
			Children:       r.Children,
			Infants:        r.Infants,
			Passengers:     r.Adults + r.Children + r.Infants,
		})
	}
	return out
}

// Package keys derives the composite identities every other component uses
// to decide whether two rows are the same offer.
package keys

import "github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"

const (
	supplierCodeOffset = 5
	supplierCodeLen    = 6
)

// SupplierCode is the six characters at offset 5 of an option id, or empty
// when the id is too short.
func SupplierCode(optID string) string {
	if len(optID) < supplierCodeOffset+supplierCodeLen {
		return ""
	}
	return optID[supplierCodeOffset : supplierCodeOffset+supplierCodeLen]
}

// DateKey joins start and end. Rows with no dates at all share the empty key.
func DateKey(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	return start + "|" + end
}

// SelectionKey identifies one offer: option, rate and date context.
func SelectionKey(optID, rateID, dateKey string) string {
	return optID + "#" + rateID + "|" + dateKey
}

// GroupKey identifies the supplier group a row belongs to.
func GroupKey(supplierCode, dateKey string) string {
	return supplierCode + dateKey
}

// Tag fills the derived identity fields of a row in place.
func Tag(r *models.AvailabilityRow) {
	r.SupplierCode = SupplierCode(r.OptID)
	r.DateKey = DateKey(r.DateStart, r.DateEnd)
	r.SelectionKey = SelectionKey(r.OptID, r.RateID, r.DateKey)
}

// RowGroupKey is GroupKey for an already tagged row.
func RowGroupKey(r models.AvailabilityRow) string {
	return GroupKey(r.SupplierCode, r.DateKey)
}

// Package rooms distributes a quote's passengers across rooms and checks
// manual distributions against the quote totals.
package rooms

import (
	"fmt"
	"math"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
)

const MaxRooms = 20

// Field names accepted by ApplyManualEdit.
const (
	FieldAdults   = "adults"
	FieldChildren = "children"
	FieldInfants  = "infants"
	FieldRoomType = "roomType"
)

// Resize grows or truncates rooms to count, keeping occupants by index.
// New rooms start empty with the default room type. A count below one
// yields no rooms.
func Resize(current []models.RoomConfig, count int) []models.RoomConfig {
	if count < 1 {
		return []models.RoomConfig{}
	}
	if count > MaxRooms {
		count = MaxRooms
	}
	out := make([]models.RoomConfig, count)
	for i := range out {
		if i < len(current) {
			out[i] = current[i]
		} else {
			out[i] = models.RoomConfig{RoomType: models.DefaultRoomType}
		}
		if out[i].RoomType == "" {
			out[i].RoomType = models.DefaultRoomType
		}
		out[i].Index = i
		out[i].Recount()
	}
	return out
}

// AllEmpty reports whether no room holds anyone.
func AllEmpty(rooms []models.RoomConfig) bool {
	for _, r := range rooms {
		if r.Adults+r.Children+r.Infants > 0 {
			return false
		}
	}
	return true
}

// AutoDistribute splits each class total evenly over roomCount rooms, giving
// the remainder to the first rooms: 5 adults over 2 rooms is 3 and 2.
func AutoDistribute(totals models.PassengerTotals, roomCount int) []models.RoomConfig {
	if roomCount < 1 {
		return []models.RoomConfig{}
	}
	out := make([]models.RoomConfig, roomCount)
	for i := range out {
		out[i] = models.RoomConfig{
			Index:    i,
			RoomType: models.DefaultRoomType,
			Adults:   share(totals.Adults, roomCount, i),
			Children: share(totals.Children, roomCount, i),
			Infants:  share(totals.Infants, roomCount, i),
		}
		out[i].Recount()
	}
	return out
}

func share(total, n, i int) int {
	if total <= 0 {
		return 0
	}
	s := total / n
	if i < total%n {
		s++
	}
	return s
}

// Rebalance fills rooms from the totals, but only while every room is empty.
// Once anyone has been placed the rooms are returned untouched.
func Rebalance(current []models.RoomConfig, totals models.PassengerTotals) []models.RoomConfig {
	if !AllEmpty(current) || len(current) == 0 {
		return current
	}
	out := AutoDistribute(totals, len(current))
	for i := range out {
		if current[i].RoomType != "" {
			out[i].RoomType = current[i].RoomType
		}
	}
	return out
}

// ValidateExact fails unless the rooms hold exactly the quote totals.
func ValidateExact(rooms []models.RoomConfig, totals models.PassengerTotals) error {
	got := models.Sum(rooms)
	if got != totals {
		return &models.RoomMismatchError{Want: totals, Got: got}
	}
	return nil
}

// ApplyManualEdit returns a copy of rooms with one field changed. Counts are
// clamped at zero. The edit is rejected, leaving rooms untouched, when it
// would push a room over its per-room cap or the rooms as a whole over the
// quote total for that class.
func ApplyManualEdit(rooms []models.RoomConfig, index int, field string, value any, totals models.PassengerTotals, limits models.RoomLimits) ([]models.RoomConfig, error) {
	if index < 0 || index >= len(rooms) {
		return rooms, fmt.Errorf("%w: room index %d out of range", models.ErrInvalidFilters, index)
	}
	out := make([]models.RoomConfig, len(rooms))
	copy(out, rooms)
	room := &out[index]

	if field == FieldRoomType {
		rt, ok := value.(string)
		if !ok || !validRoomType(rt) {
			return rooms, fmt.Errorf("%w: unknown room type %v", models.ErrInvalidFilters, value)
		}
		room.RoomType = rt
		return out, nil
	}

	n, err := toCount(value)
	if err != nil {
		return rooms, err
	}
	var class models.PassengerClass
	switch field {
	case FieldAdults:
		room.Adults, class = n, models.ClassAdult
	case FieldChildren:
		room.Children, class = n, models.ClassChild
	case FieldInfants:
		room.Infants, class = n, models.ClassInfant
	default:
		return rooms, fmt.Errorf("%w: unknown room field %q", models.ErrInvalidFilters, field)
	}
	room.Recount()

	if max := limits.Of(class); max > 0 && n > max {
		return rooms, &models.CapacityExceededError{Class: class, Limit: max, Got: n, PerRoom: true}
	}
	if sum := models.Sum(out).Of(class); sum > totals.Of(class) {
		return rooms, &models.CapacityExceededError{Class: class, Limit: totals.Of(class), Got: sum}
	}
	return out, nil
}

// toCount accepts whole numbers only. JSON numbers arrive as float64, so a
// fractional or out-of-range value is rejected rather than truncated.
func toCount(v any) (int, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: room count must be a whole number, got %v", models.ErrInvalidFilters, x)
		}
		if x > math.MaxInt32 || x < math.MinInt32 {
			return 0, fmt.Errorf("%w: room count %v out of range", models.ErrInvalidFilters, x)
		}
		n = int64(x)
	default:
		return 0, fmt.Errorf("%w: room count must be a number, got %T", models.ErrInvalidFilters, v)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: room count %d out of range", models.ErrInvalidFilters, n)
	}
	if n < 0 {
		n = 0
	}
	return int(n), nil
}

func validRoomType(rt string) bool {
	for _, t := range models.RoomTypes {
		if t == rt {
			return true
		}
	}
	return false
}

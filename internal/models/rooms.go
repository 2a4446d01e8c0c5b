package models

const DefaultRoomType = "DOUBLE AVAIL"

// RoomTypes lists the room types an operator may pick.
var RoomTypes = []string{"SINGLE AVAIL", "DOUBLE AVAIL", "TWIN AVAIL"}

// PassengerClass names one of the three occupant classes.
type PassengerClass string

const (
	ClassAdult  PassengerClass = "Adult"
	ClassChild  PassengerClass = "Child"
	ClassInfant PassengerClass = "Infant"
)

// RoomConfig is one room's occupant allocation.
type RoomConfig struct {
	Index          int    `json:"index"`
	RoomType       string `json:"roomType"`
	Adults         int    `json:"adults"`
	Children       int    `json:"children"`
	Infants        int    `json:"infants"`
	PassengerCount int    `json:"passengerCount"`
}

// Recount refreshes PassengerCount from the three occupant fields.
func (r *RoomConfig) Recount() {
	r.PassengerCount = r.Adults + r.Children + r.Infants
}

// PassengerTotals are the quote-level passenger counts per class.
type PassengerTotals struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// Of returns the count for one class.
func (t PassengerTotals) Of(c PassengerClass) int {
	switch c {
	case ClassAdult:
		return t.Adults
	case ClassChild:
		return t.Children
	case ClassInfant:
		return t.Infants
	}
	return 0
}

// Sum totals the occupants of a room list.
func Sum(rooms []RoomConfig) PassengerTotals {
	var t PassengerTotals
	for _, r := range rooms {
		t.Adults += r.Adults
		t.Children += r.Children
		t.Infants += r.Infants
	}
	return t
}

// RoomLimits caps occupants per room; zero means no cap.
type RoomLimits struct {
	MaxAdults   int
	MaxChildren int
	MaxInfants  int
}

// Of returns the per-room cap for one class.
func (l RoomLimits) Of(c PassengerClass) int {
	switch c {
	case ClassAdult:
		return l.MaxAdults
	case ClassChild:
		return l.MaxChildren
	case ClassInfant:
		return l.MaxInfants
	}
	return 0
}

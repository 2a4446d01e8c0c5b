package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// maxNesting bounds how deep options may sit under "result" keys or
// JSON-encoded strings.
const maxNesting = 4

type rawOption struct {
	OptID   flexString `json:"OptId"`
	General rawGeneral `json:"OptGeneral"`
	Stays   []rawStay  `json:"OptStayResults"`
}

type rawGeneral struct {
	SupplierName        string `json:"SupplierName"`
	SupplierStatus      string `json:"SupplierStatus"`
	Description         string `json:"Description"`
	Comment             string `json:"Comment"`
	LocalityDescription string `json:"LocalityDescription"`
	Locality            string `json:"Locality"`
	ClassDescription    string `json:"ClassDescription"`
	Class               string `json:"Class"`
	Destination         string `json:"Destination"`

	AdultFrom  flexString `json:"Adult_From"`
	AdultTo    flexString `json:"Adult_To"`
	ChildFrom  flexString `json:"Child_From"`
	ChildTo    flexString `json:"Child_To"`
	InfantFrom flexString `json:"Infant_From"`
	InfantTo   flexString `json:"Infant_To"`
}

type rawStay struct {
	RateID       flexString  `json:"RateId"`
	Availability string      `json:"Availability"`
	AgentPrice   flexNumber  `json:"AgentPrice"`
	TotalPrice   flexNumber  `json:"TotalPrice"`
	Currency     string      `json:"Currency"`
	CancelHours  flexNumber  `json:"CancelHours"`
	RateText     string      `json:"RateText"`
	RateName     string      `json:"RateName"`
	RoomType     string      `json:"RoomType"`
	DateFrom     string      `json:"DateFrom"`
	DateTo       string      `json:"DateTo"`
	External     rawExternal `json:"ExternalRateDetails"`
}

type rawExternal struct {
	PlanDescription   string `json:"ExtRatePlanDescr"`
	OptionDescription string `json:"ExtOptionDescr"`
}

// flexNumber accepts a JSON number, a numeric string, or null.
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	n.Value, n.Set = v, true
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// collectOptions flattens the option entries found under (possibly nested)
// "result" keys. Anything that is not an object carrying "result" is taken
// to be an option.
func collectOptions(raw json.RawMessage, depth int) ([]json.RawMessage, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("nesting deeper than %d levels", maxNesting)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		return collectOptions(json.RawMessage(inner), depth+1)
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, err
		}
		var out []json.RawMessage
		for _, e := range elems {
			if res, ok, _ := resultOf(e); ok {
				opts, err := collectOptions(res, depth+1)
				if err != nil {
					return nil, err
				}
				out = append(out, opts...)
				continue
			}
			out = append(out, e)
		}
		return out, nil
	case '{':
		res, ok, err := resultOf(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			return collectOptions(res, depth+1)
		}
		return []json.RawMessage{raw}, nil
	}
	return nil, fmt.Errorf("unexpected payload starting with %q", raw[0])
}

// resultOf returns the "result" member of an object. Elements of an already
// decoded array are well formed, so only a top-level object can fail here.
func resultOf(raw json.RawMessage) (json.RawMessage, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false, err
	}
	res, ok := obj["result"]
	return res, ok, nil
}

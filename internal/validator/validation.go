package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	playground "github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *playground.Validate
)

func instance() *playground.Validate {
	once.Do(func() {
		validate = playground.New()
		// report json names so callers can echo them back to the operator
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Issue is one failed constraint on one field.
type Issue struct {
	Field string
	Tag   string
	Param string
}

func (i Issue) String() string {
	if i.Param == "" {
		return fmt.Sprintf("%s failed %s", i.Field, i.Tag)
	}
	return fmt.Sprintf("%s failed %s=%s", i.Field, i.Tag, i.Param)
}

// Struct validates v against its `validate` tags.
func Struct(v any) []Issue {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Field: "", Tag: err.Error()}}
	}
	out := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Issue{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

func ValidateDate(dateStr string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, errors.New("invalid date")
	}
	return t, nil
}

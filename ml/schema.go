package ml

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Schema is the ordered list of form fields a model consumes. A field's
// index in the schema is its column in the feature row.
type Schema []string

var bankMarketing = Schema{
	"age",
	"job",
	"marital",
	"education",
	"default",
	"housing",
	"loan",
	"contact",
	"month",
	"day_of_week",
	"duration",
	"campaign",
	"pdays",
	"previous",
	"poutcome",
	"emp_var_rate",
	"cons_price_idx",
	"cons_conf_idx",
	"euribor3m",
	"nr_employed",
}

// DefaultSchema returns the 20 term-deposit features in model column order.
func DefaultSchema() Schema {
	return append(Schema(nil), bankMarketing...)
}

func (s Schema) Len() int { return len(s) }

func (s Schema) Equal(other []string) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// FieldError describes one form value that could not be used.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

// FormError collects every problem found in a submitted form.
type FormError struct {
	Expected int
	Missing  []string
	Unknown  []string
	Invalid  []FieldError
}

func (e *FormError) Error() string {
	parts := make([]string, 0, 3)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown "+strings.Join(e.Unknown, ", "))
	}
	for _, fe := range e.Invalid {
		parts = append(parts, fmt.Sprintf("%s=%q %s", fe.Field, fe.Value, fe.Reason))
	}
	return fmt.Sprintf("expected %d numeric fields: %s", e.Expected, strings.Join(parts, "; "))
}

func (e *FormError) Unwrap() error { return ErrInvalidInput }

func (e *FormError) empty() bool {
	return len(e.Missing) == 0 && len(e.Unknown) == 0 && len(e.Invalid) == 0
}

// Vector converts a submitted form into a 1xN feature row. Each value is
// placed by field name; submission order is irrelevant.
func (s Schema) Vector(form url.Values) (*mat.Dense, error) {
	ferr := &FormError{Expected: len(s)}
	known := make(map[string]struct{}, len(s))
	row := make([]float64, len(s))

	for i, name := range s {
		known[name] = struct{}{}
		values := form[name]
		if len(values) == 0 {
			ferr.Missing = append(ferr.Missing, name)
			continue
		}
		if len(values) > 1 {
			ferr.Invalid = append(ferr.Invalid, FieldError{Field: name, Value: strings.Join(values, ","), Reason: "submitted more than once"})
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			ferr.Invalid = append(ferr.Invalid, FieldError{Field: name, Value: values[0], Reason: "is not a number"})
			continue
		}
		row[i] = v
	}
	for name := range form {
		if _, ok := known[name]; !ok {
			ferr.Unknown = append(ferr.Unknown, name)
		}
	}
	sort.Strings(ferr.Unknown)

	if !ferr.empty() {
		return nil, ferr
	}
	return mat.NewDense(1, len(s), row), nil
}

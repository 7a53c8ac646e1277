package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a computed figure that may be missing. A missing metric is
// serialized as JSON null and never carries NaN or Inf.
type Metric struct {
	Value float64
	Valid bool
}

// NewMetric returns a valid metric, or a missing one when v is not finite.
func NewMetric(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{Value: v, Valid: true}
}

// MissingMetric returns the missing-value marker.
func MissingMetric() Metric {
	return Metric{}
}

// Ratio divides num by den, returning a missing metric when either input is
// missing or den is zero.
func Ratio(num, den Metric) Metric {
	if !num.Valid || !den.Valid || den.Value == 0 {
		return Metric{}
	}
	return NewMetric(num.Value / den.Value)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(m.Value, 'g', -1, 64)), nil
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = NewMetric(v)
	return nil
}

// String renders the raw value, or "n/a" when missing.
func (m Metric) String() string {
	if !m.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

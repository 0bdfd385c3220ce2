package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// NullScore is a 0-100 score that may be undefined.
// An undefined score means "not evaluated" and is never the same as 0.
type NullScore struct {
	Value float64
	Valid bool
}

// Defined returns a valid NullScore holding v.
func Defined(v float64) NullScore {
	return NullScore{Value: v, Valid: true}
}

// Undefined returns the "not evaluated" marker.
func Undefined() NullScore {
	return NullScore{}
}

// Float returns the value and whether it is defined.
func (s NullScore) Float() (float64, bool) {
	return s.Value, s.Valid
}

// String renders the score with two decimals, or "unscored".
func (s NullScore) String() string {
	if !s.Valid {
		return "unscored"
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// MarshalJSON encodes undefined scores as null.
func (s NullScore) MarshalJSON() ([]byte, error) {
	if !s.Valid || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts a number or null.
func (s *NullScore) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Defined(v)
	return nil
}

// FactorScore is one factor's evaluation for one idea.
type FactorScore struct {
	FactorKey string  `json:"factor_key"`
	Score     float64 `json:"score"`               // Clamped to [0,100]
	Rationale string  `json:"rationale,omitempty"` // Free text from the oracle, kept for audit
	Clamped   bool    `json:"clamped,omitempty"`   // Raw value was outside [0,100]
	RawScore  float64 `json:"raw_score,omitempty"` // Original value when Clamped
}

// CategoryScore is one category's aggregated result for one idea.
type CategoryScore struct {
	CategoryKey  string    `json:"category_key"`
	Score        NullScore `json:"score"`         // Weighted average, null when nothing was scored
	CountScored  int       `json:"count_scored"`  // Factors that contributed
	CountDefined int       `json:"count_defined"` // Factors configured in the catalog
}

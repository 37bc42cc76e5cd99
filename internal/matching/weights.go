package matching

import (
	"errors"
	"fmt"
	"math"

	"github.com/spigell/outlet-matcher/internal/feedback"
)

// Field names. They double as feedback flags and weight keys.
const (
	FieldIndustry     = "Industry Match"
	FieldKeywords     = "Keywords"
	FieldNews         = "News Match"
	FieldAudience     = "Audience"
	FieldContentType  = "Content Type"
	FieldRequirements = "Requirements"
	FieldExpertise    = "Outlet Expertise"
	FieldPrestige     = "Prestige"
)

const (
	MinWeight = 0.1
	MaxWeight = 5.0
)

var ErrUnknownField = errors.New("unknown field")

// Fields lists the scoring fields in presentation order.
var Fields = []string{
	FieldIndustry,
	FieldKeywords,
	FieldNews,
	FieldAudience,
	FieldContentType,
	FieldRequirements,
	FieldExpertise,
	FieldPrestige,
}

// Weights maps a field to its strictly positive weight. A published Weights
// value is never modified; changes build a new one.
type Weights map[string]float64

func DefaultWeights() Weights {
	return Weights{
		FieldIndustry:     2.0,
		FieldKeywords:     1.5,
		FieldNews:         1.0,
		FieldAudience:     1.5,
		FieldContentType:  1.0,
		FieldRequirements: 1.0,
		FieldExpertise:    1.0,
		FieldPrestige:     1.0,
	}
}

// ClampWeight bounds a manual override to [MinWeight, MaxWeight].
func ClampWeight(v float64) float64 {
	return math.Min(math.Max(v, MinWeight), MaxWeight)
}

func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for field, weight := range w {
		out[field] = weight
	}
	return out
}

// Sum is the normalization denominator.
func (w Weights) Sum() float64 {
	var sum float64
	for _, field := range Fields {
		sum += w[field]
	}
	return sum
}

// With returns a copy of w with the overrides applied and clamped.
func (w Weights) With(overrides map[string]float64) (Weights, error) {
	out := w.clone()
	for field, value := range overrides {
		if !isField(field) {
			return nil, fmt.Errorf("%w %q", ErrUnknownField, field)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("weight for %q must be a finite number", field)
		}
		out[field] = ClampWeight(value)
	}
	return out, nil
}

// Recalibrate returns a copy of w where every field with feedback data gets
// its learned weight. Unknown fields in the log are ignored.
func (w Weights) Recalibrate(records []feedback.Record) Weights {
	out := w.clone()
	for field, weight := range feedback.Weights(records) {
		if isField(field) {
			out[field] = weight
		}
	}
	return out
}

func isField(name string) bool {
	for _, field := range Fields {
		if field == name {
			return true
		}
	}
	return false
}

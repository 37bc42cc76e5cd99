// Package feedback turns pitch outcomes into field weights.
package feedback

import (
	"sort"
	"time"
)

const (
	MinLearnedWeight = 1.0
	MaxLearnedWeight = 3.0
)

// Record is the outcome of one pitch to an outlet. Fields flags which
// scoring fields contributed to the match.
type Record struct {
	ID        string          `json:"id"`
	OutletID  string          `json:"outlet_id"`
	Success   bool            `json:"success"`
	Note      string          `json:"note,omitempty"`
	Fields    map[string]bool `json:"fields,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Rate is the success statistic of a single field.
type Rate struct {
	Field     string
	Successes int
	Total     int
}

func (r Rate) Value() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Total)
}

// SuccessRates computes, per field, the share of successful records among
// records that flag the field. Fields never flagged are absent.
func SuccessRates(records []Record) map[string]Rate {
	rates := make(map[string]Rate)
	for _, record := range records {
		for field, flagged := range record.Fields {
			if !flagged {
				continue
			}
			rate := rates[field]
			rate.Field = field
			rate.Total++
			if record.Success {
				rate.Successes++
			}
			rates[field] = rate
		}
	}
	return rates
}

// WeightFor maps a success rate in [0,1] to a weight in [1,3].
func WeightFor(rate float64) float64 {
	switch {
	case rate < 0:
		rate = 0
	case rate > 1:
		rate = 1
	}
	return MinLearnedWeight + (MaxLearnedWeight-MinLearnedWeight)*rate
}

// Weights returns the learned weight of every field that has data.
func Weights(records []Record) map[string]float64 {
	rates := SuccessRates(records)
	weights := make(map[string]float64, len(rates))
	for field, rate := range rates {
		weights[field] = WeightFor(rate.Value())
	}
	return weights
}

// ForOutlet returns the records of one outlet, newest first.
func ForOutlet(records []Record, outletID string) []Record {
	var out []Record
	for _, record := range records {
		if record.OutletID == outletID {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

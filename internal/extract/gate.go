package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/globemate/globemate/internal/trip"
)

// MaxDays is the longest trip that can be planned.
const MaxDays = 365

var modeAliases = map[string]trip.Mode{
	"car":        trip.ModeCar,
	"auto":       trip.ModeCar,
	"gaari":      trip.ModeCar,
	"bike":       trip.ModeBike,
	"motorbike":  trip.ModeBike,
	"motorcycle": trip.ModeBike,
}

// NormalizeMode maps a free-form travel mode to a known Mode.
func NormalizeMode(s string) trip.Mode {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m
	}
	return trip.ModeUnknown
}

// Complete is the completeness gate. It converts extracted fields into ParsedFields, or
// rejects them when any label is missing or a numeric value is unusable.
func Complete(fields Fields) (trip.ParsedFields, error) {
	var missing []string
	text := func(l Label) string {
		v, ok := fields.Get(l)
		if !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, string(l))
			return ""
		}
		return strings.TrimSpace(v)
	}
	number := func(l Label) float64 {
		v := text(l)
		if v == "" {
			return 0
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			missing = append(missing, string(l))
			return 0
		}
		return n
	}

	parsed := trip.ParsedFields{
		From: text(LabelFrom),
		To:   text(LabelTo),
	}
	mode := text(LabelMode)
	parsed.FuelEconomy = number(LabelAverage)
	parsed.FuelPrice = number(LabelFuelPrice)
	days := number(LabelDays)

	if len(missing) > 0 {
		return trip.ParsedFields{}, trip.NewIncomplete(missing...)
	}

	parsed.Mode = NormalizeMode(mode)
	if days > MaxDays {
		// Out-of-range floats do not convert to int.
		return trip.ParsedFields{}, trip.NewInvalid("trip details are out of range", daysTooLong)
	}
	parsed.Days = int(days)

	if err := Validate(parsed); err != nil {
		return trip.ParsedFields{}, err
	}
	return parsed, nil
}

var daysTooLong = trip.FieldError{Field: "days", Message: "must be at most " + strconv.Itoa(MaxDays)}

// Validate checks the range of caller-supplied ParsedFields.
func Validate(p trip.ParsedFields) error {
	var invalid []trip.FieldError
	if strings.TrimSpace(p.From) == "" {
		invalid = append(invalid, trip.FieldError{Field: "from", Message: "required"})
	}
	if strings.TrimSpace(p.To) == "" {
		invalid = append(invalid, trip.FieldError{Field: "to", Message: "required"})
	}
	if !(p.FuelEconomy > 0) || math.IsInf(p.FuelEconomy, 0) {
		invalid = append(invalid, trip.FieldError{Field: "fuelEconomy", Message: "must be greater than zero"})
	}
	if !(p.FuelPrice > 0) || math.IsInf(p.FuelPrice, 0) {
		invalid = append(invalid, trip.FieldError{Field: "fuelPrice", Message: "must be greater than zero"})
	}
	switch {
	case p.Days <= 0:
		invalid = append(invalid, trip.FieldError{Field: "days", Message: "must be greater than zero"})
	case p.Days > MaxDays:
		invalid = append(invalid, daysTooLong)
	}
	if len(invalid) > 0 {
		return trip.NewInvalid("trip details are out of range", invalid...)
	}
	return nil
}

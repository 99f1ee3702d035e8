// Package expense estimates trip costs from distance, duration and fuel figures.
package expense

import (
	"math"

	"github.com/globemate/globemate/internal/trip"
)

// Default daily rates, in the configured currency.
const (
	DefaultLodgingPerNight = 3000
	DefaultFoodPerDay      = 1000
)

// Rates are the flat per-day costs applied to every trip.
type Rates struct {
	LodgingPerNight float64
	FoodPerDay      float64
}

// DefaultRates returns the built-in lodging and food rates.
func DefaultRates() Rates {
	return Rates{LodgingPerNight: DefaultLodgingPerNight, FoodPerDay: DefaultFoodPerDay}
}

// Input holds the values an estimate is computed from.
type Input struct {
	DistanceKm  int
	Days        int
	FuelEconomy float64 // km per litre
	FuelPrice   float64 // per litre
}

// Calculator computes expense breakdowns. The zero value uses DefaultRates.
type Calculator struct {
	rates      Rates
	configured bool
}

// NewCalculator creates a Calculator with the given rates. Zero rates are kept as zero.
func NewCalculator(rates Rates) (*Calculator, error) {
	if invalid := checkRates(rates); len(invalid) > 0 {
		return nil, trip.NewInvalid("expense rates are out of range", invalid...)
	}
	return &Calculator{rates: rates, configured: true}, nil
}

// Rates returns the rates in use.
func (c *Calculator) Rates() Rates {
	if c == nil || !c.configured {
		return DefaultRates()
	}
	return c.rates
}

// Calculate returns the cost breakdown for in. It is deterministic and has no side effects.
//
// The fuel cost is rounded to two decimals; lodging and food are exact multiples of the
// day count; the total is the plain sum of the three.
func (c *Calculator) Calculate(in Input) (trip.ExpenseBreakdown, error) {
	rates := c.Rates()

	var invalid []trip.FieldError
	if in.DistanceKm < 0 {
		invalid = append(invalid, trip.FieldError{Field: "distanceKm", Message: "must not be negative"})
	}
	if in.Days <= 0 {
		invalid = append(invalid, trip.FieldError{Field: "days", Message: "must be greater than zero"})
	}
	if !(in.FuelEconomy > 0) || math.IsInf(in.FuelEconomy, 0) {
		invalid = append(invalid, trip.FieldError{Field: "fuelEconomy", Message: "must be greater than zero"})
	}
	if !(in.FuelPrice >= 0) || math.IsInf(in.FuelPrice, 0) {
		invalid = append(invalid, trip.FieldError{Field: "fuelPrice", Message: "must not be negative"})
	}
	invalid = append(invalid, checkRates(rates)...)
	if len(invalid) > 0 {
		return trip.ExpenseBreakdown{}, trip.NewInvalid("cannot estimate expenses", invalid...)
	}

	fuel := round2(float64(in.DistanceKm) / in.FuelEconomy * in.FuelPrice)
	hotel := float64(in.Days) * rates.LodgingPerNight
	food := float64(in.Days) * rates.FoodPerDay

	return trip.ExpenseBreakdown{
		FuelCost:  fuel,
		HotelCost: hotel,
		FoodCost:  food,
		TotalCost: fuel + hotel + food,
	}, nil
}

func checkRates(r Rates) []trip.FieldError {
	var invalid []trip.FieldError
	if !(r.LodgingPerNight >= 0) || math.IsInf(r.LodgingPerNight, 0) {
		invalid = append(invalid, trip.FieldError{Field: "lodgingPerNight", Message: "must not be negative"})
	}
	if !(r.FoodPerDay >= 0) || math.IsInf(r.FoodPerDay, 0) {
		invalid = append(invalid, trip.FieldError{Field: "foodPerDay", Message: "must not be negative"})
	}
	return invalid
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

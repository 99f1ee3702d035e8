// Package trip defines the request-scoped values shared by the planning pipeline.
package trip

import (
	"time"
)

// Mode is the travel mode extracted from the request.
type Mode string

const (
	ModeCar     Mode = "car"
	ModeBike    Mode = "bike"
	ModeUnknown Mode = "unknown"
)

// ParsedFields is the six-field structured trip description.
// Values are only produced by the completeness gate, so every field is set.
type ParsedFields struct {
	From        string  `json:"from" yaml:"from"`
	To          string  `json:"to" yaml:"to"`
	Mode        Mode    `json:"mode" yaml:"mode"`
	FuelEconomy float64 `json:"fuelEconomy" yaml:"fuelEconomy"` // distance units per unit of fuel
	FuelPrice   float64 `json:"fuelPrice" yaml:"fuelPrice"`     // currency per unit of fuel
	Days        int     `json:"days" yaml:"days"`
}

// ExpenseBreakdown holds the estimated trip costs.
// TotalCost is always FuelCost + HotelCost + FoodCost.
type ExpenseBreakdown struct {
	FuelCost  float64 `json:"fuelCost" yaml:"fuelCost"`
	HotelCost float64 `json:"hotelCost" yaml:"hotelCost"`
	FoodCost  float64 `json:"foodCost" yaml:"foodCost"`
	TotalCost float64 `json:"totalCost" yaml:"totalCost"`
}

// Hotel is a single lodging suggestion.
type Hotel struct {
	Name   string  `json:"name" yaml:"name"`
	Price  int     `json:"price" yaml:"price"`
	Rating float64 `json:"rating" yaml:"rating"`
}

// Recommendations groups the destination lookups.
type Recommendations struct {
	Destination string   `json:"destination" yaml:"destination"`
	Hotels      []Hotel  `json:"hotels" yaml:"hotels"`
	Foods       []string `json:"foods" yaml:"foods"`
	Attractions []string `json:"attractions" yaml:"attractions"`
}

// Coordinate is a WGS-84 point.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Place is a geocoded place name.
type Place struct {
	Query       string     `json:"query" yaml:"query"`
	DisplayName string     `json:"displayName" yaml:"displayName"`
	Coordinate  Coordinate `json:"coordinate" yaml:"coordinate"`
}

// Route is the resolved city pair and its great-circle distance.
type Route struct {
	From       Place  `json:"from" yaml:"from"`
	To         Place  `json:"to" yaml:"to"`
	Kilometers int    `json:"kilometers" yaml:"kilometers"`
	Geometry   string `json:"geometry,omitempty" yaml:"geometry,omitempty"` // encoded polyline, precision 5
}

// Plan is the complete planning result handed to a presentation channel.
type Plan struct {
	ID              string           `json:"id" yaml:"id"`
	Status          Status           `json:"status" yaml:"status"`
	Fields          ParsedFields     `json:"fields" yaml:"fields"`
	Route           Route            `json:"route" yaml:"route"`
	Expenses        ExpenseBreakdown `json:"expenses" yaml:"expenses"`
	Recommendations Recommendations  `json:"recommendations" yaml:"recommendations"`
	Currency        string           `json:"currency" yaml:"currency"`
	GeneratedAt     time.Time        `json:"generatedAt" yaml:"generatedAt"`
}

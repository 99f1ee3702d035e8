package models

import "github.com/globemate/globemate/internal/trip"

// ParseRequest is the body of POST /v1/trips:parse.
type ParseRequest struct {
	Message string `json:"message"`
}

// ParseResponse carries the fields detected in a free-text message, for
// confirmation before planning.
type ParseResponse struct {
	Status   trip.Status       `json:"status"`
	Fields   trip.ParsedFields `json:"fields"`
	Currency string            `json:"currency"`
}

// PlanRequest is the body of POST /v1/trips:plan. Exactly one of Message and Trip is set.
type PlanRequest struct {
	Message string     `json:"message,omitempty"`
	Trip    *TripInput `json:"trip,omitempty"`
}

// TripInput is a structured trip, as returned by the parse endpoint.
type TripInput struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Mode        string  `json:"mode,omitempty"`
	FuelEconomy float64 `json:"fuelEconomy"`
	FuelPrice   float64 `json:"fuelPrice"`
	Days        int     `json:"days"`
}

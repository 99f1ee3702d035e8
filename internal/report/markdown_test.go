package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globemate/globemate/internal/trip"
)

func samplePlan() *trip.Plan {
	return &trip.Plan{
		Status: trip.StatusOK,
		Fields: trip.ParsedFields{From: "lahore", To: "hunza", Mode: trip.ModeCar, FuelEconomy: 40, FuelPrice: 295, Days: 5},
		Route: trip.Route{
			From:       trip.Place{DisplayName: "Lahore, Punjab, Pakistan"},
			To:         trip.Place{DisplayName: "Hunza District, Gilgit-Baltistan, Pakistan"},
			Kilometers: 600,
		},
		Expenses: trip.ExpenseBreakdown{FuelCost: 4425, HotelCost: 15000, FoodCost: 5000, TotalCost: 24425},
		Recommendations: trip.Recommendations{
			Hotels:      []trip.Hotel{{Name: "Hunza Serena Inn", Price: 4000, Rating: 4.5}},
			Foods:       []string{"Butter tea"},
			Attractions: []string{"Attabad Lake", "Passu Cones"},
		},
		Currency: "Rs.",
	}
}

func TestRenderer_Plan(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewRenderer("Rs.").Plan(&buf, samplePlan()))
	out := buf.String()

	assert.Contains(t, out, "- **From:** Lahore (Lahore, Punjab, Pakistan)")
	assert.Contains(t, out, "- **Total Distance:** 600 km")
	assert.Contains(t, out, "- **Fuel:** Rs. 4425")
	assert.Contains(t, out, "- **Total:** Rs. 24425")
	assert.Contains(t, out, "- Hunza Serena Inn - Rs. 4000 (rating 4.5)")
	assert.Contains(t, out, "- Butter tea\n")
	assert.Contains(t, out, "### Tourist Attractions in Hunza\n- Attabad Lake\n- Passu Cones\n")
	assert.NotContains(t, out, "data found")
}

func TestRenderer_Plan_EmptySections(t *testing.T) {
	plan := samplePlan()
	plan.Recommendations = trip.Recommendations{}
	var buf bytes.Buffer

	require.NoError(t, NewRenderer("Rs.").Plan(&buf, plan))
	out := buf.String()

	assert.Contains(t, out, "### Hotel Recommendations\nNo hotel data found.\n")
	assert.Contains(t, out, "No food data found.")
	assert.Contains(t, out, "No attraction data found.")
}

func TestRenderer_Plan_Nil(t *testing.T) {
	assert.Error(t, NewRenderer("Rs.").Plan(&bytes.Buffer{}, nil))
}

func TestRenderer_Details(t *testing.T) {
	var buf bytes.Buffer

	err := NewRenderer("PKR").Details(&buf, trip.ParsedFields{
		From: "islamabad", To: "murree", Mode: trip.ModeBike, FuelEconomy: 35.5, FuelPrice: 280, Days: 2,
	})

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"Travel details detected:",
		"- **From:** Islamabad",
		"- **To:** Murree",
		"- **Mode of Travel:** bike",
		"- **Fuel Average:** 35.5 km/l",
		"- **Fuel Price:** PKR 280",
		"- **Duration:** 2 days",
	}, lines)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{4000, "4000"},
		{4425.0, "4425"},
		{33.33, "33.33"},
		{4033.3300000000004, "4033.33"},
		{4.5, "4.5"},
		{0.0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
}

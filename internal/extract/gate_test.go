package extract_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globemate/globemate/internal/extract"
	"github.com/globemate/globemate/internal/trip"
)

func completeFields() extract.Fields {
	return extract.Fields{
		extract.LabelFrom:      "Lahore",
		extract.LabelTo:        "Hunza",
		extract.LabelMode:      "car",
		extract.LabelAverage:   "40",
		extract.LabelFuelPrice: "295",
		extract.LabelDays:      "5",
	}
}

func TestComplete_AllFields(t *testing.T) {
	parsed, err := extract.Complete(completeFields())

	require.NoError(t, err)
	assert.Equal(t, trip.ParsedFields{
		From:        "Lahore",
		To:          "Hunza",
		Mode:        trip.ModeCar,
		FuelEconomy: 40,
		FuelPrice:   295,
		Days:        5,
	}, parsed)
}

func TestComplete_MissingLabels(t *testing.T) {
	for _, label := range extract.Labels {
		t.Run(string(label), func(t *testing.T) {
			fields := completeFields()
			delete(fields, label)

			_, err := extract.Complete(fields)

			require.Error(t, err)
			assert.Equal(t, trip.StatusIncompleteExtraction, trip.StatusOf(err))
			assert.Contains(t, err.Error(), string(label))
		})
	}
}

func TestComplete_ListsEveryMissingField(t *testing.T) {
	_, err := extract.Complete(extract.Fields{extract.LabelFrom: "Lahore"})

	var tripErr *trip.Error
	require.True(t, errors.As(err, &tripErr))
	names := make([]string, 0, len(tripErr.Fields))
	for _, f := range tripErr.Fields {
		names = append(names, f.Field)
	}
	assert.Equal(t, []string{"To", "Mode", "Average", "FuelPrice", "Days"}, names)
}

func TestComplete_UnparsableNumber(t *testing.T) {
	fields := completeFields()
	fields[extract.LabelAverage] = "forty"

	_, err := extract.Complete(fields)

	assert.ErrorIs(t, err, trip.ErrIncompleteExtraction)
}

func TestComplete_NonPositiveNumbers(t *testing.T) {
	tests := []struct {
		label extract.Label
		field string
	}{
		{extract.LabelAverage, "fuelEconomy"},
		{extract.LabelFuelPrice, "fuelPrice"},
		{extract.LabelDays, "days"},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			fields := completeFields()
			fields[tt.label] = "0"

			_, err := extract.Complete(fields)

			var tripErr *trip.Error
			require.True(t, errors.As(err, &tripErr))
			assert.Equal(t, trip.StatusInvalidArgument, tripErr.Status())
			require.Len(t, tripErr.Fields, 1)
			assert.Equal(t, tt.field, tripErr.Fields[0].Field)
		})
	}
}

func TestNormalizeMode(t *testing.T) {
	tests := map[string]trip.Mode{
		"car":        trip.ModeCar,
		" Car ":      trip.ModeCar,
		"gaari":      trip.ModeCar,
		"auto":       trip.ModeCar,
		"BIKE":       trip.ModeBike,
		"motorbike":  trip.ModeBike,
		"motorcycle": trip.ModeBike,
		"train":      trip.ModeUnknown,
		"":           trip.ModeUnknown,
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, extract.NormalizeMode(in))
		})
	}
}

func TestComplete_UnknownModeIsPresent(t *testing.T) {
	fields := completeFields()
	fields[extract.LabelMode] = "train"

	parsed, err := extract.Complete(fields)

	require.NoError(t, err)
	assert.Equal(t, trip.ModeUnknown, parsed.Mode)
}

func TestComplete_DaysUpperBound(t *testing.T) {
	for _, days := range []string{"366", "99999999999999999999"} {
		t.Run(days, func(t *testing.T) {
			fields := completeFields()
			fields[extract.LabelDays] = days

			_, err := extract.Complete(fields)

			var tripErr *trip.Error
			require.True(t, errors.As(err, &tripErr))
			assert.Equal(t, trip.StatusInvalidArgument, tripErr.Status())
			require.Len(t, tripErr.Fields, 1)
			assert.Equal(t, trip.FieldError{Field: "days", Message: "must be at most 365"}, tripErr.Fields[0])
		})
	}

	fields := completeFields()
	fields[extract.LabelDays] = "365"
	parsed, err := extract.Complete(fields)
	require.NoError(t, err)
	assert.Equal(t, extract.MaxDays, parsed.Days)
}

func TestValidate_DaysUpperBound(t *testing.T) {
	p := trip.ParsedFields{From: "Lahore", To: "Murree", FuelEconomy: 35, FuelPrice: 280, Days: extract.MaxDays + 1}

	assert.ErrorIs(t, extract.Validate(p), trip.ErrInvalidArgument)
}

func TestValidate(t *testing.T) {
	valid := trip.ParsedFields{From: "Lahore", To: "Murree", Mode: trip.ModeBike, FuelEconomy: 35, FuelPrice: 280, Days: 2}
	assert.NoError(t, extract.Validate(valid))

	invalid := valid
	invalid.From = ""
	invalid.FuelPrice = -1
	err := extract.Validate(invalid)

	var tripErr *trip.Error
	require.True(t, errors.As(err, &tripErr))
	assert.Len(t, tripErr.Fields, 2)
}

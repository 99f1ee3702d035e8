package recommend_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globemate/globemate/internal/recommend"
	"github.com/globemate/globemate/internal/textgen"
	"github.com/globemate/globemate/internal/trip"
)

func newService(gen textgen.Generator) *recommend.Service {
	return recommend.NewService(recommend.Config{
		Generator: gen,
		Logger:    zerolog.Nop(),
	})
}

func failingGenerator(calls *atomic.Int32) textgen.Generator {
	return textgen.Func(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", errors.New("service unavailable")
	})
}

func TestLookup_CuratedDestinationIsCaseInsensitive(t *testing.T) {
	var calls atomic.Int32
	svc := newService(failingGenerator(&calls))
	ctx := context.Background()

	lower, err := svc.Lookup(ctx, "hunza")
	require.NoError(t, err)
	upper, err := svc.Lookup(ctx, "HUNZA")
	require.NoError(t, err)
	title, err := svc.Lookup(ctx, "  Hunza ")
	require.NoError(t, err)

	assert.Equal(t, lower.Hotels, upper.Hotels)
	assert.Equal(t, lower.Hotels, title.Hotels)
	assert.Equal(t, lower.Foods, upper.Foods)
	assert.Equal(t, lower.Attractions, title.Attractions)
	assert.Zero(t, calls.Load(), "curated destinations must not reach the generator")
}

func TestLookup_Hunza(t *testing.T) {
	svc := newService(nil)

	rec, err := svc.Lookup(context.Background(), "Hunza")

	require.NoError(t, err)
	require.Len(t, rec.Hotels, 2)
	assert.Contains(t, rec.Hotels, trip.Hotel{Name: "Hunza Serena Inn", Price: 4000, Rating: 4.5})
	assert.Equal(t, []string{"Chapshuro (Hunza meat pie)", "Giyaling (buttered wheat bread)", "Butter tea"}, rec.Foods)
	assert.Equal(t, []string{"Altit Fort", "Baltit Fort", "Attabad Lake", "Passu Cones"}, rec.Attractions)
}

func TestLookup_MurreeHasHotelsOnly(t *testing.T) {
	svc := newService(nil)

	rec, err := svc.Lookup(context.Background(), "murree")

	require.NoError(t, err)
	assert.Len(t, rec.Hotels, 2)
	assert.Empty(t, rec.Foods)
	assert.Empty(t, rec.Attractions)
	assert.NotNil(t, rec.Foods, "empty lists are serialised as []")
}

func TestLookup_UnknownDestinationGeneratorFails(t *testing.T) {
	var calls atomic.Int32
	svc := newService(failingGenerator(&calls))

	rec, err := svc.Lookup(context.Background(), "atlantis")

	require.NoError(t, err)
	assert.Equal(t, []trip.Hotel{{Name: "Atlantis Guest House", Price: 3000, Rating: 4.0}}, rec.Hotels)
	assert.Empty(t, rec.Foods)
	assert.Empty(t, rec.Attractions)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLookup_UnknownDestinationWithoutGenerator(t *testing.T) {
	svc := newService(nil)

	rec, err := svc.Lookup(context.Background(), "new york")

	require.NoError(t, err)
	assert.Equal(t, []trip.Hotel{{Name: "New York Guest House", Price: 3000, Rating: 4.0}}, rec.Hotels)
}

func TestLookup_GeneratedHotelsAreMemoized(t *testing.T) {
	var calls atomic.Int32
	var prompt string
	gen := textgen.Func(func(_ context.Context, p string) (string, error) {
		calls.Add(1)
		prompt = p
		return "Name, Price, Rating\nPC Hotel Lahore, Rs 12000, 4.6\nAvari Lahore, 11000, 4.4", nil
	})
	svc := newService(gen)
	ctx := context.Background()

	first, err := svc.Lookup(ctx, "lahore")
	require.NoError(t, err)
	second, err := svc.Lookup(ctx, "LAHORE")
	require.NoError(t, err)

	assert.Equal(t, []trip.Hotel{
		{Name: "PC Hotel Lahore", Price: 12000, Rating: 4.6},
		{Name: "Avari Lahore", Price: 11000, Rating: 4.4},
	}, first.Hotels)
	assert.Equal(t, first.Hotels, second.Hotels)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, prompt, "Suggest 2 affordable hotels in Lahore")
}

func TestLookup_PlaceholderIsNotMemoized(t *testing.T) {
	var calls atomic.Int32
	svc := newService(failingGenerator(&calls))
	ctx := context.Background()

	_, _ = svc.Lookup(ctx, "atlantis")
	_, _ = svc.Lookup(ctx, "atlantis")

	assert.Equal(t, int32(2), calls.Load())
}

func TestLookup_EmptyDestination(t *testing.T) {
	svc := newService(nil)

	_, err := svc.Lookup(context.Background(), "  ")

	assert.ErrorIs(t, err, trip.ErrInvalidArgument)
}

func TestParseHotels(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []trip.Hotel
	}{
		{
			name:   "two well formed lines",
			output: "Hotel One, 4000, 4.5\nHotel Two, 3500, 4.1",
			want: []trip.Hotel{
				{Name: "Hotel One", Price: 4000, Rating: 4.5},
				{Name: "Hotel Two", Price: 3500, Rating: 4.1},
			},
		},
		{
			name:   "list markers are stripped",
			output: "1. Shigar Fort, PKR 9000, 4.7\n- **Baltoro Inn**, 5000, 4.0",
			want: []trip.Hotel{
				{Name: "Shigar Fort", Price: 9000, Rating: 4.7},
				{Name: "Baltoro Inn", Price: 5000, Rating: 4},
			},
		},
		{
			name:   "wrong part count is dropped",
			output: "Hotel One, Rs. 4,000, 4.5\nHotel Two, 3500\nHotel Three, 3000, 4.2",
			want:   []trip.Hotel{{Name: "Hotel Three", Price: 3000, Rating: 4.2}},
		},
		{
			name:   "price without digits is dropped",
			output: "Hotel One, cheap, 4.5",
			want:   nil,
		},
		{
			name:   "non numeric rating is dropped",
			output: "Hotel One, 4000, excellent",
			want:   nil,
		},
		{
			name:   "prose",
			output: "I'm sorry, I don't have information about that place.",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recommend.ParseHotels(tt.output))
		})
	}
}

func TestLookup_MalformedSuggestionsFallBackToPlaceholder(t *testing.T) {
	gen := textgen.Func(func(context.Context, string) (string, error) {
		return "Hotel One - 4000 - 4.5\nHotel Two, n/a, 4.1", nil
	})
	svc := newService(gen)

	hotels := svc.Hotels(context.Background(), "gilgit")

	assert.Equal(t, []trip.Hotel{recommend.Placeholder("gilgit")}, hotels)
	assert.Equal(t, "Gilgit Guest House", hotels[0].Name)
}

func TestHotels_ReturnsCopies(t *testing.T) {
	svc := newService(nil)

	hotels := svc.Hotels(context.Background(), "skardu")
	hotels[0].Name = "changed"

	again := svc.Hotels(context.Background(), "skardu")
	assert.Equal(t, "Hotel One Skardu", again[0].Name)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Atlantis", recommend.TitleCase("atlantis"))
	assert.Equal(t, "Fairy Meadows", recommend.TitleCase("  fairy meadows "))
	assert.Equal(t, "Naran", recommend.TitleCase("NARAN"))
}

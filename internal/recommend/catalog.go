// Package recommend looks up hotels, local food and attractions for a destination.
package recommend

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/globemate/globemate/internal/trip"
)

//go:embed destinations.yaml
var defaultCatalog []byte

// Destination is the curated data for one destination.
type Destination struct {
	Hotels      []trip.Hotel `yaml:"hotels"`
	Foods       []string     `yaml:"foods"`
	Attractions []string     `yaml:"attractions"`
}

// Catalog is a read-only table of curated destinations.
type Catalog struct {
	destinations map[string]Destination
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("recommend: embedded catalog: %v", err))
	}
	return c
}

// ParseCatalog decodes a YAML catalog keyed by destination name.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]Destination
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{destinations: make(map[string]Destination, len(raw))}
	for name, d := range raw {
		key := normalize(name)
		if key == "" {
			return nil, errors.New("catalog entry with empty name")
		}
		if _, dup := c.destinations[key]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", name)
		}
		c.destinations[key] = d
	}
	return c, nil
}

// Hotels returns the curated hotels for destination, if any.
func (c *Catalog) Hotels(destination string) ([]trip.Hotel, bool) {
	d, ok := c.destinations[normalize(destination)]
	if !ok || len(d.Hotels) == 0 {
		return nil, false
	}
	return append([]trip.Hotel(nil), d.Hotels...), true
}

// Foods returns the curated dishes for destination, or an empty list.
func (c *Catalog) Foods(destination string) []string {
	return cloneStrings(c.destinations[normalize(destination)].Foods)
}

// Attractions returns the curated attractions for destination, or an empty list.
func (c *Catalog) Attractions(destination string) []string {
	return cloneStrings(c.destinations[normalize(destination)].Attractions)
}

// normalize is the lookup key: trimmed and lower-cased.
func normalize(destination string) string {
	return strings.ToLower(strings.TrimSpace(destination))
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Package catalogue serves the read-only travel data: destinations grouped by
// category and the festival calendar.
package catalogue

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

//go:embed data/locations.json data/festivals.json
var dataFS embed.FS

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrFestivalNotFound = errors.New("festival not found")
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Highlights  []string     `json:"highlights"`
	BestTime    string       `json:"bestTime"`
	HowToReach  string       `json:"howToReach"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	// Image lists candidate URLs, best first.
	Image []string `json:"image,omitempty"`
}

type Festival struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Place                string   `json:"place"`
	Tagline              string   `json:"tagline"`
	Description          string   `json:"description"`
	WhenCelebrated       string   `json:"whenCelebrated"`
	Highlights           []string `json:"highlights"`
	CulturalSignificance string   `json:"culturalSignificance"`
	Image                string   `json:"image,omitempty"`
}

// SearchResults holds the matches of a free-text query.
type SearchResults struct {
	Query     string     `json:"query"`
	Locations []Location `json:"locations"`
	Festivals []Festival `json:"festivals"`
}

// Catalogue is immutable after construction and safe for concurrent use.
type Catalogue struct {
	locations  []Location
	festivals  []Festival
	categories []string
	locByID    map[string]int
	festByID   map[string]int
}

// Load parses the embedded data set.
func Load() (*Catalogue, error) {
	var locations []Location
	if err := readJSON("data/locations.json", &locations); err != nil {
		return nil, err
	}
	var festivals []Festival
	if err := readJSON("data/festivals.json", &festivals); err != nil {
		return nil, err
	}
	return New(locations, festivals)
}

// New builds a catalogue from the given records. Ids must be unique per kind.
func New(locations []Location, festivals []Festival) (*Catalogue, error) {
	c := &Catalogue{
		locations: locations,
		festivals: festivals,
		locByID:   make(map[string]int, len(locations)),
		festByID:  make(map[string]int, len(festivals)),
	}

	seenCategory := make(map[string]bool)
	for i, loc := range locations {
		if _, dup := c.locByID[loc.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %q", loc.ID)
		}
		c.locByID[loc.ID] = i
		if !seenCategory[loc.Category] {
			seenCategory[loc.Category] = true
			c.categories = append(c.categories, loc.Category)
		}
	}
	for i, f := range festivals {
		if _, dup := c.festByID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate festival id %q", f.ID)
		}
		c.festByID[f.ID] = i
	}

	return c, nil
}

func readJSON(name string, v any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Categories returns the location categories in catalogue order.
func (c *Catalogue) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Locations returns every location, or only those in category when it is set.
func (c *Catalogue) Locations(category string) []Location {
	out := make([]Location, 0, len(c.locations))
	for _, loc := range c.locations {
		if category == "" || loc.Category == category {
			out = append(out, loc)
		}
	}
	return out
}

func (c *Catalogue) Location(id string) (Location, error) {
	i, ok := c.locByID[id]
	if !ok {
		return Location{}, ErrLocationNotFound
	}
	return c.locations[i], nil
}

func (c *Catalogue) Festivals() []Festival {
	return append([]Festival(nil), c.festivals...)
}

func (c *Catalogue) Festival(id string) (Festival, error) {
	i, ok := c.festByID[id]
	if !ok {
		return Festival{}, ErrFestivalNotFound
	}
	return c.festivals[i], nil
}

// Search does a case-insensitive substring match. Locations match on name,
// description and category; festivals on name, tagline, place and description.
// A blank query matches nothing.
func (c *Catalogue) Search(query string) SearchResults {
	q := strings.ToLower(strings.TrimSpace(query))
	res := SearchResults{
		Query:     strings.TrimSpace(query),
		Locations: []Location{},
		Festivals: []Festival{},
	}
	if q == "" {
		return res
	}

	for _, loc := range c.locations {
		if containsAny(q, loc.Name, loc.Description, loc.Category) {
			res.Locations = append(res.Locations, loc)
		}
	}
	for _, f := range c.festivals {
		if containsAny(q, f.Name, f.Tagline, f.Place, f.Description) {
			res.Festivals = append(res.Festivals, f)
		}
	}
	return res
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

package shelter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shelterspot/shelterspot/internal/geo"
)

// Catalog is an immutable, indexed shelter collection. Construct one at
// startup from the dataset file; it is safe for concurrent reads.
type Catalog struct {
	shelters []Shelter
	byID     map[string]*Shelter
}

// NewCatalog builds a catalog from a shelter list. The input is copied;
// later mutation of the argument does not affect the catalog.
func NewCatalog(shelters []Shelter) *Catalog {
	cpy := make([]Shelter, len(shelters))
	copy(cpy, shelters)

	byID := make(map[string]*Shelter, len(cpy))
	for i := range cpy {
		byID[cpy[i].ID] = &cpy[i]
	}

	return &Catalog{shelters: cpy, byID: byID}
}

// catalogFile matches the dataset file layout: a single "DATA" key holding
// the shelter array, as published by the municipal open-data portal.
type catalogFile struct {
	Data []Shelter `json:"DATA"`
}

// LoadFile reads a catalog dataset from a JSON file.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	for i := range file.Data {
		if file.Data[i].ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if err := file.Data[i].Coord.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", file.Data[i].ID, err)
		}
	}

	return NewCatalog(file.Data), nil
}

// List returns all shelters. The returned slice is a copy; callers may
// reorder or annotate it freely.
func (c *Catalog) List() []Shelter {
	cpy := make([]Shelter, len(c.shelters))
	copy(cpy, c.shelters)
	return cpy
}

// Get returns the shelter with the given ID.
func (c *Catalog) Get(id string) (*Shelter, error) {
	s, ok := c.byID[id]
	if !ok {
		return nil, ErrShelterNotFound
	}

	cpy := *s
	return &cpy, nil
}

// Len returns the number of shelters in the catalog.
func (c *Catalog) Len() int {
	return len(c.shelters)
}

// SeedCatalog returns a small built-in catalog around central Seoul for
// local development when no dataset file is configured.
func SeedCatalog() *Catalog {
	capacity := func(n int) *int { return &n }

	return NewCatalog([]Shelter{
		{
			ID:       "110-0",
			Name:     "서울시청 시민청",
			Address:  "서울특별시 중구 세종대로 110",
			Coord:    geo.Coordinate{Lat: 37.5662952, Lon: 126.9779451},
			Capacity: capacity(150),
			Facilities: Facilities{
				Wifi:     true,
				FirstAid: true,
			},
			OperatingHours: map[string]string{
				"monday": "09:00-18:00", "tuesday": "09:00-18:00",
				"wednesday": "09:00-18:00", "thursday": "09:00-18:00",
				"friday": "09:00-18:00",
			},
		},
		{
			ID:       "110-1",
			Name:     "명동 주민센터 무더위쉼터",
			Address:  "서울특별시 중구 명동길 14",
			Coord:    geo.Coordinate{Lat: 37.5636, Lon: 126.9838},
			Capacity: capacity(40),
			Facilities: Facilities{
				Wifi: true,
			},
			OperatingHours: map[string]string{
				"monday": "09:00-18:00", "tuesday": "09:00-18:00",
				"wednesday": "09:00-18:00", "thursday": "09:00-18:00",
				"friday": "09:00-18:00", "saturday": "10:00-17:00",
			},
		},
		{
			ID:      "110-2",
			Name:    "남산도서관 열람실",
			Address: "서울특별시 용산구 소월로 109",
			Coord:   geo.Coordinate{Lat: 37.5512, Lon: 126.9814},
			Facilities: Facilities{
				Wifi:    true,
				Showers: false,
			},
		},
	})
}

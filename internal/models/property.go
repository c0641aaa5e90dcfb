package models

import (
	"errors"
	"fmt"
	"time"

	"propertymap/server/internal/geo"
)

// PropertyType is the listing kind of a property.
type PropertyType string

const (
	PropertyTypeSale       PropertyType = "sale"
	PropertyTypeRent       PropertyType = "rent"
	PropertyTypeCommercial PropertyType = "commercial"
)

// Valid reports whether t is one of the known listing kinds.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeSale, PropertyTypeRent, PropertyTypeCommercial:
		return true
	default:
		return false
	}
}

var (
	ErrMissingID          = errors.New("property id is required")
	ErrInvalidCoordinates = errors.New("property coordinates are not finite")
	ErrInvalidType        = errors.New("unknown property type")
)

// Property is a single listing as the map sees it. The map never mutates it.
type Property struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Coordinates geo.LatLng   `json:"coordinates" gorm:"embedded"`
	Price       float64      `json:"price"`
	Type        PropertyType `json:"type" gorm:"index"`
	Category    string       `json:"category" gorm:"index"`
	Featured    bool         `json:"featured"`
	CreatedAt   time.Time    `json:"-"`
	UpdatedAt   time.Time    `json:"-"`
}

// Position implements geo.Positioned.
func (p Property) Position() geo.LatLng {
	return p.Coordinates
}

// Validate checks the fields the map relies on.
func (p *Property) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	if !p.Coordinates.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidCoordinates, p.ID)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w %q: %s", ErrInvalidType, p.Type, p.ID)
	}
	return nil
}

// PropertyFilter narrows the stored property list. Zero values mean no
// restriction.
type PropertyFilter struct {
	Type         PropertyType `form:"type"`
	Category     string       `form:"category"`
	MinPrice     *float64     `form:"min_price"`
	MaxPrice     *float64     `form:"max_price"`
	FeaturedOnly bool         `form:"featured"`
}

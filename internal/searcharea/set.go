package searcharea

import "propertymap/server/internal/models"

// Set holds the drawn search areas in insertion order.
type Set struct {
	areas []Area
}

// NewSet creates an empty area set.
func NewSet() *Set {
	return &Set{}
}

// Add appends an area unless one with the same id is already present.
func (s *Set) Add(a Area) bool {
	for _, existing := range s.areas {
		if existing.ID == a.ID {
			return false
		}
	}
	s.areas = append(s.areas, a)
	return true
}

// Remove deletes the area with the given id.
func (s *Set) Remove(id string) bool {
	for i, a := range s.areas {
		if a.ID == id {
			s.areas = append(s.areas[:i], s.areas[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every area.
func (s *Set) Clear() {
	s.areas = nil
}

// Len returns the number of areas.
func (s *Set) Len() int {
	return len(s.areas)
}

// Areas returns a copy of the areas in insertion order.
func (s *Set) Areas() []Area {
	out := make([]Area, len(s.areas))
	copy(out, s.areas)
	return out
}

// Filter returns the properties inside at least one area of the set.
func (s *Set) Filter(properties []models.Property) []models.Property {
	return Filter(s.areas, properties)
}

// Filter keeps the properties that fall inside any of areas. With no areas
// there is no restriction and properties is returned as is.
func Filter(areas []Area, properties []models.Property) []models.Property {
	if len(areas) == 0 {
		return properties
	}

	out := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		for _, a := range areas {
			if IsInArea(p, a) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

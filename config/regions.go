package config

import "propertymap/server/internal/geo"

// Region is a named map extent a session can start from
type Region struct {
	Name   string     `json:"name"`
	Bounds geo.Bounds `json:"bounds"`
}

// SupportedRegions is a list of regions supported by the application
var SupportedRegions = []Region{
	{
		Name:   "los-angeles",
		Bounds: geo.DefaultBounds,
	},
	{
		Name:   "amsterdam",
		Bounds: geo.Bounds{North: 52.43, South: 52.28, East: 5.07, West: 4.73},
	},
	// Add more regions here as needed
}

// GetRegionNames returns a list of supported region names
func GetRegionNames() []string {
	names := make([]string, len(SupportedRegions))
	for i, region := range SupportedRegions {
		names[i] = region.Name
	}
	return names
}

// GetRegionByName returns a region configuration by name
func GetRegionByName(name string) *Region {
	for _, region := range SupportedRegions {
		if region.Name == name {
			return &region
		}
	}
	return nil
}

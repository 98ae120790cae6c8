package scene

import (
	"encoding/json"
	"fmt"
)

// RoadCategory is the road family a highway value maps to.
type RoadCategory int

const (
	RoadUnknown RoadCategory = iota
	RoadMotorway
	RoadPrimary
	RoadSecondary
	RoadMinor
	RoadResidential
	RoadPedestrian
)

var roadCategoryNames = [...]string{
	RoadUnknown:     "unknown",
	RoadMotorway:    "motorway",
	RoadPrimary:     "primary",
	RoadSecondary:   "secondary",
	RoadMinor:       "minor",
	RoadResidential: "residential",
	RoadPedestrian:  "pedestrian",
}

// String returns the category name
func (c RoadCategory) String() string {
	if c < 0 || int(c) >= len(roadCategoryNames) {
		return fmt.Sprintf("RoadCategory(%d)", int(c))
	}
	return roadCategoryNames[c]
}

// MarshalJSON encodes the category by name.
func (c RoadCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a category name; unrecognized names become RoadUnknown.
func (c *RoadCategory) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*c, _ = ParseRoadCategory(name)
	return nil
}

// ParseRoadCategory looks up a category by name.
func ParseRoadCategory(name string) (RoadCategory, bool) {
	for i, n := range roadCategoryNames {
		if n == name {
			return RoadCategory(i), true
		}
	}
	return RoadUnknown, false
}

// LandUseCategory is the land-use family a landuse value maps to.
type LandUseCategory int

const (
	LandUseUnknown LandUseCategory = iota
	LandUseResidential
	LandUseCommercial
	LandUseAgricultural
	LandUseIndustrial
	LandUseGreen
	LandUseWater
)

var landUseCategoryNames = [...]string{
	LandUseUnknown:      "unknown",
	LandUseResidential:  "residential",
	LandUseCommercial:   "commercial",
	LandUseAgricultural: "agricultural",
	LandUseIndustrial:   "industrial",
	LandUseGreen:        "green",
	LandUseWater:        "water",
}

// String returns the category name
func (c LandUseCategory) String() string {
	if c < 0 || int(c) >= len(landUseCategoryNames) {
		return fmt.Sprintf("LandUseCategory(%d)", int(c))
	}
	return landUseCategoryNames[c]
}

// MarshalJSON encodes the category by name.
func (c LandUseCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a category name; unrecognized names become LandUseUnknown.
func (c *LandUseCategory) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*c, _ = ParseLandUseCategory(name)
	return nil
}

// ParseLandUseCategory looks up a category by name.
func ParseLandUseCategory(name string) (LandUseCategory, bool) {
	for i, n := range landUseCategoryNames {
		if n == name {
			return LandUseCategory(i), true
		}
	}
	return LandUseUnknown, false
}

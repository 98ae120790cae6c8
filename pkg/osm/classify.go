package osm

import "github.com/NERVsystems/osmscene/pkg/scene"

// Tag keys that drive classification.
const (
	KeyLandUse = "landuse"
	KeyHighway = "highway"
	KeyName    = "name"
)

// landUseCategories maps landuse=* values to land-use families. Values not
// listed here do not make a way a land use.
var landUseCategories = map[string]scene.LandUseCategory{
	"residential": scene.LandUseResidential,

	"commercial": scene.LandUseCommercial,
	"retail":     scene.LandUseCommercial,

	"farmland":                scene.LandUseAgricultural,
	"farmyard":                scene.LandUseAgricultural,
	"orchard":                 scene.LandUseAgricultural,
	"vineyard":                scene.LandUseAgricultural,
	"allotments":              scene.LandUseAgricultural,
	"greenhouse_horticulture": scene.LandUseAgricultural,
	"plant_nursery":           scene.LandUseAgricultural,
	"animal_keeping":          scene.LandUseAgricultural,

	"industrial": scene.LandUseIndustrial,
	"quarry":     scene.LandUseIndustrial,
	"railway":    scene.LandUseIndustrial,
	"port":       scene.LandUseIndustrial,
	"depot":      scene.LandUseIndustrial,
	"landfill":   scene.LandUseIndustrial,
	"brownfield": scene.LandUseIndustrial,

	"grass":             scene.LandUseGreen,
	"forest":            scene.LandUseGreen,
	"meadow":            scene.LandUseGreen,
	"village_green":     scene.LandUseGreen,
	"recreation_ground": scene.LandUseGreen,
	"cemetery":          scene.LandUseGreen,
	"greenfield":        scene.LandUseGreen,
	"flowerbed":         scene.LandUseGreen,

	"basin":       scene.LandUseWater,
	"reservoir":   scene.LandUseWater,
	"salt_pond":   scene.LandUseWater,
	"aquaculture": scene.LandUseWater,
}

// roadCategories maps highway=* values to road families. Any other value
// still makes a road, of category RoadUnknown.
var roadCategories = map[string]scene.RoadCategory{
	// big roads
	"motorway":      scene.RoadMotorway,
	"motorway_link": scene.RoadMotorway,
	"trunk":         scene.RoadPrimary,
	"trunk_link":    scene.RoadPrimary,
	"primary":       scene.RoadPrimary,
	"primary_link":  scene.RoadPrimary,

	// smaller roads
	"secondary":      scene.RoadSecondary,
	"secondary_link": scene.RoadSecondary,
	"tertiary":       scene.RoadSecondary,
	"tertiary_link":  scene.RoadSecondary,
	"unclassified":   scene.RoadMinor,
	"minor":          scene.RoadMinor,
	"service":        scene.RoadMinor,
	"residential":    scene.RoadResidential,
	"living_street":  scene.RoadResidential,

	// pedestrians
	"pedestrian": scene.RoadPedestrian,
	"footway":    scene.RoadPedestrian,
	"path":       scene.RoadPedestrian,
	"steps":      scene.RoadPedestrian,
}

// LandUseCategoryOf returns the land-use family for a landuse value.
func LandUseCategoryOf(value string) (scene.LandUseCategory, bool) {
	c, ok := landUseCategories[value]
	return c, ok
}

// RoadCategoryOf returns the road family for a highway value, or
// RoadUnknown.
func RoadCategoryOf(value string) scene.RoadCategory {
	return roadCategories[value]
}

// Classify assigns a way's tag set to a feature class. A known landuse
// value wins over any highway tag; a highway tag with any value makes a
// road; everything else is unknown.
func Classify(tags map[string]string) Classification {
	if v, ok := tags[KeyLandUse]; ok {
		if c, ok := LandUseCategoryOf(v); ok {
			return Classification{Kind: WayLandUse, LandUse: c}
		}
	}

	if v, ok := tags[KeyHighway]; ok {
		name, named := tags[KeyName]
		return Classification{
			Kind:    WayRoad,
			Road:    RoadCategoryOf(v),
			Name:    name,
			HasName: named,
		}
	}

	return Classification{Kind: WayUnknown}
}

package scene

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/NERVsystems/osmscene/pkg/geo"
)

func testScene() *Scene {
	name := "Example St"
	s := New()
	s.AddRoad(Road{
		ID:       1,
		Category: RoadResidential,
		Name:     &name,
		Segments: []geo.Point{{X: 110, Y: 220}, {X: 150, Y: 205}},
	})
	s.AddLandUse(LandUse{
		ID:       2,
		Category: LandUseGreen,
		Polygon:  []geo.Point{{X: 100, Y: 200}, {X: 130, Y: 200}, {X: 130, Y: 240}, {X: 100, Y: 200}},
	})
	return s
}

func extentOf(s *Scene) geo.Rect {
	r := geo.EmptyRect()
	for _, g := range s.Geometries() {
		for _, p := range g.Points() {
			r.Extend(p)
		}
	}
	return r
}

func TestNormalize(t *testing.T) {
	s := testScene()
	if err := s.Normalize(extentOf(s)); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if s.Origin != (geo.Point{X: 100, Y: 200}) {
		t.Errorf("Origin = %v, want (100,200)", s.Origin)
	}
	if s.Bounds != (Size{Width: 50, Height: 40}) {
		t.Errorf("Bounds = %+v, want 50x40", s.Bounds)
	}

	wantRoad := []geo.Point{{X: 10, Y: 20}, {X: 50, Y: 5}}
	for i, p := range s.Roads[0].Segments {
		if p != wantRoad[i] {
			t.Errorf("road point %d = %v, want %v", i, p, wantRoad[i])
		}
	}

	// The minimum normalized coordinate of the kept scene is the origin.
	if got := extentOf(s).Min; got != (geo.Point{}) {
		t.Errorf("normalized minimum = %v, want (0,0)", got)
	}
}

func TestNormalizeEmptyExtent(t *testing.T) {
	s := New()
	if err := s.Normalize(geo.EmptyRect()); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if s.Bounds != (Size{}) {
		t.Errorf("Bounds = %+v, want 0x0", s.Bounds)
	}
	if !s.Normalized() {
		t.Error("scene should report normalized")
	}
}

func TestNormalizeTwice(t *testing.T) {
	s := testScene()
	if err := s.Normalize(extentOf(s)); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if err := s.Normalize(extentOf(s)); !errors.Is(err, ErrAlreadyNormalized) {
		t.Errorf("second Normalize error = %v, want ErrAlreadyNormalized", err)
	}
}

func TestGeometriesVariants(t *testing.T) {
	s := testScene()
	geoms := s.Geometries()
	if len(geoms) != 2 {
		t.Fatalf("got %d geometries, want 2", len(geoms))
	}

	for _, g := range geoms {
		switch v := g.(type) {
		case *Road:
			if v.Kind() != KindRoad || !v.HasName() {
				t.Errorf("unexpected road %+v", v)
			}
		case *LandUse:
			if v.Kind() != KindLandUse || v.Category != LandUseGreen {
				t.Errorf("unexpected land use %+v", v)
			}
		default:
			t.Errorf("unexpected geometry %T", g)
		}
	}
}

func TestCategoryNames(t *testing.T) {
	if RoadResidential.String() != "residential" {
		t.Errorf("RoadResidential = %q", RoadResidential.String())
	}
	if RoadCategory(99).String() != "RoadCategory(99)" {
		t.Errorf("out of range road category = %q", RoadCategory(99).String())
	}
	if LandUseWater.String() != "water" {
		t.Errorf("LandUseWater = %q", LandUseWater.String())
	}

	if c, ok := ParseRoadCategory("motorway"); !ok || c != RoadMotorway {
		t.Errorf("ParseRoadCategory(motorway) = %v, %v", c, ok)
	}
	if _, ok := ParseRoadCategory("highway"); ok {
		t.Error("ParseRoadCategory accepted an unknown name")
	}
	if c, ok := ParseLandUseCategory("green"); !ok || c != LandUseGreen {
		t.Errorf("ParseLandUseCategory(green) = %v, %v", c, ok)
	}
}

func TestSceneJSON(t *testing.T) {
	s := testScene()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded struct {
		Roads []struct {
			Category RoadCategory `json:"category"`
			Name     string       `json:"name"`
		} `json:"roads"`
		LandUses []struct {
			Category LandUseCategory `json:"category"`
		} `json:"land_uses"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Roads[0].Category != RoadResidential || decoded.Roads[0].Name != "Example St" {
		t.Errorf("decoded road = %+v", decoded.Roads[0])
	}
	if decoded.LandUses[0].Category != LandUseGreen {
		t.Errorf("decoded land use = %+v", decoded.LandUses[0])
	}
}

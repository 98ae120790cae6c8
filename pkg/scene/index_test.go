package scene

import (
	"testing"

	"github.com/NERVsystems/osmscene/pkg/geo"
)

func TestFeaturesIn(t *testing.T) {
	s := testScene()
	if err := s.Normalize(extentOf(s)); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	tests := []struct {
		name  string
		rect  geo.Rect
		kinds []Kind
	}{
		{
			name:  "whole scene",
			rect:  geo.Rect{Min: geo.Point{}, Max: geo.Point{X: 50, Y: 40}},
			kinds: []Kind{KindRoad, KindLandUse},
		},
		{
			name:  "only road corner",
			rect:  geo.Rect{Min: geo.Point{X: 45, Y: 0}, Max: geo.Point{X: 50, Y: 4}},
			kinds: []Kind{},
		},
		{
			name:  "road end point",
			rect:  geo.Rect{Min: geo.Point{X: 45, Y: 5}, Max: geo.Point{X: 50, Y: 5}},
			kinds: []Kind{KindRoad},
		},
		{
			name:  "land use only",
			rect:  geo.Rect{Min: geo.Point{X: 0, Y: 30}, Max: geo.Point{X: 5, Y: 40}},
			kinds: []Kind{KindLandUse},
		},
		{
			name:  "outside",
			rect:  geo.Rect{Min: geo.Point{X: 1000, Y: 1000}, Max: geo.Point{X: 2000, Y: 2000}},
			kinds: []Kind{},
		},
		{
			name:  "empty query",
			rect:  geo.EmptyRect(),
			kinds: []Kind{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.FeaturesIn(tt.rect)
			if len(got) != len(tt.kinds) {
				t.Fatalf("got %d features, want %d", len(got), len(tt.kinds))
			}
			for i, g := range got {
				if g.Kind() != tt.kinds[i] {
					t.Errorf("feature %d kind = %v, want %v", i, g.Kind(), tt.kinds[i])
				}
			}
		})
	}
}

func TestNewIndexSkipsEmpty(t *testing.T) {
	idx := NewIndex([]Geometry{
		&Road{ID: 1},
		&Road{ID: 2, Segments: []geo.Point{{X: 1, Y: 1}}},
	})
	if idx.Size() != 1 {
		t.Fatalf("Size = %d, want 1", idx.Size())
	}

	got := idx.Search(geo.Rect{Min: geo.Point{X: 1, Y: 1}, Max: geo.Point{X: 1, Y: 1}})
	if len(got) != 1 || got[0].WayID() != 2 {
		t.Errorf("Search = %v", got)
	}
}

func BenchmarkFeaturesIn(b *testing.B) {
	s := New()
	for i := 0; i < 10000; i++ {
		x := geo.Coord(i%100) * 10
		y := geo.Coord(i/100) * 10
		s.AddRoad(Road{
			ID:       int64(i + 1),
			Category: RoadMinor,
			Segments: []geo.Point{{X: x, Y: y}, {X: x + 5, Y: y + 5}},
		})
	}
	viewport := geo.Rect{Min: geo.Point{X: 100, Y: 100}, Max: geo.Point{X: 200, Y: 200}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.FeaturesIn(viewport)
	}
}

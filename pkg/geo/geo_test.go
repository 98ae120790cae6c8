package geo

import (
	"math"
	"testing"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		zoom int
		want Point
	}{
		{name: "origin at zoom 1", lat: 0, lon: 0, zoom: 1, want: Point{X: 1, Y: 1}},
		{name: "north west corner", lat: 85.0511287798, lon: -180, zoom: 2, want: Point{X: 0, Y: 0}},
		{name: "null island at zoom 23", lat: 0, lon: 0, zoom: Zoom, want: Point{X: 1 << 22, Y: 1 << 22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.lat, tt.lon, tt.zoom)
			if got != tt.want {
				t.Errorf("Project(%v, %v, %d) = %v, want %v", tt.lat, tt.lon, tt.zoom, got, tt.want)
			}
		})
	}
}

func TestProjectMatchesFormula(t *testing.T) {
	lat, lon := 54.0887, 12.1405
	n := math.Pow(2, Zoom)
	latRad := lat * math.Pi / 180
	wantX := Coord((lon + 180) / 360 * n)
	wantY := Coord((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)

	got := Project(lat, lon, Zoom)
	if got.X != wantX || got.Y != wantY {
		t.Errorf("Project = %v, want (%d,%d)", got, wantX, wantY)
	}
	if !got.IsSet() {
		t.Error("projected point should be set")
	}
}

func TestProjectRejectsOffGrid(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		zoom int
	}{
		{name: "pole", lat: 90, lon: 0, zoom: Zoom},
		{name: "south pole", lat: -90, lon: 0, zoom: Zoom},
		{name: "beyond mercator", lat: 86, lon: 0, zoom: Zoom},
		{name: "longitude too large", lat: 0, lon: 181, zoom: Zoom},
		{name: "nan", lat: math.NaN(), lon: 0, zoom: Zoom},
		{name: "inf", lat: 0, lon: math.Inf(1), zoom: Zoom},
		{name: "negative zoom", lat: 0, lon: 0, zoom: -1},
		{name: "zoom too large", lat: 0, lon: 0, zoom: MaxZoom + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Project(tt.lat, tt.lon, tt.zoom); got != UnsetPoint {
				t.Errorf("Project(%v, %v, %d) = %v, want unset", tt.lat, tt.lon, tt.zoom, got)
			}
		})
	}
}

func TestUnsetNeverProjected(t *testing.T) {
	// The far edge of the largest grid still sits below the sentinel.
	p := Project(-85.05, 180, MaxZoom)
	if !p.IsSet() {
		t.Fatalf("edge of grid should project, got %v", p)
	}
	if p.X == Unset || p.Y == Unset {
		t.Errorf("projected coordinate collided with sentinel: %v", p)
	}
}

func TestUnprojectRoundTrip(t *testing.T) {
	loc := Location{Latitude: 40.7128, Longitude: -74.0060}
	p := ProjectLocation(loc, Zoom)
	back := Unproject(p, Zoom)

	// One unit at zoom 23 spans about 4e-5 degrees of longitude.
	const tol = 1e-4
	if math.Abs(back.Latitude-loc.Latitude) > tol || math.Abs(back.Longitude-loc.Longitude) > tol {
		t.Errorf("Unproject(Project(%v)) = %v", loc, back)
	}
}

func TestRect(t *testing.T) {
	r := EmptyRect()
	if !r.IsEmpty() {
		t.Fatal("new rect should be empty")
	}
	if r.Width() != 0 || r.Height() != 0 {
		t.Errorf("empty rect size = %dx%d, want 0x0", r.Width(), r.Height())
	}

	r.Extend(Point{X: 10, Y: 20})
	r.Extend(Point{X: 4, Y: 30})
	if r.Min != (Point{X: 4, Y: 20}) || r.Max != (Point{X: 10, Y: 30}) {
		t.Errorf("rect = %+v", r)
	}
	if r.Width() != 6 || r.Height() != 10 {
		t.Errorf("size = %dx%d, want 6x10", r.Width(), r.Height())
	}
	if !r.Contains(Point{X: 5, Y: 25}) {
		t.Error("expected point inside")
	}
	if r.Contains(Point{X: 11, Y: 25}) {
		t.Error("expected point outside")
	}
	if !r.Intersects(Rect{Min: Point{X: 10, Y: 30}, Max: Point{X: 12, Y: 40}}) {
		t.Error("touching rectangles should intersect")
	}
	if r.Intersects(EmptyRect()) {
		t.Error("nothing intersects an empty rect")
	}
}

func TestPointSub(t *testing.T) {
	origin := Point{X: 3, Y: 4}
	p := Point{X: 10, Y: 4}
	if !p.Within(origin) {
		t.Fatal("p should be within origin")
	}
	if got := p.Sub(origin); got != (Point{X: 7, Y: 0}) {
		t.Errorf("Sub = %v", got)
	}
	if (Point{X: 2, Y: 9}).Within(origin) {
		t.Error("point left of origin is not within")
	}
}

package scene

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/NERVsystems/osmscene/pkg/geo"
)

// Index is an R-tree over the bounding rectangles of a scene's geometries.
type Index struct {
	rtree *rtreego.Rtree
	size  int
}

// indexedGeometry wraps a geometry for R-tree storage.
type indexedGeometry struct {
	geom   Geometry
	bounds geo.Rect
	seq    int
}

// Bounds implements rtreego.Spatial. Planar rectangles are inclusive, so a
// single-unit feature still gets a non-zero extent.
func (g *indexedGeometry) Bounds() rtreego.Rect {
	return toRect(g.bounds)
}

func toRect(r geo.Rect) rtreego.Rect {
	point := rtreego.Point{float64(r.Min.X), float64(r.Min.Y)}
	lengths := []float64{
		float64(r.Max.X-r.Min.X) + 1,
		float64(r.Max.Y-r.Min.Y) + 1,
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// NewIndex builds an index over geoms. Geometries without points are skipped.
func NewIndex(geoms []Geometry) *Index {
	// 2D, min=25 children, max=50 children
	tree := rtreego.NewTree(2, 25, 50)
	idx := &Index{rtree: tree}
	for i, g := range geoms {
		b := g.Bounds()
		if b.IsEmpty() {
			continue
		}
		tree.Insert(&indexedGeometry{geom: g, bounds: b, seq: i})
		idx.size++
	}
	return idx
}

// Size returns the number of indexed geometries.
func (idx *Index) Size() int {
	return idx.size
}

// Search returns the geometries whose bounding rectangle intersects r, in
// the order they were given to NewIndex.
func (idx *Index) Search(r geo.Rect) []Geometry {
	if r.IsEmpty() || idx.size == 0 {
		return nil
	}

	spatials := idx.rtree.SearchIntersect(toRect(r))
	hits := make([]*indexedGeometry, 0, len(spatials))
	for _, s := range spatials {
		ig := s.(*indexedGeometry)
		// The R-tree treats shared edges of the widened rectangles as hits;
		// confirm against the inclusive planar rectangle.
		if ig.bounds.Intersects(r) {
			hits = append(hits, ig)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	out := make([]Geometry, len(hits))
	for i, h := range hits {
		out[i] = h.geom
	}
	return out
}

// FeaturesIn returns every kept geometry whose bounding rectangle
// intersects r. The index is built on first use.
func (s *Scene) FeaturesIn(r geo.Rect) []Geometry {
	s.indexOnce.Do(func() {
		s.index = NewIndex(s.Geometries())
	})
	return s.index.Search(r)
}

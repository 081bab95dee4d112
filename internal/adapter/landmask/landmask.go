// Package landmask answers distance-to-land queries from GeoJSON land
// polygons.
package landmask

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
	"github.com/couchcryptid/storm-track-verify/internal/geo"
)

// Mask holds land polygons. It implements verify.LandDistancer and is safe
// for concurrent use once loaded.
type Mask struct {
	polygons []orb.Polygon
	bounds   []orb.Bound
}

// LoadFile reads a GeoJSON FeatureCollection of land polygons.
func LoadFile(path string) (*Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open land mask: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a GeoJSON FeatureCollection. Polygon and MultiPolygon
// features are kept; other geometries are ignored.
func Load(r io.Reader) (*Mask, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read land mask: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse land mask: %w", err)
	}

	var polys []orb.Polygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polys = append(polys, g)
		case orb.MultiPolygon:
			polys = append(polys, g...)
		}
	}
	if len(polys) == 0 {
		return nil, fmt.Errorf("land mask has no polygons")
	}
	return New(polys), nil
}

// New builds a Mask from polygons in longitude, latitude order.
func New(polys []orb.Polygon) *Mask {
	m := &Mask{polygons: polys, bounds: make([]orb.Bound, len(polys))}
	for i, p := range polys {
		m.bounds[i] = p.Bound()
	}
	return m
}

// Len is the number of polygons in the mask.
func (m *Mask) Len() int { return len(m.polygons) }

// OverLand reports whether the position falls inside a land polygon.
func (m *Mask) OverLand(lat, lon float64) bool {
	p := geo.Point(lat, lon)
	for i, poly := range m.polygons {
		if m.bounds[i].Contains(p) && planar.PolygonContains(poly, p) {
			return true
		}
	}
	return false
}

// DistanceToLand returns the distance in nautical miles from the position
// to the nearest coastline, negative over land. Distances use a local
// equirectangular projection around the position.
func (m *Mask) DistanceToLand(lat, lon float64) float64 {
	if atcf.IsMissing(lat) || atcf.IsMissing(lon) || len(m.polygons) == 0 {
		return atcf.Missing
	}

	best := math.Inf(1)
	for _, poly := range m.polygons {
		for _, ring := range poly {
			for i := 1; i < len(ring); i++ {
				if d := segmentDistanceNM(lat, lon, ring[i-1], ring[i]); d < best {
					best = d
				}
			}
		}
	}

	if m.OverLand(lat, lon) {
		return -best
	}
	return best
}

// segmentDistanceNM is the distance from (lat, lon) to the segment a-b.
func segmentDistanceNM(lat, lon float64, a, b orb.Point) float64 {
	scale := math.Cos(lat * math.Pi / 180)
	ax, ay := geo.DeltaLon(lon, a.Lon())*scale, a.Lat()-lat
	bx, by := geo.DeltaLon(lon, b.Lon())*scale, b.Lat()-lat

	dx, dy := bx-ax, by-ay
	t := 0.0
	if l2 := dx*dx + dy*dy; l2 > 0 {
		t = math.Max(0, math.Min(1, -(ax*dx+ay*dy)/l2))
	}
	px, py := ax+t*dx, ay+t*dy
	return math.Hypot(px, py) * geo.NMPerDegree
}

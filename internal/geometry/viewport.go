package geometry

import (
	"github.com/paulmach/orb"
)

// Buffer radii in degrees. The two panels zoom independently.
const (
	MainPanelRadius    = 0.005
	LocatorPanelRadius = 0.05
)

// Viewport is a map extent in the south-west / north-east form Leaflet expects
type Viewport struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BufferBounds returns the bounding box of a circle of radius degrees around (lon, lat)
func BufferBounds(lon, lat, radius float64) orb.Bound {
	if radius < 0 {
		radius = -radius
	}
	return orb.Point{lon, lat}.Bound().Pad(radius)
}

// ViewportFromBound converts an orb bound into a viewport
func ViewportFromBound(b orb.Bound) Viewport {
	return Viewport{
		South: b.Min.Lat(),
		West:  b.Min.Lon(),
		North: b.Max.Lat(),
		East:  b.Max.Lon(),
	}
}

package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"housefinder/server/config"
	"housefinder/server/internal/geometry"
	"housefinder/server/internal/models"
)

// World-scale starting view used until a listing is located
const (
	DefaultCenterLat = 36.3
	DefaultCenterLon = 0.0
	DefaultZoom      = 2

	MarkerLayerName = "House marker"
)

type Basemap struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

var HybridBasemap = Basemap{
	Name:        "HYBRID",
	URL:         "https://mt1.google.com/vt/lyrs=y&x={x}&y={y}&z={z}",
	Attribution: "Google",
}

// Map is the declarative description of one map panel, rendered client side
type Map struct {
	Center      [2]float64                 `json:"center"`
	Zoom        int                        `json:"zoom"`
	Basemap     Basemap                    `json:"basemap"`
	Overlays    []config.Overlay           `json:"overlays"`
	MarkerLayer string                     `json:"marker_layer"`
	Markers     *geojson.FeatureCollection `json:"markers"`
	Bounds      *geometry.Viewport         `json:"bounds,omitempty"`
}

// New returns a map at the world-scale default view
func New(basemap Basemap) *Map {
	return &Map{
		Center:      [2]float64{DefaultCenterLat, DefaultCenterLon},
		Zoom:        DefaultZoom,
		Basemap:     basemap,
		Overlays:    []config.Overlay{},
		MarkerLayer: MarkerLayerName,
		Markers:     geojson.NewFeatureCollection(),
	}
}

// AddOverlays attaches WMS layers on top of the basemap
func (m *Map) AddOverlays(overlays []config.Overlay) {
	m.Overlays = append(m.Overlays, overlays...)
}

// AddMarker places the single point marker, replacing any previous one
func (m *Map) AddMarker(coords models.Coordinates, popup string) {
	feature := geojson.NewFeature(orb.Point{coords.Longitude, coords.Latitude})
	feature.Properties = geojson.Properties{
		"popup": popup,
	}

	m.Markers = geojson.NewFeatureCollection()
	m.Markers.Append(feature)
}

// ZoomToPoint fits the viewport to a box of radius degrees around coords
func (m *Map) ZoomToPoint(coords models.Coordinates, radius float64) {
	bound := geometry.BufferBounds(coords.Longitude, coords.Latitude, radius)
	viewport := geometry.ViewportFromBound(bound)

	center := bound.Center()
	m.Center = [2]float64{center.Lat(), center.Lon()}
	m.Bounds = &viewport
}

// MarkerCount returns the number of markers on the map
func (m *Map) MarkerCount() int {
	if m.Markers == nil {
		return 0
	}
	return len(m.Markers.Features)
}

package mapview

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housefinder/server/config"
	"housefinder/server/internal/geometry"
	"housefinder/server/internal/models"
)

func TestNew_DefaultView(t *testing.T) {
	m := New(HybridBasemap)

	assert.Equal(t, [2]float64{36.3, 0}, m.Center)
	assert.Equal(t, 2, m.Zoom)
	assert.Equal(t, "HYBRID", m.Basemap.Name)
	assert.Nil(t, m.Bounds)
	assert.Equal(t, 0, m.MarkerCount())
	assert.Empty(t, m.Overlays)
}

func TestAddOverlays(t *testing.T) {
	m := New(HybridBasemap)
	m.AddOverlays(config.Overlays())

	require.Len(t, m.Overlays, 3)
	assert.Equal(t, config.GetOverlayNames()[0], m.Overlays[0].Name)
}

func TestAddMarker_SingleMarker(t *testing.T) {
	m := New(HybridBasemap)
	m.AddMarker(models.Coordinates{Longitude: -2.0, Latitude: 51.0}, "first")
	m.AddMarker(models.Coordinates{Longitude: -2.23, Latitude: 51.75}, "house1")

	require.Equal(t, 1, m.MarkerCount())
	feature := m.Markers.Features[0]
	assert.Equal(t, orb.Point{-2.23, 51.75}, feature.Geometry)
	assert.Equal(t, "house1", feature.Properties["popup"])
}

func TestZoomToPoint(t *testing.T) {
	coords := models.Coordinates{Longitude: -2.2, Latitude: 51.7}

	main := New(HybridBasemap)
	main.ZoomToPoint(coords, geometry.MainPanelRadius)

	locator := New(HybridBasemap)
	locator.ZoomToPoint(coords, geometry.LocatorPanelRadius)

	require.NotNil(t, main.Bounds)
	require.NotNil(t, locator.Bounds)
	assert.InDelta(t, 51.7, main.Center[0], 1e-9)
	assert.InDelta(t, -2.2, main.Center[1], 1e-9)
	assert.InDelta(t, -2.205, main.Bounds.West, 1e-9)
	assert.InDelta(t, -2.25, locator.Bounds.West, 1e-9)
	assert.NotEqual(t, *main.Bounds, *locator.Bounds)
}

func TestMap_MarshalJSON(t *testing.T) {
	m := New(HybridBasemap)
	m.AddOverlays(config.Overlays())
	m.AddMarker(models.Coordinates{Longitude: -2.23, Latitude: 51.75}, "house1")
	m.ZoomToPoint(models.Coordinates{Longitude: -2.23, Latitude: 51.75}, geometry.MainPanelRadius)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	markers := decoded["markers"].(map[string]interface{})
	assert.Equal(t, "FeatureCollection", markers["type"])
	features := markers["features"].([]interface{})
	require.Len(t, features, 1)
	geom := features[0].(map[string]interface{})["geometry"].(map[string]interface{})
	assert.Equal(t, "Point", geom["type"])
	assert.Equal(t, []interface{}{-2.23, 51.75}, geom["coordinates"])

	assert.Len(t, decoded["overlays"], 3)
	assert.Contains(t, decoded, "bounds")
}

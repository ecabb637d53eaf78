package config

// Overlay describes one external WMS layer drawn on top of the basemap
type Overlay struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Layers      string `json:"layers"`
	Format      string `json:"format"`
	Transparent bool   `json:"transparent"`
	Shown       bool   `json:"shown"`
}

// SupportedOverlays is the fixed set of environmental layers attached to every map
var SupportedOverlays = []Overlay{
	{
		Name:        "Road_Noise_Lden_England_Round_3",
		URL:         "https://environment.data.gov.uk/spatialdata/road-noise-lden-england-round-3/wms",
		Layers:      "Road_Noise_Lden_England_Round_3",
		Format:      "image/png",
		Transparent: true,
		Shown:       true,
	},
	{
		Name:        "Rail_Noise_Lden_England_Round_3",
		URL:         "https://environment.data.gov.uk/spatialdata/rail-noise-lden-england-round-3/wms",
		Layers:      "Rail_Noise_Lden_England_Round_3",
		Format:      "image/png",
		Transparent: true,
		Shown:       true,
	},
	{
		Name:        "Flood_Map_for_Planning_Rivers_and_Sea_Flood_Zone_2",
		URL:         "https://environment.data.gov.uk/spatialdata/flood-map-for-planning-rivers-and-sea-flood-zone-2/wms",
		Layers:      "Flood_Map_for_Planning_Rivers_and_Sea_Flood_Zone_2",
		Format:      "image/png",
		Transparent: true,
		Shown:       true,
	},
}

// Overlays returns a copy of the overlay catalogue
func Overlays() []Overlay {
	overlays := make([]Overlay, len(SupportedOverlays))
	copy(overlays, SupportedOverlays)
	return overlays
}

// GetOverlayNames returns the names of all supported overlays
func GetOverlayNames() []string {
	names := make([]string, len(SupportedOverlays))
	for i, overlay := range SupportedOverlays {
		names[i] = overlay.Name
	}
	return names
}

// GetOverlayByName returns an overlay configuration by name
func GetOverlayByName(name string) *Overlay {
	for _, overlay := range SupportedOverlays {
		if overlay.Name == name {
			return &overlay
		}
	}
	return nil
}

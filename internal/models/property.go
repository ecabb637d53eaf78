package models

// Coordinates is a WGS84 position. Longitude and latitude are only ever set together.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// PropertyRecord holds the data extracted from one listing page. Optional
// fields are nil or empty when the page does not provide them.
type PropertyRecord struct {
	URL         string       `json:"url"`
	Coordinates *Coordinates `json:"coordinates"`
	Address     *string      `json:"address"`
	Description *string      `json:"description"`
	Images      []string     `json:"images"`
	Floorplan   *string      `json:"floorplan"`
	HasGarage   bool         `json:"has_garage"`
}

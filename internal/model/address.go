package model

// Neighborhood is one row of the registry's neighborhood listing.
type Neighborhood struct {
	ID             string `json:"id" csv:"id"`
	NeighborhoodID string `json:"neighborhood_id" csv:"neighborhoodid"`
	Name           string `json:"name" csv:"neighborhoodname"`
}

// Street is one street of a neighborhood.
type Street struct {
	ID             string `json:"id" csv:"id"`
	StreetID       string `json:"street_id" csv:"streetid"`
	Name           string `json:"name" csv:"streetname"`
	NeighborhoodID string `json:"neighborhood_id" csv:"neighborhood_id"`
}

// Door is one door-number entry of a street.
type Door struct {
	ID           string `json:"id" csv:"id"`
	Neighborhood string `json:"neighborhood" csv:"neighborhood"`
	Street       string `json:"street" csv:"street"`
	AddressType  string `json:"address_type" csv:"addresstype"`
	DoorNo       string `json:"door_no" csv:"doorno"`
	Area         string `json:"area" csv:"area"`
	Editor       string `json:"editor" csv:"editor"`
	DateCreated  string `json:"date_created" csv:"datecreated"`
	DateModified string `json:"date_modified" csv:"datemodified"`
	RowVersion   string `json:"row_version" csv:"rowversion"`
}

// PlacedDoor is a door together with the meeting point of its area.
type PlacedDoor struct {
	Door
	MeetLatitude  float64 `json:"meet_latitude" csv:"meetLatitude"`
	MeetLongitude float64 `json:"meet_longitude" csv:"meetLongitude"`
}

// MeetingPoint is the designated coordinate shared by every door of an area.
type MeetingPoint struct {
	Area      string  `json:"area" csv:"area"`
	Latitude  float64 `json:"latitude" csv:"latitude"`
	Longitude float64 `json:"longitude" csv:"longitude"`
}

// BoundingBox is the valid geographic extent of the municipality.
type BoundingBox struct {
	MinLat float64 `json:"min_lat" mapstructure:"min_lat"`
	MaxLat float64 `json:"max_lat" mapstructure:"max_lat"`
	MinLon float64 `json:"min_lon" mapstructure:"min_lon"`
	MaxLon float64 `json:"max_lon" mapstructure:"max_lon"`
}

// Contains reports whether (lat, lon) lies inside the box. All four edges are
// inclusive. NaN coordinates are never contained.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return b.MinLat <= lat && lat <= b.MaxLat && b.MinLon <= lon && lon <= b.MaxLon
}

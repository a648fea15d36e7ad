package model

// GeocodedRow is one candidate from the batch geocoder's result file.
// LocationLabel is nil when the geocoder left the cell empty. Missing
// coordinates are NaN.
type GeocodedRow struct {
	RecID         string
	SeqNumber     int
	SeqLength     int
	Latitude      float64
	Longitude     float64
	LocationLabel *string
	HouseNumber   string
	Street        string
	District      string
	City          string
	PostalCode    string
	County        string
	State         string
	Country       string
}

// AddressRecord is a door joined positionally with its top geocoder candidate
// and the outcome of validating that candidate.
type AddressRecord struct {
	PlacedDoor
	RecID            string  `json:"rec_id" csv:"recId"`
	SeqNumber        int     `json:"seq_number" csv:"SeqNumber"`
	Latitude         float64 `json:"latitude" csv:"latitude"`
	Longitude        float64 `json:"longitude" csv:"longitude"`
	LocationLabel    string  `json:"location_label" csv:"locationLabel"`
	HouseNumber      string  `json:"house_number" csv:"houseNumber"`
	GeocodedStreet   string  `json:"geocoded_street" csv:"street_name"`
	District         string  `json:"district" csv:"district"`
	City             string  `json:"city" csv:"city"`
	PostalCode       string  `json:"postal_code" csv:"postalCode"`
	Country          string  `json:"country" csv:"country"`
	CorrectGeocoding bool    `json:"correct_geocoding" csv:"correct_geocoding"`
}

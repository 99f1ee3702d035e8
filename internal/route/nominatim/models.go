package nominatim

// searchResult is a single entry of the jsonv2 search response.
// Nominatim returns coordinates as decimal strings.
type searchResult struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Name        string  `json:"name,omitempty"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category,omitempty"`
	Type        string  `json:"type,omitempty"`
	Importance  float64 `json:"importance,omitempty"`
}

// errorResponse is the body returned with 4xx statuses.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

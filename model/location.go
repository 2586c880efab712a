package model

// LocationRecord is the canonical location produced by geocoding.
// Lat and Lon are rounded to two decimal places so that records from
// nearby queries share downstream cache keys.
type LocationRecord struct {
	City        string  `json:"city"`
	Region      string  `json:"region"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type IPLocationRecord struct {
	IP          string  `json:"ip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	RegionCode  string  `json:"region_code"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Zip         string  `json:"zip"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
}

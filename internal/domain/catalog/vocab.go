package catalog

// interests is the fixed topic vocabulary users draw from.
var interests = []string{
	"technology", "fashion", "travel", "food", "fitness",
	"gaming", "music", "art", "sports", "photography",
	"business", "education", "health", "entertainment", "cooking",
	"reading", "movies", "nature", "cars", "pets",
}

// cities is the fixed city list, already in canonical capitalization.
var cities = []string{
	"New York", "Los Angeles", "London", "Mumbai", "Tokyo",
	"Paris", "Berlin", "Sydney", "Toronto", "Singapore",
	"Dubai", "Hong Kong", "Seoul", "Barcelona", "Amsterdam",
}

// genders is the fixed gender enumeration.
var genders = []string{"Male", "Female", "Non-binary"}

// Coord is a latitude/longitude pair for map rendering.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// cityCoords keys are lowercase city names.
var cityCoords = map[string]Coord{
	"new york":    {Lat: 40.7128, Lng: -74.0060},
	"los angeles": {Lat: 34.0522, Lng: -118.2437},
	"london":      {Lat: 51.5074, Lng: -0.1278},
	"mumbai":      {Lat: 19.0760, Lng: 72.8777},
	"tokyo":       {Lat: 35.6762, Lng: 139.6503},
	"paris":       {Lat: 48.8566, Lng: 2.3522},
	"berlin":      {Lat: 52.5200, Lng: 13.4050},
	"sydney":      {Lat: -33.8688, Lng: 151.2093},
	"toronto":     {Lat: 43.6532, Lng: -79.3832},
	"singapore":   {Lat: 1.3521, Lng: 103.8198},
	"dubai":       {Lat: 25.2048, Lng: 55.2708},
	"hong kong":   {Lat: 22.3193, Lng: 114.1694},
	"seoul":       {Lat: 37.5665, Lng: 126.9780},
	"barcelona":   {Lat: 41.3851, Lng: 2.1734},
	"amsterdam":   {Lat: 52.3676, Lng: 4.9041},
}

// Interests returns a copy of the topic vocabulary.
func Interests() []string {
	out := make([]string, len(interests))
	copy(out, interests)
	return out
}

// Cities returns a copy of the city list.
func Cities() []string {
	out := make([]string, len(cities))
	copy(out, cities)
	return out
}

// Genders returns a copy of the gender enumeration.
func Genders() []string {
	out := make([]string, len(genders))
	copy(out, genders)
	return out
}

// CityCoord returns map coordinates for a canonical city name, case
// insensitively. Unknown cities resolve to 0,0.
func CityCoord(city string) Coord {
	if c, ok := cityCoords[normalizeCity(city)]; ok {
		return c
	}
	return Coord{}
}

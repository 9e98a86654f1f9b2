package weather

import "strings"

// City is a canonical location entry in the fixed forecast target table.
type City struct {
	Name      string
	Aliases   []string
	Latitude  float64
	Longitude float64
}

// Cities is the fixed, case-sensitive canonical city table. Order matters:
// it is also the resolution priority used by the question parser.
var Cities = []City{
	{Name: "London", Aliases: []string{"london"}, Latitude: 51.5074, Longitude: -0.1278},
	{Name: "New York", Aliases: []string{"new york", "nyc"}, Latitude: 40.7128, Longitude: -74.0060},
	{Name: "Chicago", Aliases: []string{"chicago"}, Latitude: 41.8781, Longitude: -87.6298},
	{Name: "Seoul", Aliases: []string{"seoul"}, Latitude: 37.5665, Longitude: 126.9780},
}

// FindCity resolves a canonical city by exact name (case-sensitive), as
// produced by ParseWeatherQuestion.
func FindCity(name string) (City, bool) {
	for _, c := range Cities {
		if c.Name == name {
			return c, true
		}
	}
	return City{}, false
}

// ResolveCityInText finds the first city (in table order) whose alias
// appears as a case-insensitive substring of text. Used by the question
// parser's city-resolution step.
func ResolveCityInText(text string) (City, bool) {
	lower := strings.ToLower(text)
	for _, c := range Cities {
		for _, alias := range c.Aliases {
			if strings.Contains(lower, alias) {
				return c, true
			}
		}
	}
	return City{}, false
}

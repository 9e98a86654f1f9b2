package market

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nagavaishak/celsius-go/internal/weather"
)

// ParseError is returned when a market question cannot be reduced to a
// WeatherMarketInfo.
type ParseError struct {
	Question string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("market: cannot parse question %q: %s", e.Question, e.Reason)
}

var thresholdPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(°F|°C|degrees?\s*F\b|degrees?\s*C\b|degrees?)`)

// ParseWeatherQuestion extracts {city, threshold_celsius, comparison} from
// a market question's free text, applying the rules in order:
//  1. canonical city resolution by substring, first match in table order wins
//  2. threshold extraction, converting °F to °C as needed
//  3. comparison direction, Above checked before Below
func ParseWeatherQuestion(question string) (WeatherMarketInfo, error) {
	city, ok := weather.ResolveCityInText(question)
	if !ok {
		return WeatherMarketInfo{}, &ParseError{Question: question, Reason: "no known city mentioned"}
	}

	match := thresholdPattern.FindStringSubmatch(question)
	if match == nil {
		return WeatherMarketInfo{}, &ParseError{Question: question, Reason: "no temperature threshold found"}
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return WeatherMarketInfo{}, &ParseError{Question: question, Reason: "malformed threshold number"}
	}

	unit := strings.ToLower(match[2])
	threshold := value
	if strings.Contains(unit, "f") {
		threshold = weather.FahrenheitToCelsius(value)
	}

	lower := strings.ToLower(question)
	var comparison Comparison
	switch {
	case strings.Contains(lower, "exceed") || strings.Contains(lower, "above") || strings.Contains(question, ">"):
		comparison = Above
	case strings.Contains(lower, "below") || strings.Contains(question, "<"):
		comparison = Below
	default:
		return WeatherMarketInfo{}, &ParseError{Question: question, Reason: "no comparison direction found"}
	}

	return WeatherMarketInfo{
		City:       city.Name,
		Threshold:  threshold,
		Comparison: comparison,
	}, nil
}

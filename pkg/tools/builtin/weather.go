package builtin

import (
	"ai-agent-be/pkg/tools"
	"context"
	"fmt"
	"net/url"
)

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

// Weather reports current conditions for a city via Open-Meteo
func Weather(cfg Config) tools.Tool {
	cfg.applyDefaults()
	return tools.Tool{
		Descriptor: tools.Descriptor{
			Name:        "get_weather",
			Description: "Get the current weather for a city",
			Params: []tools.Param{
				{Name: "city", Type: tools.TypeString, Description: "City name, e.g. Seoul", Required: true},
			},
		},
		Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
			city, err := tools.String(args, "city")
			if err != nil {
				return "", err
			}

			var geo geocodingResponse
			geoURL := fmt.Sprintf("%s?name=%s&count=1&format=json", cfg.GeocodingURL, url.QueryEscape(city))
			if err := getJSON(ctx, cfg.HTTPClient, geoURL, &geo); err != nil {
				return "", fmt.Errorf("geocode %s: %w", city, err)
			}
			if len(geo.Results) == 0 {
				return fmt.Sprintf("No location found for %q.", city), nil
			}
			place := geo.Results[0]

			var forecast forecastResponse
			forecastURL := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code",
				cfg.ForecastURL, place.Latitude, place.Longitude)
			if err := getJSON(ctx, cfg.HTTPClient, forecastURL, &forecast); err != nil {
				return "", fmt.Errorf("forecast %s: %w", city, err)
			}

			c := forecast.Current
			return fmt.Sprintf("Weather in %s, %s at %s: %s, %.1f°C, humidity %.0f%%, wind %.1f km/h.",
				place.Name, place.Country, c.Time, describeWeatherCode(c.WeatherCode), c.Temperature, c.Humidity, c.WindSpeed), nil
		},
	}
}

// WMO weather interpretation codes
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code == 85 || code == 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown conditions"
	}
}

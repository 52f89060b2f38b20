package api

import (
	"context"
	"strings"

	"pdiweather/internal/logger"
)

// GeocodeZip resolves a postal code through the provider's zip geocoding
// endpoint. An empty country is left for the provider to default.
func (w *WeatherClient) GeocodeZip(ctx context.Context, code, country string) (*ZipLocation, error) {
	zip := code
	if country != "" {
		zip = code + "," + country
	}

	complete := logger.LogOperationStart("geocoding_zip", map[string]any{
		"endpoint": "zip",
		"zip":      zip,
	})

	doc, err := w.get(ctx, "zip geocoding", w.geoBaseURL+zipEndpoint, map[string]string{
		"zip":   zip,
		"appid": w.apiKey,
	})
	if err != nil {
		complete(err)
		return nil, err
	}

	name, err := doc.String("name")
	if err != nil {
		complete(err)
		return nil, err
	}

	place := &ZipLocation{Name: strings.TrimSpace(name)}
	place.Country, _ = doc.String("country")
	place.Lat, _ = doc.Float("lat")
	place.Lon, _ = doc.Float("lon")

	logger.Debug("Geocoding successful: %s (Country: %s)", place.Name, place.Country)
	complete(nil)
	return place, nil
}

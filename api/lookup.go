package api

import (
	"context"

	"pdiweather/internal/errorutil"
	"pdiweather/internal/logger"
)

// LocationResolver turns a query into a canonical city string
type LocationResolver interface {
	Resolve(ctx context.Context, q LocationQuery) (string, error)
}

var _ LocationResolver = (*Resolver)(nil)

// Result is the outcome of one lookup
type Result struct {
	Query  string // Canonical city string sent upstream
	Record WeatherRecord
}

// DisplayName prefers the provider's own place name, falling back to the
// canonical query
func (r Result) DisplayName() string {
	if place := r.Record.Place(); place != "" {
		if country := r.Record.Country(); country != "" {
			return place + ", " + country
		}
		return place
	}
	return r.Query
}

// Lookup resolves q, fetches its current conditions and normalizes them.
// Each step gates the next; a resolution failure means no weather call.
func Lookup(ctx context.Context, resolver LocationResolver, fetcher WeatherFetcher, q LocationQuery, units UnitPreference) (Result, error) {
	if q == nil {
		return Result{}, &errorutil.ConfigError{Field: "location", Message: "a city name or -zip is required"}
	}

	complete := logger.LogOperationStart("weather_lookup", map[string]any{
		"input": q.Input(),
		"units": units.String(),
	})

	city, err := resolver.Resolve(ctx, q)
	if err != nil {
		complete(err)
		return Result{}, err
	}

	doc, err := fetcher.GetCurrentWeather(ctx, city, units)
	if err != nil {
		complete(err)
		return Result{}, err
	}

	rec, err := Extract(doc)
	if err != nil {
		complete(err)
		return Result{}, errorutil.LogAndWrap(logger.Slog(), "weather normalization", err,
			errorutil.LocationContext(city, units.String())...)
	}

	complete(nil)
	return Result{Query: city, Record: rec}, nil
}

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pdiweather/internal/errorutil"
	"pdiweather/internal/logger"
)

// StateCountry is the only country whose sub-national state codes the
// provider understands in a city query.
const StateCountry = "US"

// LocationQuery is what the user asked for: a City or a PostalCode
type LocationQuery interface {
	// Input echoes the query the way the user supplied it
	Input() string
	isLocationQuery()
}

// City is a free-text city name with optional qualifiers
type City struct {
	Name    string
	State   string // Honored only when Country is StateCountry
	Country string
}

// PostalCode is a postal code that needs geocoding before a weather call
type PostalCode struct {
	Code    string
	Country string
}

func (City) isLocationQuery()       {}
func (PostalCode) isLocationQuery() {}

// Input echoes the city as given
func (c City) Input() string {
	return joinNonEmpty(c.Name, c.State, c.Country)
}

// Input echoes the postal code as given
func (p PostalCode) Input() string {
	return joinNonEmpty(p.Code, p.Country)
}

// CanonicalCity builds the provider's "name[,state][,country]" location
// string. Empty segments are omitted. Commas inside Name are qualifiers: they
// fill State and then Country when those are unset, and anything left over is
// discarded. The state is dropped unless the country is StateCountry; dropped
// reports when any qualifier was discarded.
func CanonicalCity(c City) (query string, dropped bool) {
	name, extra := splitCityName(c.Name)
	state := strings.ToUpper(collapseSpaces(c.State))
	country := strings.ToUpper(collapseSpaces(c.Country))

	if state == "" && len(extra) > 0 {
		state, extra = extra[0], extra[1:]
	}
	if country == "" && len(extra) > 0 {
		country, extra = extra[0], extra[1:]
	}
	// A trailing country repeating the one already chosen is harmless
	if len(extra) == 1 && extra[0] == country {
		extra = nil
	}
	if len(extra) > 0 {
		dropped = true
	}

	if state != "" && country != StateCountry {
		dropped = true
		state = ""
	}
	return joinNonEmpty(name, state, country), dropped
}

// splitCityName separates the place name from any comma-separated
// qualifiers typed after it. Qualifiers are upper-cased.
func splitCityName(raw string) (name string, qualifiers []string) {
	segments := strings.Split(raw, ",")
	for _, seg := range segments[1:] {
		if seg = collapseSpaces(seg); seg != "" {
			qualifiers = append(qualifiers, strings.ToUpper(seg))
		}
	}
	return collapseSpaces(segments[0]), qualifiers
}

// ZipLocation is the place the geocoder found for a postal code
type ZipLocation struct {
	Name    string
	Country string
	Lat     float64
	Lon     float64
}

// Geocoder resolves postal codes to places
type Geocoder interface {
	GeocodeZip(ctx context.Context, code, country string) (*ZipLocation, error)
}

// Resolver turns a LocationQuery into the canonical city string sent as the
// weather endpoint's q parameter.
type Resolver struct {
	geocoder Geocoder
}

// NewResolver creates a resolver that geocodes postal codes with g
func NewResolver(g Geocoder) *Resolver {
	return &Resolver{geocoder: g}
}

// Resolve returns the canonical city string for q. Postal codes cost one
// geocoding round-trip; every failure of that lookup is a LocationNotFound.
func (r *Resolver) Resolve(ctx context.Context, q LocationQuery) (string, error) {
	switch q := q.(type) {
	case City:
		return r.resolveCity(q)
	case PostalCode:
		return r.resolvePostalCode(ctx, q)
	default:
		return "", &errorutil.ConfigError{Field: "location", Message: fmt.Sprintf("unsupported location query %T", q)}
	}
}

func (r *Resolver) resolveCity(c City) (string, error) {
	if name, _ := splitCityName(c.Name); name == "" {
		return "", &errorutil.ConfigError{Field: "location", Message: "a city name or -zip is required"}
	}

	query, dropped := CanonicalCity(c)
	if dropped {
		errorutil.LogWarning(logger.Slog(), "location resolution",
			fmt.Errorf("state qualifier in %q ignored: states are only supported for country %s", c.Input(), StateCountry),
			errorutil.LocationContext(query, "")...)
	}
	logger.Debug("Resolved city %q to %q", c.Input(), query)
	return query, nil
}

func (r *Resolver) resolvePostalCode(ctx context.Context, p PostalCode) (string, error) {
	code := collapseSpaces(p.Code)
	country := strings.ToUpper(collapseSpaces(p.Country))
	if code == "" {
		return "", &errorutil.ConfigError{Field: "zip", Message: "postal code cannot be empty"}
	}
	if r.geocoder == nil {
		return "", &errorutil.LocationNotFound{Input: p.Input(), Cause: errors.New("no geocoder configured")}
	}

	place, err := r.geocoder.GeocodeZip(ctx, code, country)
	if err != nil {
		return "", &errorutil.LocationNotFound{Input: p.Input(), Cause: err}
	}
	if place == nil || strings.TrimSpace(place.Name) == "" {
		return "", &errorutil.LocationNotFound{Input: p.Input(), Cause: &errorutil.MalformedResponse{Path: "name"}}
	}

	// The geocoder's country wins; it is what the place name belongs to
	if place.Country != "" {
		country = place.Country
	}
	query, _ := CanonicalCity(City{Name: place.Name, Country: country})
	logger.Debug("Resolved postal code %q to %q (lat %.4f, lon %.4f)", p.Input(), query, place.Lat, place.Lon)
	return query, nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ",")
}

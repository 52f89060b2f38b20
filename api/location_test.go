package api

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"pdiweather/internal/errorutil"
	"pdiweather/internal/logger"
)

// stubGeocoder returns a canned answer and counts calls
type stubGeocoder struct {
	place *ZipLocation
	err   error
	calls int
	code  string
	cc    string
}

func (s *stubGeocoder) GeocodeZip(ctx context.Context, code, country string) (*ZipLocation, error) {
	s.calls++
	s.code, s.cc = code, country
	return s.place, s.err
}

// captureLogs routes the global logger into a buffer for one test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	restore := logger.SetOutputForTesting(&buf, logger.DebugLevel)
	t.Cleanup(restore)
	return &buf
}

func TestCanonicalCity(t *testing.T) {
	tests := []struct {
		name        string
		city        City
		want        string
		wantDropped bool
	}{
		{"name only", City{Name: "Paris"}, "Paris", false},
		{"us state", City{Name: "Paris", State: "TX", Country: "US"}, "Paris,TX,US", false},
		{"lowercase qualifiers", City{Name: "Paris", State: "tx", Country: "us"}, "Paris,TX,US", false},
		{"non-us state dropped", City{Name: "Paris", State: "TX", Country: "FR"}, "Paris,FR", true},
		{"state without country dropped", City{Name: "Springfield", State: "IL"}, "Springfield", true},
		{"country only", City{Name: "London", Country: "GB"}, "London,GB", false},
		{"multi-word name", City{Name: "  New   York ", Country: "US"}, "New York,US", false},
		{"comma state in name, non-us", City{Name: "Paris, TX", Country: "FR"}, "Paris,FR", true},
		{"comma state in name, us", City{Name: "Paris, tx", Country: "US"}, "Paris,TX,US", false},
		{"comma state and country in name", City{Name: "Paris,TX,FR"}, "Paris,FR", true},
		{"comma country repeated", City{Name: "Austin, TX, US", Country: "US"}, "Austin,TX,US", false},
		{"comma state beside explicit state", City{Name: "Paris, TX", State: "KY", Country: "US"}, "Paris,KY,US", true},
		{"trailing comma", City{Name: "Paris,", Country: "FR"}, "Paris,FR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := CanonicalCity(tt.city)
			if got != tt.want {
				t.Errorf("CanonicalCity(%+v) = %q, want %q", tt.city, got, tt.want)
			}
			if dropped != tt.wantDropped {
				t.Errorf("CanonicalCity(%+v) dropped = %v, want %v", tt.city, dropped, tt.wantDropped)
			}
		})
	}
}

func TestResolveCity(t *testing.T) {
	geo := &stubGeocoder{}
	r := NewResolver(geo)

	got, err := r.Resolve(context.Background(), City{Name: "Paris", State: "TX", Country: "US"})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != "Paris,TX,US" {
		t.Errorf("Resolve() = %q, want Paris,TX,US", got)
	}
	if geo.calls != 0 {
		t.Errorf("city resolution made %d geocoding calls, want 0", geo.calls)
	}
}

func TestResolveCityDropsStateWithWarning(t *testing.T) {
	logs := captureLogs(t)
	r := NewResolver(nil)

	got, err := r.Resolve(context.Background(), City{Name: "Paris", State: "TX", Country: "FR"})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != "Paris,FR" {
		t.Errorf("Resolve() = %q, want Paris,FR", got)
	}
	if !strings.Contains(logs.String(), "WRN") || !strings.Contains(logs.String(), "state") {
		t.Errorf("expected a state warning in logs, got: %s", logs.String())
	}
}

func TestResolveCityCommaStateWarns(t *testing.T) {
	logs := captureLogs(t)
	r := NewResolver(nil)

	got, err := r.Resolve(context.Background(), City{Name: "Paris, TX", Country: "FR"})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != "Paris,FR" {
		t.Errorf("Resolve() = %q, want Paris,FR", got)
	}
	if !strings.Contains(logs.String(), "WRN") {
		t.Errorf("expected a state warning in logs, got: %s", logs.String())
	}
}

func TestResolveBlankInput(t *testing.T) {
	geo := &stubGeocoder{}
	r := NewResolver(geo)

	for _, q := range []LocationQuery{City{Name: "   "}, City{Name: " , TX", Country: "US"}, PostalCode{Code: " ", Country: "US"}} {
		_, err := r.Resolve(context.Background(), q)
		var cfgErr *errorutil.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Resolve(%+v) error = %v, want ConfigError", q, err)
		}
	}
	if geo.calls != 0 {
		t.Errorf("blank input made %d geocoding calls, want 0", geo.calls)
	}
}

func TestResolvePostalCode(t *testing.T) {
	tests := []struct {
		name    string
		query   PostalCode
		place   *ZipLocation
		want    string
		wantZip string
		wantCC  string
	}{
		{
			name:    "geocoder country wins",
			query:   PostalCode{Code: "10001", Country: "us"},
			place:   &ZipLocation{Name: "New York", Country: "US"},
			want:    "New York,US",
			wantZip: "10001",
			wantCC:  "US",
		},
		{
			name:    "query country as fallback",
			query:   PostalCode{Code: "75001", Country: "FR"},
			place:   &ZipLocation{Name: "Paris"},
			want:    "Paris,FR",
			wantZip: "75001",
			wantCC:  "FR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := &stubGeocoder{place: tt.place}
			got, err := NewResolver(geo).Resolve(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
			if geo.code != tt.wantZip || geo.cc != tt.wantCC {
				t.Errorf("geocoder called with (%q, %q), want (%q, %q)", geo.code, geo.cc, tt.wantZip, tt.wantCC)
			}
		})
	}
}

func TestResolvePostalCodeNotFound(t *testing.T) {
	tests := []struct {
		name  string
		geo   Geocoder
		cause any
	}{
		{"upstream 404", &stubGeocoder{err: &errorutil.UpstreamError{Status: 404, Message: "not found"}}, &errorutil.UpstreamError{}},
		{"transport", &stubGeocoder{err: errorutil.NewTransportError("zip geocoding", "http://x", context.DeadlineExceeded)}, &errorutil.TransportError{}},
		{"missing name", &stubGeocoder{err: &errorutil.MalformedResponse{Path: "name"}}, &errorutil.MalformedResponse{}},
		{"blank name", &stubGeocoder{place: &ZipLocation{Name: " "}}, &errorutil.MalformedResponse{}},
		{"nil place", &stubGeocoder{}, &errorutil.MalformedResponse{}},
		{"no geocoder", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.geo).Resolve(context.Background(), PostalCode{Code: "00000", Country: "US"})

			var notFound *errorutil.LocationNotFound
			if !errors.As(err, &notFound) {
				t.Fatalf("Resolve() error = %v, want LocationNotFound", err)
			}
			if notFound.Input != "00000,US" {
				t.Errorf("LocationNotFound.Input = %q, want 00000,US", notFound.Input)
			}
			if errorutil.ExitCode(err) != errorutil.ExitLocationNotFound {
				t.Errorf("ExitCode() = %d, want %d", errorutil.ExitCode(err), errorutil.ExitLocationNotFound)
			}

			switch tt.cause.(type) {
			case *errorutil.UpstreamError:
				var target *errorutil.UpstreamError
				if !errors.As(err, &target) {
					t.Errorf("cause %v is not an UpstreamError", notFound.Cause)
				}
			case *errorutil.TransportError:
				var target *errorutil.TransportError
				if !errors.As(err, &target) {
					t.Errorf("cause %v is not a TransportError", notFound.Cause)
				}
			case *errorutil.MalformedResponse:
				var target *errorutil.MalformedResponse
				if !errors.As(err, &target) {
					t.Errorf("cause %v is not a MalformedResponse", notFound.Cause)
				}
			}
		})
	}
}

func TestLocationQueryInput(t *testing.T) {
	if got := (City{Name: "Paris", State: "TX", Country: "FR"}).Input(); got != "Paris,TX,FR" {
		t.Errorf("City.Input() = %q, want Paris,TX,FR", got)
	}
	if got := (PostalCode{Code: "10001"}).Input(); got != "10001" {
		t.Errorf("PostalCode.Input() = %q, want 10001", got)
	}
}

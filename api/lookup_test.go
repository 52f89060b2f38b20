package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pdiweather/internal/errorutil"
	"pdiweather/internal/logger"
)

// countingFetcher fails the test if it is ever called
type countingFetcher struct {
	calls int
}

func (f *countingFetcher) GetCurrentWeather(ctx context.Context, city string, units UnitPreference) (*Document, error) {
	f.calls++
	return nil, errors.New("unexpected weather call")
}

func TestLookupCityImperial(t *testing.T) {
	client, provider := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sampleWeatherJSON)
	})

	res, err := Lookup(context.Background(), NewResolver(client), client,
		City{Name: "Paris", State: "TX", Country: "US"}, Imperial)
	require.NoError(t, err)

	require.Equal(t, []string{"/data/2.5/weather"}, provider.paths())
	q := provider.last().Query()
	require.Equal(t, "Paris,TX,US", q.Get("q"))
	require.Equal(t, "imperial", q.Get("units"))

	require.Equal(t, "Paris,TX,US", res.Query)
	require.Equal(t, 71.6, res.Record.Temp())
	require.Equal(t, "Paris, US", res.DisplayName())
}

func TestLookupCityDropsForeignState(t *testing.T) {
	logs := captureLogs(t)
	client, provider := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sampleWeatherJSON)
	})

	_, err := Lookup(context.Background(), NewResolver(client), client,
		City{Name: "Paris", State: "TX", Country: "FR"}, Metric)
	require.NoError(t, err)

	require.Equal(t, "Paris,FR", provider.last().Query().Get("q"))
	require.Contains(t, logs.String(), "WRN")
}

func TestLookupPostalCode(t *testing.T) {
	logs := captureLogs(t)
	client, provider := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geo/1.0/zip":
			writeJSON(w, http.StatusOK, `{"zip":"10001","name":"New York","lat":40.7484,"lon":-73.9967,"country":"US"}`)
		default:
			writeJSON(w, http.StatusOK, sampleWeatherJSON)
		}
	})

	res, err := Lookup(context.Background(), NewResolver(client), client,
		PostalCode{Code: "10001", Country: "US"}, Metric)
	require.NoError(t, err)

	// Geocoding precedes and feeds the weather call
	require.Equal(t, []string{"/geo/1.0/zip", "/data/2.5/weather"}, provider.paths())
	require.Equal(t, "New York,US", provider.last().Query().Get("q"))
	require.Equal(t, "New York,US", res.Query)
	require.Contains(t, logs.String(), "lat 40.7484, lon -73.9967")
}

func TestLookupPostalCodeNotFoundSkipsWeather(t *testing.T) {
	client, provider := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/geo/1.0/zip" {
			writeJSON(w, http.StatusNotFound, `{"cod":"404","message":"not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, sampleWeatherJSON)
	})

	_, err := Lookup(context.Background(), NewResolver(client), client,
		PostalCode{Code: "10001", Country: "US"}, Metric)

	var notFound *errorutil.LocationNotFound
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "10001,US", notFound.Input)
	require.Equal(t, errorutil.ExitLocationNotFound, errorutil.ExitCode(err))
	require.Equal(t, []string{"/geo/1.0/zip"}, provider.paths())
}

func TestLookupResolverFailureGatesFetcher(t *testing.T) {
	fetcher := &countingFetcher{}
	geo := &stubGeocoder{err: &errorutil.UpstreamError{Status: http.StatusNotFound}}

	_, err := Lookup(context.Background(), NewResolver(geo), fetcher, PostalCode{Code: "99999"}, Metric)
	require.Error(t, err)
	require.Zero(t, fetcher.calls)
}

func TestLookupMalformedResponse(t *testing.T) {
	body := strings.Replace(sampleWeatherJSON, `"temp": 71.6, `, ``, 1)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body)
	})

	_, err := Lookup(context.Background(), NewResolver(client), client, City{Name: "Paris"}, Metric)

	var malformed *errorutil.MalformedResponse
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "main.temp", malformed.Path)
	require.Equal(t, errorutil.ExitMalformedResponse, errorutil.ExitCode(err))
}

// TestLookupFailuresAddNoLogLinesAtWarn checks that a failed lookup leaves
// the reporting to the caller's single diagnostic line
func TestLookupFailuresAddNoLogLinesAtWarn(t *testing.T) {
	var logs bytes.Buffer
	t.Cleanup(logger.SetOutputForTesting(&logs, logger.WarnLevel))

	malformed := strings.Replace(sampleWeatherJSON, `"temp": 71.6, `, ``, 1)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, malformed)
	})
	_, err := Lookup(context.Background(), NewResolver(client), client, City{Name: "Paris"}, Metric)
	require.Equal(t, errorutil.ExitMalformedResponse, errorutil.ExitCode(err))

	server := httptest.NewServer(http.NotFoundHandler())
	closed := server.URL
	server.Close()
	unreachable := NewWeatherClient(testAPIKey)
	unreachable.SetBaseURLs(closed, closed)
	unreachable.SetRateLimit(0)
	_, err = Lookup(context.Background(), NewResolver(unreachable), unreachable, City{Name: "Paris"}, Metric)
	require.Equal(t, errorutil.ExitTransport, errorutil.ExitCode(err))

	require.Empty(t, logs.String())
}

func TestResultDisplayName(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"place and country", Result{Query: "q", Record: NewWeatherRecord(RecordFields{Place: "Paris", Country: "FR"})}, "Paris, FR"},
		{"place only", Result{Query: "q", Record: NewWeatherRecord(RecordFields{Place: "Paris"})}, "Paris"},
		{"falls back to query", Result{Query: "Paris,FR"}, "Paris,FR"},
	}

	for _, tt := range tests {
		if got := tt.res.DisplayName(); got != tt.want {
			t.Errorf("%s: DisplayName() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

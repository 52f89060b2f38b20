package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"pdiweather/internal/errorutil"
	"pdiweather/internal/logger"
)

const (
	// OpenWeather API base URLs and endpoints
	openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	geocodingBaseURL   = "https://api.openweathermap.org/geo/1.0"
	weatherEndpoint    = "/weather"
	zipEndpoint        = "/zip"

	// Default timeout for API requests
	defaultTimeout = 10 * time.Second

	// Conservative default, the free tier allows 60 per minute
	defaultRequestsPerMinute = 50

	// Upper bound on response text carried in an UpstreamError
	maxErrorBody = 512

	// User-Agent for API requests
	userAgent = "pdi-weather/1.0"
)

// WeatherFetcher fetches the raw current-conditions document for a canonical
// city string. WeatherClient is the only implementation; wrappers that add
// retries or caching can satisfy it too.
type WeatherFetcher interface {
	GetCurrentWeather(ctx context.Context, city string, units UnitPreference) (*Document, error)
}

// WeatherClient handles OpenWeather API interactions. It makes exactly one
// attempt per call.
type WeatherClient struct {
	client     *resty.Client
	apiKey     string
	baseURL    string
	geoBaseURL string
	limiter    *rate.Limiter
}

var (
	_ WeatherFetcher = (*WeatherClient)(nil)
	_ Geocoder       = (*WeatherClient)(nil)
)

// NewWeatherClient creates a new OpenWeather API client with authentication
func NewWeatherClient(apiKey string) *WeatherClient {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(defaultTimeout).
		SetRetryCount(0)

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		headers := make(map[string]string)
		for key, values := range c.Header {
			if len(values) > 0 {
				headers[key] = values[0]
			}
		}
		logger.LogAPIRequest(req.Method, errorutil.RedactURL(req.URL), headers)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.LogAPIResponse(resp.Request.Method, errorutil.RedactURL(resp.Request.URL), resp.StatusCode(), resp.Time(), len(resp.Body()))
		return nil
	})

	w := &WeatherClient{
		client:     client,
		apiKey:     apiKey,
		baseURL:    openWeatherBaseURL,
		geoBaseURL: geocodingBaseURL,
	}
	w.SetRateLimit(defaultRequestsPerMinute)
	return w
}

// SetBaseURLs points the client at different weather and geocoding hosts.
// Empty values keep the current setting.
func (w *WeatherClient) SetBaseURLs(weatherBase, geoBase string) {
	if weatherBase != "" {
		w.baseURL = weatherBase
	}
	if geoBase != "" {
		w.geoBaseURL = geoBase
	}
}

// SetTimeout configures the HTTP client timeout
func (w *WeatherClient) SetTimeout(timeout time.Duration) {
	w.client.SetTimeout(timeout)
}

// SetRateLimit caps outgoing requests per minute. Zero or less disables the cap.
func (w *WeatherClient) SetRateLimit(perMinute int) {
	if perMinute <= 0 {
		w.limiter = nil
		return
	}
	w.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// GetCurrentWeather fetches current conditions for a canonical city string.
// The units parameter is omitted for the provider's standard (Kelvin) scale.
func (w *WeatherClient) GetCurrentWeather(ctx context.Context, city string, units UnitPreference) (*Document, error) {
	complete := logger.LogOperationStart("weather_api_current", map[string]any{
		"endpoint": "weather",
		"location": city,
		"units":    units.String(),
	})

	params := map[string]string{
		"q":     city,
		"appid": w.apiKey,
	}
	if token := units.Token(); token != "" {
		params["units"] = token
	}

	doc, err := w.get(ctx, "weather request", w.baseURL+weatherEndpoint, params)
	complete(err)
	return doc, err
}

// get performs one GET and classifies the outcome: transport failures become
// TransportError, non-2xx statuses UpstreamError, and unparseable 2xx bodies
// MalformedResponse.
func (w *WeatherClient) get(ctx context.Context, operation, endpoint string, params map[string]string) (*Document, error) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, errorutil.LogTransportError(logger.Slog(),
				errorutil.NewTransportError(operation, endpoint, fmt.Errorf("rate limiter: %w", err)))
		}
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return nil, errorutil.LogTransportError(logger.Slog(),
			errorutil.NewTransportError(operation, endpoint, err))
	}

	if !resp.IsSuccess() {
		return nil, parseOpenWeatherError(resp)
	}

	doc, err := ParseDocument(resp.Body())
	if err != nil {
		return nil, err
	}
	logger.Debug("%s returned a %d byte document", operation, doc.Len())
	return doc, nil
}

// parseOpenWeatherError creates an UpstreamError from a non-2xx response,
// lifting the provider's message when the body carries one
func parseOpenWeatherError(resp *resty.Response) error {
	body := resp.Body()
	apiErr := &errorutil.UpstreamError{
		Status: resp.StatusCode(),
		Body:   errorutil.TruncateBody(body, maxErrorBody),
	}

	// "cod" arrives as a string on some endpoints, so only the message is read
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String {
			apiErr.Message = msg.Str
		}
	}

	logger.Debug("OpenWeather API returned status %d: %s", apiErr.Status, apiErr.Body)
	return apiErr
}

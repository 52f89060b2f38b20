package api

import (
	"fmt"
	"math"

	"pdiweather/internal/errorutil"
	"pdiweather/internal/logger"
)

// Field paths read from the current weather response
const (
	pathDescription = "weather[0].description"
	pathTempMax     = "main.temp_max"
	pathTempMin     = "main.temp_min"
	pathTemp        = "main.temp"
	pathFeelsLike   = "main.feels_like"
	pathHumidity    = "main.humidity"
	pathVisibility  = "visibility"
	pathWindSpeed   = "wind.speed"
	pathWindDeg     = "wind.deg"
	pathSunrise     = "sys.sunrise"
	pathSunset      = "sys.sunset"
	pathTimezone    = "timezone"
	pathName        = "name"
	pathCountry     = "sys.country"
)

// RecordFields holds the values a WeatherRecord is built from
type RecordFields struct {
	Description string
	TempHigh    float64
	TempLow     float64
	Temp        float64
	FeelsLike   float64
	Humidity    int   // Percent, 0-100
	Visibility  int   // Meters
	WindSpeed   float64
	WindBearing int   // Degrees, any integer; normalized on construction
	Sunrise     int64 // Unix seconds
	Sunset      int64 // Unix seconds
	Timezone    *int  // Seconds east of UTC, nil when unknown
	Place       string
	Country     string
}

// WeatherRecord is the normalized, immutable result of one weather call.
// Temperatures and wind speed are in the unit system the call was made with.
type WeatherRecord struct {
	description string
	tempHigh    float64
	tempLow     float64
	temp        float64
	feelsLike   float64
	humidity    int
	visibility  int
	windSpeed   float64
	windBearing int
	sunrise     int64
	sunset      int64
	timezone    int
	hasTimezone bool
	place       string
	country     string
}

// NewWeatherRecord builds a record, normalizing the wind bearing into [0,360)
func NewWeatherRecord(f RecordFields) WeatherRecord {
	rec := WeatherRecord{
		description: f.Description,
		tempHigh:    f.TempHigh,
		tempLow:     f.TempLow,
		temp:        f.Temp,
		feelsLike:   f.FeelsLike,
		humidity:    f.Humidity,
		visibility:  f.Visibility,
		windSpeed:   f.WindSpeed,
		windBearing: NormalizeBearing(f.WindBearing),
		sunrise:     f.Sunrise,
		sunset:      f.Sunset,
		place:       f.Place,
		country:     f.Country,
	}
	if f.Timezone != nil {
		rec.timezone = *f.Timezone
		rec.hasTimezone = true
	}
	return rec
}

func (r WeatherRecord) Description() string { return r.description }
func (r WeatherRecord) TempHigh() float64   { return r.tempHigh }
func (r WeatherRecord) TempLow() float64    { return r.tempLow }
func (r WeatherRecord) Temp() float64       { return r.temp }
func (r WeatherRecord) FeelsLike() float64  { return r.feelsLike }
func (r WeatherRecord) Humidity() int       { return r.humidity }
func (r WeatherRecord) Visibility() int     { return r.visibility }
func (r WeatherRecord) WindSpeed() float64  { return r.windSpeed }
func (r WeatherRecord) WindBearing() int    { return r.windBearing }
func (r WeatherRecord) Sunrise() int64      { return r.sunrise }
func (r WeatherRecord) Sunset() int64       { return r.sunset }
func (r WeatherRecord) Place() string       { return r.place }
func (r WeatherRecord) Country() string     { return r.country }

// Timezone returns the location's offset from UTC in seconds, if the
// provider reported one
func (r WeatherRecord) Timezone() (int, bool) {
	return r.timezone, r.hasTimezone
}

// WindDirection returns the compass point of the wind bearing
func (r WeatherRecord) WindDirection() string {
	return Compass(r.windBearing)
}

// Extract normalizes a current weather response. Any required path that is
// missing or has the wrong shape yields a *errorutil.MalformedResponse
// naming that path. Extract has no side effects besides debug logging, so
// the same document always yields an equal record.
func Extract(doc *Document) (WeatherRecord, error) {
	if doc == nil {
		return WeatherRecord{}, &errorutil.MalformedResponse{Path: "$", Reason: "no response body"}
	}

	e := extractor{doc: doc}
	f := RecordFields{
		Description: e.str(pathDescription),
		TempHigh:    e.num(pathTempMax),
		TempLow:     e.num(pathTempMin),
		Temp:        e.num(pathTemp),
		FeelsLike:   e.num(pathFeelsLike),
		Humidity:    e.bounded(pathHumidity, 0, 100),
		Visibility:  e.bounded(pathVisibility, 0, math.MaxInt32),
		WindSpeed:   e.num(pathWindSpeed),
		WindBearing: e.bearing(pathWindDeg),
		Sunrise:     e.integer(pathSunrise),
		Sunset:      e.integer(pathSunset),
	}
	if e.err != nil {
		return WeatherRecord{}, e.err
	}

	if doc.Has(pathTimezone) {
		if tz, err := doc.Int(pathTimezone); err == nil {
			offset := int(tz)
			f.Timezone = &offset
		} else {
			logger.Debug("Ignoring optional field: %v", err)
		}
	}
	f.Place, _ = doc.String(pathName)
	f.Country, _ = doc.String(pathCountry)

	return NewWeatherRecord(f), nil
}

// extractor reads fields in order and keeps the first error
type extractor struct {
	doc *Document
	err error
}

func (e *extractor) str(path string) string {
	if e.err != nil {
		return ""
	}
	v, err := e.doc.String(path)
	e.err = err
	return v
}

func (e *extractor) num(path string) float64 {
	if e.err != nil {
		return 0
	}
	v, err := e.doc.Float(path)
	e.err = err
	return v
}

func (e *extractor) integer(path string) int64 {
	if e.err != nil {
		return 0
	}
	v, err := e.doc.Int(path)
	e.err = err
	return v
}

func (e *extractor) bounded(path string, min, max int64) int {
	v := e.integer(path)
	if e.err == nil && (v < min || v > max) {
		e.err = &errorutil.MalformedResponse{Path: path, Reason: fmt.Sprintf("value %d out of range [%d, %d]", v, min, max)}
	}
	return int(v)
}

// bearing accepts fractional degrees and rounds them; normalization into
// [0,360) happens in NewWeatherRecord
func (e *extractor) bearing(path string) int {
	v := e.num(path)
	if e.err != nil {
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		e.err = &errorutil.MalformedResponse{Path: path, Reason: "not a finite number"}
		return 0
	}
	return int(math.Round(math.Mod(v, 360)))
}

package api

import (
	"fmt"
	"math"
	"regexp"

	"github.com/tidwall/gjson"
	"pdiweather/internal/errorutil"
)

// Document is a raw provider response. It is only read through typed,
// path-checked accessors; callers never see the underlying JSON tree.
type Document struct {
	raw []byte
}

// ParseDocument wraps a response body, rejecting anything that is not a
// JSON object.
func ParseDocument(body []byte) (*Document, error) {
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, &errorutil.MalformedResponse{Path: "$", Reason: "response body is not a JSON object"}
	}
	raw := make([]byte, len(body))
	copy(raw, body)
	return &Document{raw: raw}, nil
}

// Len returns the body size in bytes
func (d *Document) Len() int {
	return len(d.raw)
}

// Largest magnitude a float64 holds without losing integer precision
const maxExactInt = 1 << 53

var indexSegment = regexp.MustCompile(`\[(\d+)\]`)

// toGJSONPath converts "weather[0].description" to "weather.0.description"
func toGJSONPath(path string) string {
	return indexSegment.ReplaceAllString(path, ".$1")
}

func (d *Document) get(path string) gjson.Result {
	return gjson.GetBytes(d.raw, toGJSONPath(path))
}

// Has reports whether path is present and not null
func (d *Document) Has(path string) bool {
	r := d.get(path)
	return r.Exists() && r.Type != gjson.Null
}

// String returns the string at path
func (d *Document) String(path string) (string, error) {
	r := d.get(path)
	if !r.Exists() || r.Type == gjson.Null {
		return "", &errorutil.MalformedResponse{Path: path}
	}
	if r.Type != gjson.String {
		return "", wrongShape(path, "a string", r)
	}
	return r.Str, nil
}

// Float returns the number at path
func (d *Document) Float(path string) (float64, error) {
	r := d.get(path)
	if !r.Exists() || r.Type == gjson.Null {
		return 0, &errorutil.MalformedResponse{Path: path}
	}
	if r.Type != gjson.Number {
		return 0, wrongShape(path, "a number", r)
	}
	return r.Num, nil
}

// Int returns the whole number at path
func (d *Document) Int(path string) (int64, error) {
	f, err := d.Float(path)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, &errorutil.MalformedResponse{Path: path, Reason: fmt.Sprintf("expected an integer, got %v", f)}
	}
	return int64(f), nil
}

func wrongShape(path, want string, r gjson.Result) error {
	return &errorutil.MalformedResponse{
		Path:   path,
		Reason: fmt.Sprintf("expected %s, got %s", want, r.Type),
	}
}

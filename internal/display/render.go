package display

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/sprig/v3"

	"pdiweather/api"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const reportTemplate = "report.tmpl"

// Report is the view model for one rendered record
type Report struct {
	Name          string
	Description   string
	Temp          float64
	FeelsLike     float64
	TempHigh      float64
	TempLow       float64
	TempUnit      string
	Humidity      int
	Visibility    int
	WindSpeed     float64
	WindDirection string
	SpeedUnit     string
	Sunrise       string
	Sunset        string
	Zone          string // Set only when times are not in the process timezone
}

// Renderer writes weather records as plain text
type Renderer struct {
	tmpl     *template.Template
	loc      *time.Location
	cityTime bool
}

// NewRenderer parses the embedded report template. Times are rendered in loc
// (UTC when nil); with cityTime set, in the record's own offset when it
// carries one.
func NewRenderer(loc *time.Location, cityTime bool) (*Renderer, error) {
	return newRendererFromFS(templatesFS, loc, cityTime)
}

// newRendererFromFS is NewRenderer over an arbitrary template filesystem
func newRendererFromFS(fsys fs.FS, loc *time.Location, cityTime bool) (*Renderer, error) {
	funcs := sprig.TxtFuncMap()
	funcs["runecount"] = utf8.RuneCountInString

	tmpl, err := template.New(reportTemplate).
		Funcs(funcs).
		ParseFS(fsys, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{tmpl: tmpl, loc: loc, cityTime: cityTime}, nil
}

// Render writes the report for rec to w. Output depends only on its
// arguments and the renderer's timezone settings.
func (r *Renderer) Render(w io.Writer, name string, rec api.WeatherRecord, units api.UnitPreference) error {
	if r == nil || r.tmpl == nil {
		return errors.New("report template not loaded: call display.NewRenderer first")
	}

	var sb strings.Builder
	if err := r.tmpl.ExecuteTemplate(&sb, reportTemplate, r.report(name, rec, units)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Renderer) report(name string, rec api.WeatherRecord, units api.UnitPreference) Report {
	loc := r.loc
	zone := ""
	if r.cityTime {
		if cityLoc := api.RecordLocation(rec, nil); cityLoc != nil {
			loc = cityLoc
			zone = "local time of " + name + " (" + cityLoc.String() + ")"
		}
	}

	return Report{
		Name:          name,
		Description:   rec.Description(),
		Temp:          rec.Temp(),
		FeelsLike:     rec.FeelsLike(),
		TempHigh:      rec.TempHigh(),
		TempLow:       rec.TempLow(),
		TempUnit:      units.TemperatureSuffix(),
		Humidity:      rec.Humidity(),
		Visibility:    rec.Visibility(),
		WindSpeed:     rec.WindSpeed(),
		WindDirection: rec.WindDirection(),
		SpeedUnit:     units.SpeedSuffix(),
		Sunrise:       api.LocalTimeOfDay(rec.Sunrise(), loc),
		Sunset:        api.LocalTimeOfDay(rec.Sunset(), loc),
		Zone:          zone,
	}
}

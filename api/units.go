package api

import (
	"fmt"
	"strings"

	"pdiweather/internal/errorutil"
)

// UnitPreference selects the unit system the provider applies to
// temperatures and wind speed. It is passed explicitly through every call.
type UnitPreference int

const (
	// Standard is the provider default: Kelvin and meters per second
	Standard UnitPreference = iota
	// Imperial is Fahrenheit and miles per hour
	Imperial
	// Metric is Celsius and meters per second
	Metric
)

// UnitFlags mirrors the mutually exclusive unit flags of the CLI
type UnitFlags struct {
	Imperial bool
	Metric   bool
	Standard bool
}

// ResolveUnits returns the single selected unit system. Zero or several
// selected flags is a ConfigError; the resolver never picks one on its own.
func ResolveUnits(flags UnitFlags) (UnitPreference, error) {
	var selected []UnitPreference
	if flags.Imperial {
		selected = append(selected, Imperial)
	}
	if flags.Metric {
		selected = append(selected, Metric)
	}
	if flags.Standard {
		selected = append(selected, Standard)
	}

	switch len(selected) {
	case 1:
		return selected[0], nil
	case 0:
		return Standard, &errorutil.ConfigError{
			Field:   "units",
			Message: "one of -imperial, -metric or -standard is required",
		}
	default:
		names := make([]string, len(selected))
		for i, u := range selected {
			names[i] = "-" + u.String()
		}
		return Standard, &errorutil.ConfigError{
			Field:   "units",
			Message: fmt.Sprintf("unit flags are mutually exclusive, got %s", strings.Join(names, " and ")),
		}
	}
}

// Token returns the value of the provider's units parameter. Standard has
// no token; the parameter is omitted.
func (u UnitPreference) Token() string {
	switch u {
	case Imperial:
		return "imperial"
	case Metric:
		return "metric"
	default:
		return ""
	}
}

func (u UnitPreference) String() string {
	switch u {
	case Imperial:
		return "imperial"
	case Metric:
		return "metric"
	default:
		return "standard"
	}
}

// TemperatureSuffix returns the display suffix for temperatures
func (u UnitPreference) TemperatureSuffix() string {
	switch u {
	case Imperial:
		return "°F"
	case Metric:
		return "°C"
	default:
		return "K"
	}
}

// SpeedSuffix returns the display suffix for wind speed
func (u UnitPreference) SpeedSuffix() string {
	if u == Imperial {
		return "mph"
	}
	return "m/s"
}

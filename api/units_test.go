package api

import (
	"errors"
	"testing"

	"pdiweather/internal/errorutil"
)

func TestResolveUnits(t *testing.T) {
	tests := []struct {
		name      string
		flags     UnitFlags
		want      UnitPreference
		wantToken string
		expectErr bool
	}{
		{"imperial", UnitFlags{Imperial: true}, Imperial, "imperial", false},
		{"metric", UnitFlags{Metric: true}, Metric, "metric", false},
		{"standard", UnitFlags{Standard: true}, Standard, "", false},
		{"none set", UnitFlags{}, Standard, "", true},
		{"two set", UnitFlags{Imperial: true, Metric: true}, Standard, "", true},
		{"all set", UnitFlags{Imperial: true, Metric: true, Standard: true}, Standard, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveUnits(tt.flags)
			if tt.expectErr {
				var cfgErr *errorutil.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("ResolveUnits(%+v) error = %v, want ConfigError", tt.flags, err)
				}
				if cfgErr.Field != "units" {
					t.Errorf("ConfigError.Field = %q, want units", cfgErr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveUnits(%+v) unexpected error: %v", tt.flags, err)
			}
			if got != tt.want {
				t.Errorf("ResolveUnits(%+v) = %v, want %v", tt.flags, got, tt.want)
			}
			if got.Token() != tt.wantToken {
				t.Errorf("Token() = %q, want %q", got.Token(), tt.wantToken)
			}
		})
	}
}

func TestUnitSuffixes(t *testing.T) {
	tests := []struct {
		units UnitPreference
		temp  string
		speed string
	}{
		{Imperial, "°F", "mph"},
		{Metric, "°C", "m/s"},
		{Standard, "K", "m/s"},
	}

	for _, tt := range tests {
		if got := tt.units.TemperatureSuffix(); got != tt.temp {
			t.Errorf("%v.TemperatureSuffix() = %q, want %q", tt.units, got, tt.temp)
		}
		if got := tt.units.SpeedSuffix(); got != tt.speed {
			t.Errorf("%v.SpeedSuffix() = %q, want %q", tt.units, got, tt.speed)
		}
	}
}

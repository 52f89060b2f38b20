package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pdiweather/api"
	"pdiweather/config"
	"pdiweather/internal/display"
	"pdiweather/internal/errorutil"
	"pdiweather/internal/logger"
)

const usageHeader = `Usage: pdi-weather [flags] <city name...>
       pdi-weather [flags] -zip <postal code>

Prints current weather conditions from OpenWeather. Exactly one of
-imperial, -metric or -standard is required. Without a city or -zip,
an interactive terminal is asked for a city name.

Flags:
`

// options holds the parsed command line
type options struct {
	configPath     string
	configExplicit bool
	logLevel       string
	logFile        string
	generateConfig bool
	cityTime       bool

	zip     string
	state   string
	country string
	units   api.UnitFlags
	city    []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// stdinIsTerminal reports whether r is an interactive terminal
var stdinIsTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// run executes one invocation and returns the process exit code. The report
// goes to stdout; the city prompt, diagnostics and logs go to stderr.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return errorutil.ExitOK
	}
	if err != nil {
		return fail(stderr, err)
	}

	// Handle config generation
	if opts.generateConfig {
		if err := config.GenerateSampleConfig(opts.configPath); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stderr, "Sample configuration file created at: %s\n", opts.configPath)
		fmt.Fprintln(stderr, "Please edit the file to add your OpenWeather API key")
		return errorutil.ExitOK
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(stderr, err)
	}

	if err := logger.Initialize(cfg.LoggerConfig()); err != nil {
		return fail(stderr, &errorutil.ConfigError{Field: "logging", Message: "failed to initialize logger", Cause: err})
	}
	defer logger.Close()
	logger.Get().LogAttrs(ctx, slog.LevelDebug, "Configuration loaded", errorutil.ConfigContext(cfg.Source)...)
	if name := logger.Get().FileName(); name != "" {
		logger.Debug("Writing logs to %s", name)
	}

	units, err := api.ResolveUnits(opts.units)
	if err != nil {
		return fail(stderr, err)
	}

	if opts.zip == "" && len(opts.city) == 0 && stdinIsTerminal(stdin) {
		name, err := promptCity(stdin, stderr)
		if err != nil {
			return fail(stderr, err)
		}
		opts.city = []string{name}
	}

	query, err := buildQuery(opts, cfg.Weather.Country)
	if err != nil {
		return fail(stderr, err)
	}

	client := api.NewWeatherClient(cfg.APIs.OpenWeather)
	client.SetBaseURLs(cfg.Weather.BaseURL, cfg.Weather.GeoBaseURL)
	client.SetTimeout(cfg.Timeout())
	client.SetRateLimit(cfg.HTTP.RequestsPerMinute)

	// One deadline covers geocoding and the weather call together
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	res, err := api.Lookup(ctx, api.NewResolver(client), client, query, units)
	if err != nil {
		return fail(stderr, err)
	}

	renderer, err := display.NewRenderer(time.Local, opts.cityTime)
	if err != nil {
		return fail(stderr, err)
	}
	if err := renderer.Render(stdout, res.DisplayName(), res.Record, units); err != nil {
		return fail(stderr, err)
	}

	logger.Info("Weather report rendered for %s", res.Query)
	return errorutil.ExitOK
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("pdi-weather", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageHeader)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", getDefaultConfigPath(), "Path to TOML configuration file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Logging level (debug, info, warn, error); overrides the config file")
	fs.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	fs.BoolVar(&opts.generateConfig, "generate-config", false, "Generate a sample configuration file and exit")
	fs.BoolVar(&opts.cityTime, "city-time", false, "Show sunrise and sunset in the city's timezone instead of the local one")

	fs.StringVar(&opts.zip, "zip", "", "Postal code to look up instead of a city name")
	fs.StringVar(&opts.state, "state", "", "State code, only honored for US cities")
	fs.StringVar(&opts.country, "country", "", "Two-letter country code (default from config)")
	fs.BoolVar(&opts.units.Imperial, "imperial", false, "Fahrenheit and miles per hour")
	fs.BoolVar(&opts.units.Metric, "metric", false, "Celsius and meters per second")
	fs.BoolVar(&opts.units.Standard, "standard", false, "Kelvin and meters per second")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &errorutil.ConfigError{Field: "flags", Message: err.Error()}
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configExplicit = true
		}
	})
	opts.city = fs.Args()
	return opts, nil
}

// loadConfig reads the config file and applies command line overrides. An
// explicitly requested file must exist.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath, opts.configExplicit)
	if err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(opts.logLevel))
	}
	if opts.logFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.ConsoleOutput = false
		cfg.Logging.File = opts.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildQuery turns the positional arguments or -zip into a location query
func buildQuery(opts *options, defaultCountry string) (api.LocationQuery, error) {
	country := strings.ToUpper(strings.TrimSpace(opts.country))
	if country == "" {
		country = defaultCountry
	} else if vErr := errorutil.ValidateCountryCode("country", country); vErr != nil {
		return nil, &errorutil.ConfigError{Field: vErr.Field, Message: vErr.Message}
	}

	city := strings.Join(opts.city, " ")
	switch {
	case opts.zip != "" && strings.TrimSpace(city) != "":
		return nil, &errorutil.ConfigError{Field: "location", Message: "give either a city name or -zip, not both"}
	case opts.zip != "":
		if opts.state != "" {
			logger.Warn("Ignoring -state %q for postal code lookup", opts.state)
		}
		return api.PostalCode{Code: opts.zip, Country: country}, nil
	default:
		return api.City{Name: city, State: opts.state, Country: country}, nil
	}
}

// promptCity asks for a city name and title-cases the answer. An empty
// answer is left for the resolver to reject.
func promptCity(stdin io.Reader, stderr io.Writer) (string, error) {
	fmt.Fprint(stderr, "Enter a city: ")
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", &errorutil.ConfigError{Field: "location", Message: "failed to read city name", Cause: err}
	}
	return titleCase(line), nil
}

// titleCase upper-cases the first letter of each word and lower-cases the rest
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}

// fail prints the one-line diagnostic and returns the exit code for err
func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "pdi-weather: %s\n", errorutil.Diagnostic(err))
	return errorutil.ExitCode(err)
}

// getDefaultConfigPath returns a cross-platform default config path
func getDefaultConfigPath() string {
	return filepath.Clean(config.DefaultConfigFile)
}

// Package config loads process configuration from the environment, an optional .env
// file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when no text-generation credential is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// Keys, as environment variable names. Config files use the same names in any case.
const (
	KeyGeminiAPIKey        = "GEMINI_API_KEY"
	KeyGeminiModel         = "GEMINI_MODEL"
	KeyNominatimBaseURL    = "NOMINATIM_BASE_URL"
	KeyNominatimUserAgent  = "NOMINATIM_USER_AGENT"
	KeyNominatimRPS        = "NOMINATIM_REQUESTS_PER_SECOND"
	KeyParseCacheTTL       = "PARSE_CACHE_TTL"
	KeyGeocodeCacheTTL     = "GEOCODE_CACHE_TTL"
	KeyHotelCacheTTL       = "HOTEL_CACHE_TTL"
	KeyLodgingPerNight     = "LODGING_PER_NIGHT"
	KeyFoodPerDay          = "FOOD_PER_DAY"
	KeyCurrency            = "CURRENCY"
	KeyProviderTimeout     = "PROVIDER_TIMEOUT"
	KeyProviderMaxRetries  = "PROVIDER_MAX_RETRIES"
	KeyAppPort             = "APP_PORT"
	KeyAppEnv              = "APP_ENV"
	KeyLogLevel            = "LOG_LEVEL"
	KeyOTelEnabled         = "OTEL_ENABLED"
	KeyOTelEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	KeyCORSAllowedOrigins  = "CORS_ALLOWED_ORIGINS"
	KeyRateLimitPerMinute  = "RATE_LIMIT_PER_MINUTE"
	KeyPlanLimitPerMinute  = "PLAN_RATE_LIMIT_PER_MINUTE"
	KeyShutdownGracePeriod = "SHUTDOWN_GRACE_PERIOD"
)

var defaults = map[string]any{
	KeyGeminiModel:         "gemini-1.5-flash",
	KeyNominatimBaseURL:    "https://nominatim.openstreetmap.org",
	KeyNominatimUserAgent:  "travel_agent_ai",
	KeyNominatimRPS:        1.0,
	KeyParseCacheTTL:       "10m",
	KeyGeocodeCacheTTL:     "24h",
	KeyHotelCacheTTL:       "1h",
	KeyLodgingPerNight:     3000.0,
	KeyFoodPerDay:          1000.0,
	KeyCurrency:            "Rs.",
	KeyProviderTimeout:     "10s",
	KeyProviderMaxRetries:  3,
	KeyAppPort:             "8080",
	KeyAppEnv:              "development",
	KeyLogLevel:            "info",
	KeyOTelEnabled:         false,
	KeyOTelEndpoint:        "localhost:4317",
	KeyCORSAllowedOrigins:  "http://localhost:3000,http://localhost:5173",
	KeyRateLimitPerMinute:  100,
	KeyPlanLimitPerMinute:  10,
	KeyShutdownGracePeriod: "30s",
}

// Config is the resolved process configuration.
type Config struct {
	Env      string
	Port     string
	LogLevel zerolog.Level

	Gemini    GeminiConfig
	Nominatim NominatimConfig
	Cache     CacheConfig
	Rates     RatesConfig
	Provider  ProviderConfig
	Telemetry TelemetryConfig
	HTTP      HTTPConfig

	// Currency labels every amount in reports and API responses.
	Currency string
}

// GeminiConfig configures the text generator.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NominatimConfig configures the geocoder.
type NominatimConfig struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
}

// CacheConfig holds the TTLs of the process-wide caches.
type CacheConfig struct {
	ParseTTL   time.Duration
	GeocodeTTL time.Duration
	HotelTTL   time.Duration
}

// RatesConfig holds the flat daily expense rates.
type RatesConfig struct {
	LodgingPerNight float64
	FoodPerDay      float64
}

// ProviderConfig bounds every outbound call.
type ProviderConfig struct {
	Timeout    time.Duration
	MaxRetries uint64
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	CORSAllowedOrigins  []string
	RateLimitPerMinute  int
	PlanLimitPerMinute  int
	ShutdownGracePeriod time.Duration
}

// Options controls where configuration is read from.
type Options struct {
	// EnvFile is loaded into the environment if it exists (default: ".env").
	// Variables already set in the environment win.
	EnvFile string

	// ConfigFile is an optional YAML, JSON or TOML file. Environment variables win over it.
	ConfigFile string

	// RequireAPIKey makes a missing GEMINI_API_KEY an error.
	RequireAPIKey bool
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return fromViper(v, opts.RequireAPIKey)
}

func fromViper(v *viper.Viper, requireAPIKey bool) (*Config, error) {
	var errs []error
	duration := func(key string) time.Duration {
		d, err := parseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString(KeyLogLevel)))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyLogLevel, err))
	}

	cfg := &Config{
		Env:      v.GetString(KeyAppEnv),
		Port:     v.GetString(KeyAppPort),
		LogLevel: level,
		Gemini: GeminiConfig{
			APIKey: strings.TrimSpace(v.GetString(KeyGeminiAPIKey)),
			Model:  v.GetString(KeyGeminiModel),
		},
		Nominatim: NominatimConfig{
			BaseURL:           strings.TrimRight(v.GetString(KeyNominatimBaseURL), "/"),
			UserAgent:         v.GetString(KeyNominatimUserAgent),
			RequestsPerSecond: v.GetFloat64(KeyNominatimRPS),
		},
		Cache: CacheConfig{
			ParseTTL:   duration(KeyParseCacheTTL),
			GeocodeTTL: duration(KeyGeocodeCacheTTL),
			HotelTTL:   duration(KeyHotelCacheTTL),
		},
		Rates: RatesConfig{
			LodgingPerNight: v.GetFloat64(KeyLodgingPerNight),
			FoodPerDay:      v.GetFloat64(KeyFoodPerDay),
		},
		Provider: ProviderConfig{
			Timeout:    duration(KeyProviderTimeout),
			MaxRetries: uint64(max(v.GetInt(KeyProviderMaxRetries), 0)),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool(KeyOTelEnabled),
			OTLPEndpoint: v.GetString(KeyOTelEndpoint),
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins:  splitList(v.GetString(KeyCORSAllowedOrigins)),
			RateLimitPerMinute:  v.GetInt(KeyRateLimitPerMinute),
			PlanLimitPerMinute:  v.GetInt(KeyPlanLimitPerMinute),
			ShutdownGracePeriod: duration(KeyShutdownGracePeriod),
		},
		Currency: v.GetString(KeyCurrency),
	}

	if cfg.Rates.LodgingPerNight < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyLodgingPerNight))
	}
	if cfg.Rates.FoodPerDay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyFoodPerDay))
	}
	if requireAPIKey && cfg.Gemini.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// parseDuration accepts Go duration strings ("90s", "1h") and bare integers as seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Package config resolves runtime configuration with the priority
// flag > environment variable > TOML file > default.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PORTFOLIOVIZ_"

// Duration is a time.Duration that reads "30m"-style strings from TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds server and CLI configuration.
type Config struct {
	DBPath      string       `toml:"db_path" validate:"required"`
	Port        int          `toml:"port" validate:"min=1,max=65535"`
	LogLevel    string       `toml:"log_level" validate:"oneof=debug info warn error"`
	Portfolios  []string     `toml:"portfolios"`
	LinkBaseURL string       `toml:"link_base_url" validate:"omitempty,url"`
	SessionTTL  Duration     `toml:"session_ttl"`
	SearchRate  float64      `toml:"search_rate" validate:"gt=0"`
	SearchBurst int          `toml:"search_burst" validate:"min=1"`
	AWSRegion   string       `toml:"aws_region"`
	Layout      LayoutConfig `toml:"layout"`

	// WatchInterval polls local portfolio files for changes; zero disables.
	WatchInterval Duration `toml:"watch_interval"`
}

// LayoutConfig sizes the server-side graph layout.
type LayoutConfig struct {
	Width      float64 `toml:"width" validate:"gt=0"`
	Height     float64 `toml:"height" validate:"gt=0"`
	Iterations int     `toml:"iterations" validate:"min=1"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DBPath:      "./portfolioviz.db",
		Port:        8080,
		LogLevel:    "info",
		LinkBaseURL: "https://whoownswhat.justfix.org/bbl/",
		SessionTTL:  Duration{30 * time.Minute},
		SearchRate:  5,
		SearchBurst: 10,
		AWSRegion:   "us-east-1",
		Layout:      LayoutConfig{Width: 800, Height: 600, Iterations: 50},
	}
}

// ---------------------------------------------------------------------------
// Sources
// ---------------------------------------------------------------------------

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFile decodes a TOML file on top of cfg. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides values from PORTFOLIOVIZ_<KEY> variables, where KEY is
// the upper-cased TOML key (LAYOUT_WIDTH for layout.width).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, key := range Keys() {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if v, ok := lookup(name); ok && v != "" {
			if err := c.Set(key, v); err != nil {
				return fmt.Errorf("config: %s: %w", name, err)
			}
		}
	}
	return nil
}

// FlagName maps a config key to its command-line flag name.
func FlagName(key string) string {
	return strings.NewReplacer(".", "-", "_", "-").Replace(key)
}

// ApplyFlags overrides values from flags that were explicitly set on flags.
// Flags are matched to keys via FlagName.
func (c *Config) ApplyFlags(flags *flag.FlagSet) error {
	byFlag := make(map[string]string, len(Keys()))
	for _, key := range Keys() {
		byFlag[FlagName(key)] = key
	}
	var firstErr error
	flags.Visit(func(f *flag.Flag) {
		key, ok := byFlag[f.Name]
		if !ok || firstErr != nil {
			return
		}
		if err := c.Set(key, f.Value.String()); err != nil {
			firstErr = fmt.Errorf("config: flag -%s: %w", f.Name, err)
		}
	})
	return firstErr
}

// RegisterFlags defines one string flag per key on flags, documented with
// the value from def.
func RegisterFlags(flags *flag.FlagSet, def *Config) {
	for _, key := range Keys() {
		flags.String(FlagName(key), def.Get(key), "config "+key)
	}
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

// Keys lists every settable key.
func Keys() []string {
	return []string{
		"db_path", "port", "log_level", "portfolios", "link_base_url",
		"session_ttl", "search_rate", "search_burst", "aws_region",
		"layout.width", "layout.height", "layout.iterations",
		"watch_interval",
	}
}

// Set assigns one key from its string form. portfolios takes a
// comma-separated list.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "db_path":
		c.DBPath = value
	case "port":
		c.Port, err = strconv.Atoi(value)
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "portfolios":
		c.Portfolios = splitList(value)
	case "link_base_url":
		c.LinkBaseURL = value
	case "session_ttl":
		c.SessionTTL.Duration, err = time.ParseDuration(value)
	case "search_rate":
		c.SearchRate, err = strconv.ParseFloat(value, 64)
	case "search_burst":
		c.SearchBurst, err = strconv.Atoi(value)
	case "aws_region":
		c.AWSRegion = value
	case "layout.width":
		c.Layout.Width, err = strconv.ParseFloat(value, 64)
	case "layout.height":
		c.Layout.Height, err = strconv.ParseFloat(value, 64)
	case "layout.iterations":
		c.Layout.Iterations, err = strconv.Atoi(value)
	case "watch_interval":
		c.WatchInterval.Duration, err = time.ParseDuration(value)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return nil
}

// Get returns the string form of one key.
func (c *Config) Get(key string) string {
	switch key {
	case "db_path":
		return c.DBPath
	case "port":
		return strconv.Itoa(c.Port)
	case "log_level":
		return c.LogLevel
	case "portfolios":
		return strings.Join(c.Portfolios, ",")
	case "link_base_url":
		return c.LinkBaseURL
	case "session_ttl":
		return c.SessionTTL.Duration.String()
	case "search_rate":
		return strconv.FormatFloat(c.SearchRate, 'g', -1, 64)
	case "search_burst":
		return strconv.Itoa(c.SearchBurst)
	case "aws_region":
		return c.AWSRegion
	case "layout.width":
		return strconv.FormatFloat(c.Layout.Width, 'g', -1, 64)
	case "layout.height":
		return strconv.FormatFloat(c.Layout.Height, 'g', -1, 64)
	case "layout.iterations":
		return strconv.Itoa(c.Layout.Iterations)
	case "watch_interval":
		return c.WatchInterval.Duration.String()
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.SessionTTL.Duration <= 0 {
		return fmt.Errorf("config: session_ttl must be positive")
	}
	if c.WatchInterval.Duration < 0 {
		return fmt.Errorf("config: watch_interval must not be negative")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

// Load resolves the full configuration: defaults, then the TOML file at
// path (if non-empty), then the environment (after .env), then explicitly
// set flags (if non-nil). The result is validated.
func Load(path string, flags *flag.FlagSet) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if flags != nil {
		if err := cfg.ApplyFlags(flags); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

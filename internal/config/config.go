// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults.
const (
	DefaultEndpoint         = "https://career-co-pilot-1.onrender.com/analyze"
	DefaultTimeout          = 2 * time.Minute
	DefaultPort             = 8080
	DefaultSubmitsPerMinute = 6
	DefaultSubmitBurst      = 2
)

// Environment variables read by ApplyEnv.
const (
	EnvEndpoint  = "ATS_ENDPOINT"
	EnvTimeout   = "ATS_TIMEOUT"
	EnvUserAgent = "ATS_USER_AGENT"
	EnvAWSRegion = "AWS_REGION"
)

// Duration is a time.Duration that reads "90s" style strings or whole seconds from JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("duration must be a string like \"90s\" or a number of seconds")
	}
	*d = Duration(seconds * float64(time.Second))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional in the file; Resolve fills the rest from defaults.
type Config struct {
	Endpoint  string   `json:"endpoint,omitempty" validate:"required,url,startswith=http"`
	Timeout   Duration `json:"timeout,omitempty" validate:"gte=0"`
	UserAgent string   `json:"user_agent,omitempty"`
	AWSRegion string   `json:"aws_region,omitempty"`

	UseBrowser bool `json:"use_browser,omitempty"`
	Verbose    bool `json:"verbose,omitempty"`
	JSONLogs   bool `json:"json_logs,omitempty"`

	Server ServerConfig `json:"server,omitempty"`
}

// ServerConfig configures the local web view.
type ServerConfig struct {
	Port             int     `json:"port,omitempty" validate:"gte=1,lte=65535"`
	SubmitsPerMinute float64 `json:"submits_per_minute,omitempty" validate:"gte=0"`
	SubmitBurst      int     `json:"submit_burst,omitempty" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Timeout:  Duration(DefaultTimeout),
		Server: ServerConfig{
			Port:             DefaultPort,
			SubmitsPerMinute: DefaultSubmitsPerMinute,
			SubmitBurst:      DefaultSubmitBurst,
		},
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks that the configuration has valid values. It reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config error: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("'%s' failed '%s'", field, fe.Tag()))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, ", "))
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
// Booleans are OR-ed.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Endpoint == "" {
		result.Endpoint = defaults.Endpoint
	}
	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.AWSRegion == "" {
		result.AWSRegion = defaults.AWSRegion
	}
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.Server.SubmitsPerMinute == 0 {
		result.Server.SubmitsPerMinute = defaults.Server.SubmitsPerMinute
	}
	if result.Server.SubmitBurst == 0 {
		result.Server.SubmitBurst = defaults.Server.SubmitBurst
	}

	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose
	result.JSONLogs = result.JSONLogs || defaults.JSONLogs

	return result
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		c.Endpoint = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: %s: %w", EnvTimeout, err)
		}
		c.Timeout = Duration(d)
	}
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := lookup(EnvAWSRegion); ok && v != "" {
		c.AWSRegion = v
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the optional file at path,
// then the process environment. The result is validated.
func Resolve(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

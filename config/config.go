// Package config loads pitchboard's runtime configuration.
//
// Values come from three layers, later ones winning: built-in defaults, a
// YAML file (with ${VAR} substitution), and PITCHBOARD_* environment
// variables. A .env file next to the process is read first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/logger"
	"github.com/spektr-org/pitchboard/observability"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PITCHBOARD_"

// Config holds all application configuration.
type Config struct {
	Data      DataConfig                  `yaml:"data"`
	Server    ServerConfig                `yaml:"server"`
	Dashboard DashboardConfig             `yaml:"dashboard"`
	Logger    logger.Config               `yaml:"logger"`
	Tracing   observability.TracingConfig `yaml:"tracing"`
}

// DataConfig locates and decodes the pitching file.
type DataConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// DashboardConfig customises the rendered page.
type DashboardConfig struct {
	Title   string   `yaml:"title"`
	Palette []string `yaml:"palette"`
	Panels  []string `yaml:"panels"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Data: DataConfig{
			Path:      "pitcheo.csv",
			Delimiter: ";",
			Encoding:  "latin-1",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Dashboard: DashboardConfig{
			Title: "MLB Pitcher Performance",
		},
		Logger: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load builds the configuration. An empty path skips the YAML layer; a
// path that does not exist is an error.
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").WithDetail("path", path)
		}
		if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &cfg); err != nil {
			return cfg, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML").WithDetail("path", path)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that cfg can drive a server.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Data.Path) == "" {
		return errors.New(errors.ErrorTypeConfig, "data.path is required")
	}
	if _, err := c.Data.DelimiterRune(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrorTypeConfig, "server.addr is required")
	}
	if c.Server.RequestTimeout < 0 || c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return errors.New(errors.ErrorTypeConfig, "server timeouts must not be negative")
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "tracing.sampling_rate %v outside [0,1]", c.Tracing.SamplingRate)
	}
	return nil
}

// DelimiterRune returns the single-character delimiter. "\t" and "tab"
// both mean a tab.
func (d DataConfig) DelimiterRune() (rune, error) {
	s := d.Delimiter
	if s == `\t` || strings.EqualFold(s, "tab") {
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, errors.Newf(errors.ErrorTypeConfig, "data.delimiter must be one character, got %q", s)
	}
	return r[0], nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

// ============================================================================
// ENVIRONMENT OVERRIDES
// ============================================================================

func applyEnv(cfg *Config) error {
	envOverride(&cfg.Data.Path, "DATA_PATH")
	envOverride(&cfg.Data.Delimiter, "DATA_DELIMITER")
	envOverride(&cfg.Data.Encoding, "DATA_ENCODING")
	envOverride(&cfg.Server.Addr, "SERVER_ADDR")
	envOverrideList(&cfg.Server.AllowedOrigins, "ALLOWED_ORIGINS")
	envOverride(&cfg.Dashboard.Title, "DASHBOARD_TITLE")
	envOverrideList(&cfg.Dashboard.Palette, "DASHBOARD_PALETTE")
	envOverrideList(&cfg.Dashboard.Panels, "DASHBOARD_PANELS")
	envOverride(&cfg.Logger.Level, "LOG_LEVEL")
	envOverride(&cfg.Logger.Encoding, "LOG_ENCODING")
	envOverride(&cfg.Tracing.Environment, "ENVIRONMENT")

	if err := envOverrideDuration(&cfg.Server.RequestTimeout, "REQUEST_TIMEOUT"); err != nil {
		return err
	}
	if err := envOverrideBool(&cfg.Tracing.Enabled, "TRACING_ENABLED"); err != nil {
		return err
	}
	return envOverrideFloat(&cfg.Tracing.SamplingRate, "TRACING_SAMPLING_RATE")
}

func envOverride(dst *string, name string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func envOverrideList(dst *[]string, name string) {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func envOverrideDuration(dst *time.Duration, name string) error {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = d
	return nil
}

func envOverrideBool(dst *bool, name string) error {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = b
	return nil
}

func envOverrideFloat(dst *float64, name string) error {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = f
	return nil
}

func envError(name, value string, cause error) error {
	return errors.Wrap(cause, errors.ErrorTypeConfig, "invalid environment override").
		WithDetail("variable", EnvPrefix+name).
		WithDetail("value", value)
}

package config

import (
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/vango-dev/statekit/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "statekit.json"

	// DefaultPort is the default devtools server port.
	DefaultPort = 7070

	// DefaultHost is the default devtools server host.
	DefaultHost = "localhost"

	// DefaultEventBuffer is the number of recent registry events kept for
	// /api/events.
	DefaultEventBuffer = 256

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "statekit"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "statekit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config represents the complete statekit.json configuration.
type Config struct {
	// Name is the application name, used in logs and the devtools UI.
	Name string `json:"name,omitempty"`

	// Debug enables the registry's per-event debug log line.
	Debug bool `json:"debug,omitempty"`

	// Log contains logger configuration.
	Log LogConfig `json:"log,omitempty"`

	// Devtools contains inspector server configuration.
	Devtools DevtoolsConfig `json:"devtools,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string `json:"level,omitempty"`

	// Format is text or json (default: text).
	Format string `json:"format,omitempty"`
}

// DevtoolsConfig contains inspector server settings.
type DevtoolsConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// EventBuffer is the number of recent events kept in memory.
	EventBuffer int `json:"eventBuffer,omitempty"`

	// AllowOrigins lists origins allowed to open the websocket stream.
	// Empty allows same-origin requests only.
	AllowOrigins []string `json:"allowOrigins,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the collectors and serves /metrics.
	Enabled bool `json:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled emits a span per registry event.
	Enabled bool `json:"enabled"`

	// TracerName is the name of the tracer.
	TracerName string `json:"tracerName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name: "statekit",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Devtools: DevtoolsConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			EventBuffer: DefaultEventBuffer,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for statekit.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithSubject(path).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E102").WithSubject(path).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E102").
			WithSubject(path).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E103").WithSubject(path).Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E103").WithSubject(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultHost
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultPort
	}
	if c.Devtools.EventBuffer == 0 {
		c.Devtools.EventBuffer = DefaultEventBuffer
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Devtools.Port < 0 || c.Devtools.Port > 65535 {
		return errors.New("E102").
			WithSubject(c.configPath).
			WithDetail("devtools.port must be between 0 and 65535")
	}
	if c.Devtools.EventBuffer < 0 {
		return errors.New("E102").
			WithSubject(c.configPath).
			WithDetail("devtools.eventBuffer must not be negative")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E102").
			WithSubject(c.configPath).
			WithDetail("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E102").
			WithSubject(c.configPath).
			WithDetail("log.format must be text or json")
	}
	return nil
}

// Address returns the listen address for the devtools server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Devtools.Host, strconv.Itoa(c.Devtools.Port))
}

// NewLogger builds a slog logger writing to w with the configured level and
// format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if c.Name != "" {
		logger = logger.With("app", c.Name)
	}
	return logger
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// statekit.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E101").
				WithSubject(startDir).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent that has one. Without a config file it returns the
// defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}

package config

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/idom"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "idom.json"

	// DefaultPort is the default playground port.
	DefaultPort = 4380

	// DefaultHost is the default playground host.
	DefaultHost = "localhost"

	// DefaultKeyAttribute is the attribute imported as a node's key.
	DefaultKeyAttribute = "key"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "idom"

	// DefaultMetricsPath is the default path of the metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultMaxSessions is the default limit of live playground sessions.
	DefaultMaxSessions = 100

	// DefaultSessionTTL is how long an idle playground session is kept.
	DefaultSessionTTL = "30m"
)

// Color modes for terminal output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents the complete idom.json configuration.
type Config struct {
	// Debug enables the engine's debug assertions.
	Debug bool `json:"debug,omitempty"`

	// KeyAttribute is the attribute imported as a node's key when adopting
	// existing markup. Unset means "key"; null or an empty string disables
	// key import.
	KeyAttribute *string `json:"keyAttribute,omitempty"`

	// Serve contains playground server configuration.
	Serve ServeConfig `json:"serve,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Output contains CLI output configuration.
	Output OutputConfig `json:"output,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServeConfig contains playground server settings.
type ServeConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// AllowedOrigins lists the origins allowed to open WebSocket sessions.
	// Empty means same-origin only; "*" allows any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	// MaxSessions limits the number of live sessions.
	MaxSessions int `json:"maxSessions,omitempty"`

	// SessionTTL is how long an idle session is kept (e.g., "30m").
	SessionTTL string `json:"sessionTTL,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes patch metrics from the playground.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Path is the URL path of the metrics endpoint.
	Path string `json:"path,omitempty"`
}

// OutputConfig contains CLI output settings.
type OutputConfig struct {
	// Pretty indents rendered markup.
	Pretty bool `json:"pretty,omitempty"`

	// Color is one of "auto", "always" or "never".
	Color string `json:"color,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// UnmarshalJSON decodes idom.json. An explicit "keyAttribute": null is kept
// as an empty name so that it disables key import instead of falling back
// to the default.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	if err := json.Unmarshal(data, (*plain)(c)); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if v, ok := fields["keyAttribute"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		disabled := ""
		c.KeyAttribute = &disabled
	}
	return nil
}

// Load reads configuration from the specified directory.
// It looks for idom.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E302").
				WithDetail("No idom.json found in " + filepath.Dir(path)).
				WithSuggestion("Create idom.json or pass settings as flags")
		}
		return nil, errors.New("E301").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E301").
			Wrap(err).
			WithReason("Failed to parse %s: %v", filepath.Base(path), err).
			WithSuggestion("Check that idom.json is valid JSON")
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
		return errors.New("E301").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E301").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Serve.MaxSessions == 0 {
		c.Serve.MaxSessions = DefaultMaxSessions
	}
	if c.Serve.SessionTTL == "" {
		c.Serve.SessionTTL = DefaultSessionTTL
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Output.Color == "" {
		c.Output.Color = ColorAuto
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return errors.New("E303").
			WithReason("serve.port is %d", c.Serve.Port).
			WithDetail("Port must be between 0 and 65535")
	}
	if c.Serve.MaxSessions < 0 {
		return errors.New("E303").
			WithReason("serve.maxSessions is %d", c.Serve.MaxSessions).
			WithDetail("maxSessions must not be negative")
	}
	if d, err := time.ParseDuration(c.Serve.SessionTTL); err != nil || d <= 0 {
		return errors.New("E303").
			WithReason("serve.sessionTTL is %q", c.Serve.SessionTTL).
			WithDetail("sessionTTL must be a positive duration such as \"30m\"")
	}
	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.New("E303").
			WithReason("output.color is %q", c.Output.Color).
			WithDetail(`color must be "auto", "always" or "never"`)
	}
	return nil
}

// KeyAttributeName returns the configured key attribute.
func (c *Config) KeyAttributeName() string {
	if c.KeyAttribute == nil {
		return DefaultKeyAttribute
	}
	return *c.KeyAttribute
}

// SessionTTLDuration returns the parsed session TTL, or the default if it
// does not parse.
func (c *Config) SessionTTLDuration() time.Duration {
	if d, err := time.ParseDuration(c.Serve.SessionTTL); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultSessionTTL)
	return d
}

// Apply pushes the engine settings into the idom package.
func (c *Config) Apply() {
	idom.SetDebug(c.Debug)
	idom.SetKeyAttributeName(c.KeyAttributeName())
}

// ApplyColor configures coloured error output for f according to
// output.color.
func (c *Config) ApplyColor(f *os.File) {
	switch c.Output.Color {
	case ColorAlways:
		errors.EnableColors()
	case ColorNever:
		errors.DisableColors()
	default:
		errors.ColorsFor(f)
	}
}

// ServeAddress returns the address string for the playground server.
func (c *Config) ServeAddress() string {
	return net.JoinHostPort(c.Serve.Host, strconv.Itoa(c.Serve.Port))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing idom.json, or an error if not found.
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
			return "", errors.New("E302").
				WithDetail("No idom.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent that has an idom.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

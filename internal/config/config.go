package config

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dqx0.com/go/urlfetch/rawfetch"
)

// Config is the urlfetch configuration file.
type Config struct {
	LogLevel string      `yaml:"log_level"`
	Fetch    FetchConfig `yaml:"fetch"`
}

// FetchConfig mirrors rawfetch.Options in file form.
type FetchConfig struct {
	Insecure        bool    `yaml:"insecure"`
	NoSNI           bool    `yaml:"no_sni"`
	TimeoutSeconds  float64 `yaml:"timeout_seconds"`
	MaxBodyBytes    int     `yaml:"max_body_bytes"`
	FollowRedirects bool    `yaml:"follow_redirects"`
	MaxRedirects    int     `yaml:"max_redirects"`
	Debug           bool    `yaml:"debug"`
	UserAgent       string  `yaml:"user_agent"`
	// CAFile is a PEM bundle used instead of the system roots.
	CAFile string `yaml:"ca_file"`
}

// WithDefaults fills zero fields with the rawfetch defaults. A nil c yields
// a new Config.
func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = "info"
	}
	c.Fetch = c.Fetch.withDefaults()
	return c
}

func (c FetchConfig) withDefaults() FetchConfig {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = rawfetch.DefaultTimeout.Seconds()
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = rawfetch.DefaultMaxBodyBytes
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = rawfetch.DefaultMaxRedirects
	}
	return c
}

// Load reads a YAML config from path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg.WithDefaults(), nil
}

// ApplyEnv overlays URLFETCH_* environment variables onto c. Set variables
// win over the file.
func (c *Config) ApplyEnv() *Config {
	c = c.WithDefaults()
	c.LogLevel = getEnv("URLFETCH_LOG_LEVEL", c.LogLevel)
	if v := strings.TrimSpace(os.Getenv("URLFETCH_TIMEOUT")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			c.Fetch.TimeoutSeconds = secs
		}
	}
	c.Fetch.MaxBodyBytes = getEnvInt("URLFETCH_MAX_BODY", c.Fetch.MaxBodyBytes)
	c.Fetch.Insecure = getEnvBool("URLFETCH_INSECURE", c.Fetch.Insecure)
	c.Fetch.NoSNI = getEnvBool("URLFETCH_NO_SNI", c.Fetch.NoSNI)
	c.Fetch.FollowRedirects = getEnvBool("URLFETCH_FOLLOW", c.Fetch.FollowRedirects)
	c.Fetch.Debug = getEnvBool("URLFETCH_DEBUG", c.Fetch.Debug)
	c.Fetch.UserAgent = getEnv("URLFETCH_USER_AGENT", c.Fetch.UserAgent)
	c.Fetch.CAFile = getEnv("URLFETCH_CA_FILE", c.Fetch.CAFile)
	return c
}

// FromEnv builds a config from the environment alone.
func FromEnv() *Config {
	return (&Config{}).ApplyEnv()
}

var errNoCerts = errors.New("config: no certificates found in CA file")

// ToOptions converts the fetch section into rawfetch.Options.
func (c *Config) ToOptions() (rawfetch.Options, error) {
	f := c.WithDefaults().Fetch
	opts := rawfetch.Options{
		AllowInsecureTLS: f.Insecure,
		DisableSNI:       f.NoSNI,
		Timeout:          time.Duration(f.TimeoutSeconds * float64(time.Second)),
		MaxBodyBytes:     f.MaxBodyBytes,
		FollowRedirects:  f.FollowRedirects,
		MaxRedirects:     f.MaxRedirects,
		Debug:            f.Debug,
		UserAgent:        f.UserAgent,
	}
	if f.CAFile != "" {
		pem, err := os.ReadFile(f.CAFile)
		if err != nil {
			return opts, fmt.Errorf("config: ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return opts, fmt.Errorf("%w: %s", errNoCerts, f.CAFile)
		}
		opts.RootCAs = pool
	}
	return opts, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

package gateway

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultListenAddr is the default bind address of the gateway.
const DefaultListenAddr = ":8080"

// Config holds the configuration for the inference gateway.
type Config struct {
	ListenAddr string

	// Model selection. ModelURL points directly at an inference runtime;
	// when empty, RegistryURL plus Model/ModelStage is used to resolve one.
	Model       string
	ModelStage  string
	ModelURL    string
	RegistryURL string

	// TrackingURL enables per-batch metrics emission when set.
	TrackingURL string

	AuthKey string

	// Batching parameters, passed through to the micro-batcher.
	MaxBatchSize int
	MaxWait      time.Duration
	PollInterval time.Duration

	HTTPTimeout  time.Duration
	ReadyTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   DefaultListenAddr,
		ModelStage:   "production",
		MaxBatchSize: 32,
		MaxWait:      100 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		HTTPTimeout:  30 * time.Second,
		ReadyTimeout: 60 * time.Second,
		AuthKey:      os.Getenv("BATCHD_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.ModelURL == "" && c.RegistryURL == "" {
		return fmt.Errorf("model-url or registry-url is required")
	}

	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}

	// Ensure no trailing slash on service URLs
	c.ModelURL = trimSlash(c.ModelURL)
	c.RegistryURL = trimSlash(c.RegistryURL)
	c.TrackingURL = trimSlash(c.TrackingURL)

	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive")
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("max wait must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	return nil
}

func trimSlash(u string) string {
	if len(u) > 0 && u[len(u)-1] == '/' {
		return u[:len(u)-1]
	}
	return u
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

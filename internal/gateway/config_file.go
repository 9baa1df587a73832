package gateway

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenAddr   string `toml:"listen_addr"`
	Model        string `toml:"model"`
	ModelStage   string `toml:"model_stage"`
	ModelURL     string `toml:"model_url"`
	RegistryURL  string `toml:"registry_url"`
	TrackingURL  string `toml:"tracking_url"`
	AuthKey      string `toml:"api_key"`
	MaxBatchSize int    `toml:"max_batch_size"`
	MaxWait      string `toml:"max_wait"`
	PollInterval string `toml:"poll_interval"`
	HTTPTimeout  string `toml:"http_timeout"`
	ReadyTimeout string `toml:"ready_timeout"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.batchd/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".batchd", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("model", fc.Model, &cfg.Model)
	s.setString("model-stage", fc.ModelStage, &cfg.ModelStage)
	s.setString("model-url", fc.ModelURL, &cfg.ModelURL)
	s.setString("registry-url", fc.RegistryURL, &cfg.RegistryURL)
	s.setString("tracking-url", fc.TrackingURL, &cfg.TrackingURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)

	s.setInt("max-batch-size", fc.MaxBatchSize, &cfg.MaxBatchSize)

	if err := s.setDuration("max-wait", fc.MaxWait, &cfg.MaxWait); err != nil {
		return err
	}
	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("ready-timeout", fc.ReadyTimeout, &cfg.ReadyTimeout); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

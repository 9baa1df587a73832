package gateway

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Model = "sentiment"
	cfg.ModelURL = "http://localhost:9000"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid direct url", func(c *Config) {}, false},
		{"valid registry", func(c *Config) {
			c.ModelURL = ""
			c.RegistryURL = "http://registry:5000"
		}, false},
		{"missing model", func(c *Config) { c.Model = "" }, true},
		{"missing both urls", func(c *Config) {
			c.ModelURL = ""
			c.RegistryURL = ""
		}, true},
		{"zero batch size", func(c *Config) { c.MaxBatchSize = 0 }, true},
		{"negative max wait", func(c *Config) { c.MaxWait = -time.Second }, true},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_TrimsTrailingSlash(t *testing.T) {
	cfg := validConfig()
	cfg.ModelURL = "http://localhost:9000/"
	cfg.RegistryURL = "http://registry:5000/"
	cfg.TrackingURL = "http://tracking:5001/"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.ModelURL != "http://localhost:9000" {
		t.Errorf("ModelURL = %q, trailing slash not trimmed", cfg.ModelURL)
	}
	if cfg.RegistryURL != "http://registry:5000" {
		t.Errorf("RegistryURL = %q, trailing slash not trimmed", cfg.RegistryURL)
	}
	if cfg.TrackingURL != "http://tracking:5001" {
		t.Errorf("TrackingURL = %q, trailing slash not trimmed", cfg.TrackingURL)
	}
}

func TestConfig_Validate_DefaultsListenAddr(t *testing.T) {
	cfg := validConfig()
	cfg.ListenAddr = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
}

func TestConfigSetter_FlagPrecedence(t *testing.T) {
	s := newConfigSetter(map[string]bool{"model": true})

	model := "from-flag"
	s.setString("model", "from-file", &model)
	if model != "from-flag" {
		t.Errorf("model = %q, flag value should win", model)
	}

	stage := "production"
	s.setString("model-stage", "staging", &stage)
	if stage != "staging" {
		t.Errorf("stage = %q, unchanged flag should be overridden", stage)
	}

	// Empty values never overwrite.
	s.setString("model-stage", "", &stage)
	if stage != "staging" {
		t.Errorf("stage = %q, empty value should be ignored", stage)
	}
}

func TestConfigSetter_Numeric(t *testing.T) {
	s := newConfigSetter(map[string]bool{})

	size := 32
	s.setInt("max-batch-size", 64, &size)
	if size != 64 {
		t.Errorf("size = %d, want 64", size)
	}
	s.setInt("max-batch-size", 0, &size)
	if size != 64 {
		t.Errorf("size = %d, non-positive value should be ignored", size)
	}

	var wait time.Duration
	if err := s.setDuration("max-wait", "250ms", &wait); err != nil {
		t.Fatalf("setDuration() error = %v", err)
	}
	if wait != 250*time.Millisecond {
		t.Errorf("wait = %v, want 250ms", wait)
	}
	if err := s.setDuration("max-wait", "not-a-duration", &wait); err == nil {
		t.Error("setDuration() accepted garbage")
	}

	if err := s.setIntFromString("max-batch-size", "128", &size); err != nil {
		t.Fatalf("setIntFromString() error = %v", err)
	}
	if size != 128 {
		t.Errorf("size = %d, want 128", size)
	}
	if err := s.setIntFromString("max-batch-size", "abc", &size); err == nil {
		t.Error("setIntFromString() accepted garbage")
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
listen_addr = ":9090"
model = "sentiment"
model_url = "http://localhost:9000"
tracking_url = "http://tracking:5001"
api_key = "secret"
max_batch_size = 16
max_wait = "50ms"
poll_interval = "5ms"
http_timeout = "10s"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
		t.Fatalf("ApplyFileConfig() error = %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.ListenAddr)
	}
	if cfg.Model != "sentiment" {
		t.Errorf("Model = %q, want sentiment", cfg.Model)
	}
	if cfg.AuthKey != "secret" {
		t.Errorf("AuthKey = %q, want secret", cfg.AuthKey)
	}
	if cfg.MaxBatchSize != 16 {
		t.Errorf("MaxBatchSize = %d, want 16", cfg.MaxBatchSize)
	}
	if cfg.MaxWait != 50*time.Millisecond {
		t.Errorf("MaxWait = %v, want 50ms", cfg.MaxWait)
	}
	if cfg.PollInterval != 5*time.Millisecond {
		t.Errorf("PollInterval = %v, want 5ms", cfg.PollInterval)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v, want 10s", cfg.HTTPTimeout)
	}
	// Fields absent from the file keep their defaults.
	if cfg.ReadyTimeout != 60*time.Second {
		t.Errorf("ReadyTimeout = %v, want default 60s", cfg.ReadyTimeout)
	}
}

func TestLoadFileConfig_Missing(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadFileConfig() on missing file returned nil error")
	}
}

func TestLoadFileConfig_BadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("max_wait = \"fifty\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err == nil {
		t.Error("ApplyFileConfig() accepted invalid duration")
	}
}

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("BATCHD_MODEL", "toxicity")
	t.Setenv("BATCHD_MODEL_URL", "http://runtime:9000")
	t.Setenv("BATCHD_MAX_BATCH_SIZE", "8")
	t.Setenv("BATCHD_MAX_WAIT", "75ms")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}

	if cfg.Model != "toxicity" {
		t.Errorf("Model = %q, want toxicity", cfg.Model)
	}
	if cfg.ModelURL != "http://runtime:9000" {
		t.Errorf("ModelURL = %q, want http://runtime:9000", cfg.ModelURL)
	}
	if cfg.MaxBatchSize != 8 {
		t.Errorf("MaxBatchSize = %d, want 8", cfg.MaxBatchSize)
	}
	if cfg.MaxWait != 75*time.Millisecond {
		t.Errorf("MaxWait = %v, want 75ms", cfg.MaxWait)
	}
}

func TestApplyEnvConfig_FlagWins(t *testing.T) {
	t.Setenv("BATCHD_MODEL", "from-env")

	cfg := DefaultConfig()
	cfg.Model = "from-flag"
	if err := ApplyEnvConfig(&cfg, map[string]bool{"model": true}); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}
	if cfg.Model != "from-flag" {
		t.Errorf("Model = %q, flag value should win over env", cfg.Model)
	}
}

func TestApplyEnvConfig_BadValue(t *testing.T) {
	t.Setenv("BATCHD_MAX_BATCH_SIZE", "lots")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err == nil {
		t.Error("ApplyEnvConfig() accepted invalid batch size")
	}
}

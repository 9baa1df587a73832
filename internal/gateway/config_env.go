package gateway

import "os"

// ApplyEnvConfig applies configuration from environment variables (BATCHD_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", os.Getenv("BATCHD_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("model", os.Getenv("BATCHD_MODEL"), &cfg.Model)
	s.setString("model-stage", os.Getenv("BATCHD_MODEL_STAGE"), &cfg.ModelStage)
	s.setString("model-url", os.Getenv("BATCHD_MODEL_URL"), &cfg.ModelURL)
	s.setString("registry-url", os.Getenv("BATCHD_REGISTRY_URL"), &cfg.RegistryURL)
	s.setString("tracking-url", os.Getenv("BATCHD_TRACKING_URL"), &cfg.TrackingURL)
	s.setString("auth-key", os.Getenv("BATCHD_AUTH_KEY"), &cfg.AuthKey)

	if err := s.setIntFromString("max-batch-size", os.Getenv("BATCHD_MAX_BATCH_SIZE"), &cfg.MaxBatchSize); err != nil {
		return err
	}

	if err := s.setDuration("max-wait", os.Getenv("BATCHD_MAX_WAIT"), &cfg.MaxWait); err != nil {
		return err
	}
	if err := s.setDuration("poll", os.Getenv("BATCHD_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("BATCHD_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("ready-timeout", os.Getenv("BATCHD_READY_TIMEOUT"), &cfg.ReadyTimeout); err != nil {
		return err
	}

	return nil
}

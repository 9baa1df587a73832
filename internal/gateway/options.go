package gateway

import "github.com/inferlab/microbatch/internal/ports"

// Option configures optional behavior of the Gateway.
type Option func(*options)

// options holds the optional configuration for a Gateway instance.
type options struct {
	httpClient ports.HTTPClient
	registry   ports.ModelRegistry
	tracker    ports.ExperimentTracker
	configFile string
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{}
}

// WithHTTPClient sets a custom HTTP client for all outbound calls.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client ports.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithModelRegistry sets a custom registry implementation.
// If not provided and RegistryURL is configured, an HTTP registry client is used.
func WithModelRegistry(registry ports.ModelRegistry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithTracker sets a custom experiment tracker implementation.
// If not provided and TrackingURL is configured, an HTTP tracker is used.
func WithTracker(tracker ports.ExperimentTracker) Option {
	return func(o *options) {
		o.tracker = tracker
	}
}

// WithConfigFile enables hot reload of the model endpoint from the given
// TOML config file.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

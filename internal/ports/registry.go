package ports

import "context"

// ModelEndpoint is a resolved serving location for a model.
type ModelEndpoint struct {
	// Model is the registered model name.
	Model string

	// Version is the resolved model version.
	Version string

	// URL is the base URL of the runtime serving this version.
	URL string
}

// ModelRegistry resolves model names to serving endpoints.
type ModelRegistry interface {
	// Resolve returns the endpoint currently serving the model at the given
	// stage (e.g. "production", "staging").
	Resolve(ctx context.Context, model, stage string) (ModelEndpoint, error)
}

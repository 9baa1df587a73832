package ports

import (
	"context"
	"encoding/json"
)

// ModelClient is the gateway's outbound contract with an inference runtime.
// One dispatched batch maps to one Predict call. The endpoint is swappable at
// runtime so a config reload can repoint a live gateway.
type ModelClient interface {
	// Predict sends the ordered inputs as one inference call and returns one
	// output per input, position-aligned. Returns an error on transport or
	// server failure; partial results are never returned.
	Predict(ctx context.Context, inputs []json.RawMessage) ([]json.RawMessage, error)

	// SetEndpoint swaps the runtime base URL and credentials. Empty values
	// leave the current ones in place.
	SetEndpoint(baseURL, authKey string)

	// Endpoint returns the current runtime base URL.
	Endpoint() string
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/inferlab/microbatch/internal/ports"
)

const predictEndpoint = "/v1/predict"

// predictRequest is the wire format for a batch inference call.
type predictRequest struct {
	Inputs []json.RawMessage `json:"inputs"`
}

// predictResponse is the wire format of the runtime's reply.
type predictResponse struct {
	Outputs []json.RawMessage `json:"outputs"`
}

// PredictorMetadata provides context for inference calls.
// Values are included in HTTP headers for server-side routing and tracking.
type PredictorMetadata struct {
	// Model is the served model name.
	Model string

	// Version is the model version, if resolved through a registry.
	Version string

	// AuthKey is the API authentication key.
	AuthKey string

	// BaseURL is the base URL of the inference runtime.
	BaseURL string
}

// Predictor implements ports.ModelClient over HTTP. One batch submission
// maps to one POST against the runtime's predict endpoint.
type Predictor struct {
	client ports.HTTPClient
	logger ports.Logger

	mu       sync.RWMutex
	metadata PredictorMetadata
}

var _ ports.ModelClient = (*Predictor)(nil)

// NewPredictor creates a new HTTP batch predictor.
func NewPredictor(client ports.HTTPClient, metadata PredictorMetadata, logger ports.Logger) *Predictor {
	return &Predictor{
		client:   client,
		metadata: metadata,
		logger:   logger,
	}
}

// SetEndpoint swaps the runtime location and credentials at runtime.
// Called by config hot-reload, which may race with an in-flight Predict.
func (p *Predictor) SetEndpoint(baseURL, authKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if baseURL != "" {
		p.metadata.BaseURL = baseURL
	}
	if authKey != "" {
		p.metadata.AuthKey = authKey
	}
}

// Endpoint returns the current runtime base URL.
func (p *Predictor) Endpoint() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metadata.BaseURL
}

// Predict sends the ordered inputs as one inference call.
func (p *Predictor) Predict(ctx context.Context, inputs []json.RawMessage) ([]json.RawMessage, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	p.mu.RLock()
	metadata := p.metadata
	p.mu.RUnlock()

	body, err := json.Marshal(predictRequest{Inputs: inputs})
	if err != nil {
		return nil, fmt.Errorf("marshal inputs: %w", err)
	}

	url := metadata.BaseURL + predictEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if metadata.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+metadata.AuthKey)
	}
	req.Header.Set("X-Model-Name", metadata.Model)
	if metadata.Version != "" {
		req.Header.Set("X-Model-Version", metadata.Version)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("runtime returned %d: %s", resp.StatusCode, string(respBody))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// The count contract is enforced by the batcher; checking here turns a
	// misbehaving runtime into a clearer error.
	if len(pr.Outputs) != len(inputs) {
		return nil, fmt.Errorf("runtime returned %d outputs for %d inputs", len(pr.Outputs), len(inputs))
	}

	return pr.Outputs, nil
}

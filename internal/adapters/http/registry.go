package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/inferlab/microbatch/internal/ports"
)

const resolveEndpoint = "/api/v1/models/resolve"

// Registry implements ports.ModelRegistry over HTTP against a model
// registry's resolve endpoint.
type Registry struct {
	client  ports.HTTPClient
	baseURL string
	authKey string
}

// NewRegistry creates a new HTTP registry client.
func NewRegistry(client ports.HTTPClient, baseURL, authKey string) *Registry {
	return &Registry{
		client:  client,
		baseURL: baseURL,
		authKey: authKey,
	}
}

// resolveResponse is the wire format of the registry's reply.
type resolveResponse struct {
	Model   string `json:"model"`
	Version string `json:"version"`
	URL     string `json:"url"`
}

// Resolve returns the endpoint currently serving the model at the given stage.
func (r *Registry) Resolve(ctx context.Context, model, stage string) (ports.ModelEndpoint, error) {
	q := url.Values{}
	q.Set("model", model)
	q.Set("stage", stage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+resolveEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return ports.ModelEndpoint{}, fmt.Errorf("create request: %w", err)
	}
	if r.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.authKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return ports.ModelEndpoint{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return ports.ModelEndpoint{}, fmt.Errorf("registry returned %d: %s", resp.StatusCode, string(respBody))
	}

	var rr resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return ports.ModelEndpoint{}, fmt.Errorf("decode response: %w", err)
	}
	if rr.URL == "" {
		return ports.ModelEndpoint{}, fmt.Errorf("registry returned no serving URL for %s/%s", model, stage)
	}

	return ports.ModelEndpoint{
		Model:   rr.Model,
		Version: rr.Version,
		URL:     rr.URL,
	}, nil
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inferlab/microbatch"
	"github.com/inferlab/microbatch/internal/ports"
)

// maxInputBytes bounds a single prediction input.
const maxInputBytes = 1 << 20 // 1MB

// predictIn is the request body of POST /v1/predict.
type predictIn struct {
	Input json.RawMessage `json:"input"`
}

// predictOut is the response body of POST /v1/predict.
type predictOut struct {
	Output json.RawMessage `json:"output"`
}

// errorOut is the error response body.
type errorOut struct {
	Error string `json:"error"`
}

// routes builds the HTTP mux.
func (g *Gateway) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/predict", g.handlePredict)
	mux.HandleFunc("/healthz", g.handleHealthz)
	return mux
}

// handlePredict accepts one JSON input, submits it to the batcher, and
// answers with that request's individual result once its batch resolves.
func (g *Gateway) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var in predictIn
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBytes))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(in.Input) == 0 {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	output, err := g.batcher.Submit(r.Context(), in.Input)
	if err != nil {
		g.writeSubmitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(predictOut{Output: output}); err != nil {
		g.logger.Warn("write response", ports.Err(err))
	}
}

// writeSubmitError maps batcher errors onto HTTP status codes.
func (g *Gateway) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, microbatch.ErrNotAccepting), errors.Is(err, microbatch.ErrShuttingDown):
		writeError(w, http.StatusServiceUnavailable, "not accepting requests")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; the batch still processes, the result is dropped.
		writeError(w, http.StatusRequestTimeout, "request canceled")
	default:
		// Batch contract violations and processor failures land here.
		g.logger.Error("predict failed", ports.Err(err))
		writeError(w, http.StatusBadGateway, "inference failed: "+err.Error())
	}
}

// handleHealthz reports the gateway and batcher state.
func (g *Gateway) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Status  string `json:"status"`
		State   string `json:"state"`
		Model   string `json:"model"`
		Pending int    `json:"pending"`
	}{
		Status:  "ok",
		State:   g.batcher.Status().String(),
		Model:   g.config.Model,
		Pending: g.batcher.Pending(),
	}

	if g.batcher.Status() != microbatch.StateRunning {
		status.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorOut{Error: msg})
}

// Package gateway implements the batching inference gateway: an HTTP server
// that accepts single-input prediction requests, funnels them through the
// micro-batcher, and forwards each batch as one call to a model runtime.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/inferlab/microbatch"
	httpadapter "github.com/inferlab/microbatch/internal/adapters/http"
	"github.com/inferlab/microbatch/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for the HTTP server to drain.
const ShutdownTimeout = 10 * time.Second

// Gateway is the batching inference HTTP server.
type Gateway struct {
	config Config
	opts   options
	logger ports.Logger

	client    ports.HTTPClient
	predictor ports.ModelClient
	tracker   ports.ExperimentTracker
	registry  ports.ModelRegistry
	batcher   *microbatch.MicroBatcher[json.RawMessage, json.RawMessage]
	watcher   *ConfigWatcher
}

// New creates a gateway with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config, logger ports.Logger, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	g := &Gateway{
		config:   cfg,
		opts:     o,
		logger:   logger,
		client:   client,
		tracker:  o.tracker,
		registry: o.registry,
	}

	if g.registry == nil && cfg.RegistryURL != "" {
		g.registry = httpadapter.NewRegistry(client, cfg.RegistryURL, cfg.AuthKey)
	}
	if g.tracker == nil && cfg.TrackingURL != "" {
		g.tracker = httpadapter.NewTracker(client, cfg.TrackingURL, cfg.AuthKey, logger)
	}

	return g, nil
}

// Run starts the gateway and blocks until the context is canceled or the
// HTTP server fails. Shutdown order: stop accepting HTTP traffic, then drain
// the batcher so every accepted request still gets its result.
func (g *Gateway) Run(ctx context.Context) error {
	endpoint, err := g.resolveEndpoint(ctx)
	if err != nil {
		return fmt.Errorf("resolve model endpoint: %w", err)
	}

	g.predictor = httpadapter.NewPredictor(g.client, httpadapter.PredictorMetadata{
		Model:   g.config.Model,
		Version: endpoint.Version,
		AuthKey: g.config.AuthKey,
		BaseURL: endpoint.URL,
	}, g.logger)

	if err := g.waitReady(ctx); err != nil {
		return fmt.Errorf("model runtime not ready: %w", err)
	}

	batcher, err := microbatch.New(
		microbatch.Config{
			MaxBatchSize: g.config.MaxBatchSize,
			MaxWait:      g.config.MaxWait,
			PollInterval: g.config.PollInterval,
		},
		g.processBatch,
		microbatch.WithLogger(g.logger),
		microbatch.WithEventHandler(&trackingHandler{gateway: g}),
	)
	if err != nil {
		return err
	}
	g.batcher = batcher

	if err := g.batcher.Start(ctx); err != nil {
		return err
	}

	if g.opts.configFile != "" {
		g.watcher = NewConfigWatcher(g.opts.configFile, g.applyEndpointUpdate, g.logger)
		if err := g.watcher.Start(); err != nil {
			g.logger.Warn("config watcher disabled", ports.Err(err))
			g.watcher = nil
		}
	}

	server := &http.Server{
		Addr:    g.config.ListenAddr,
		Handler: g.routes(),
	}

	serveErr := make(chan error, 1)
	go func() {
		g.logger.Info("gateway listening",
			ports.String("addr", g.config.ListenAddr),
			ports.String("model", g.config.Model),
			ports.String("runtime", endpoint.URL),
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		g.shutdown(nil)
		return fmt.Errorf("http server: %w", err)
	}

	return g.shutdown(server)
}

// shutdown stops the server, the watcher, and drains the batcher.
func (g *Gateway) shutdown(server *http.Server) error {
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			g.logger.Warn("http shutdown", ports.Err(err))
		}
	}

	if g.watcher != nil {
		g.watcher.Stop()
	}

	if err := g.batcher.Stop(); err != nil {
		g.logger.Error("batcher stop", ports.Err(err))
		return err
	}

	g.logger.Info("gateway stopped")
	return nil
}

// resolveEndpoint returns the runtime location: the configured model URL, or
// the registry's answer for the model and stage.
func (g *Gateway) resolveEndpoint(ctx context.Context) (ports.ModelEndpoint, error) {
	if g.config.ModelURL != "" {
		return ports.ModelEndpoint{
			Model: g.config.Model,
			URL:   g.config.ModelURL,
		}, nil
	}

	endpoint, err := g.registry.Resolve(ctx, g.config.Model, g.config.ModelStage)
	if err != nil {
		return ports.ModelEndpoint{}, err
	}
	g.logger.Info("model resolved",
		ports.String("model", endpoint.Model),
		ports.String("version", endpoint.Version),
		ports.String("url", endpoint.URL),
	)
	return endpoint, nil
}

// waitReady probes the runtime's health endpoint with exponential backoff
// until it answers or ReadyTimeout expires.
func (g *Gateway) waitReady(ctx context.Context) error {
	if g.config.ReadyTimeout <= 0 {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, g.config.ReadyTimeout)
	defer cancel()

	bo := newBackoff(defaultBackoffInitial, defaultBackoffMax)
	for {
		if err := g.probe(probeCtx); err == nil {
			return nil
		} else {
			g.logger.Debug("runtime not ready", ports.Err(err))
		}

		select {
		case <-probeCtx.Done():
			return probeCtx.Err()
		case <-time.After(bo.Next()):
		}
	}
}

func (g *Gateway) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.predictor.Endpoint()+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	return nil
}

// processBatch is the batcher's outbound contract: one dispatched batch
// becomes one inference call.
func (g *Gateway) processBatch(ctx context.Context, inputs []json.RawMessage) ([]json.RawMessage, error) {
	return g.predictor.Predict(ctx, inputs)
}

// applyEndpointUpdate repoints the predictor after a config reload.
func (g *Gateway) applyEndpointUpdate(u EndpointUpdate) {
	g.predictor.SetEndpoint(u.ModelURL, u.AuthKey)
}

// trackingHandler forwards batch events to the experiment tracker.
type trackingHandler struct {
	gateway *Gateway
}

func (h *trackingHandler) OnStateChange(event microbatch.StateChangeEvent) {}

func (h *trackingHandler) OnBatchDone(event microbatch.BatchDoneEvent) {
	h.track(ports.BatchMetrics{
		Model:       h.gateway.config.Model,
		Size:        event.Size,
		QueueWait:   event.QueueWait,
		ProcessTime: event.ProcessTime,
	})
}

func (h *trackingHandler) OnBatchError(event microbatch.BatchErrorEvent) {
	h.track(ports.BatchMetrics{
		Model:  h.gateway.config.Model,
		Size:   event.Size,
		Failed: true,
	})
}

// track emits asynchronously: events are delivered from the dispatch
// goroutine and must not block it on tracking-server latency.
func (h *trackingHandler) track(m ports.BatchMetrics) {
	tracker := h.gateway.tracker
	if tracker == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracker.LogBatch(ctx, m); err != nil {
			h.gateway.logger.Warn("metrics emission failed", ports.Err(err))
		}
	}()
}

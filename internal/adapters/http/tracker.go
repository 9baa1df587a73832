package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inferlab/microbatch/internal/ports"
)

const metricsEndpoint = "/api/v1/serving-metrics"

// Tracker implements ports.ExperimentTracker over HTTP, posting one metrics
// record per dispatched batch to a tracking server.
type Tracker struct {
	client  ports.HTTPClient
	baseURL string
	authKey string
	logger  ports.Logger
}

// NewTracker creates a new HTTP metrics tracker.
func NewTracker(client ports.HTTPClient, baseURL, authKey string, logger ports.Logger) *Tracker {
	return &Tracker{
		client:  client,
		baseURL: baseURL,
		authKey: authKey,
		logger:  logger,
	}
}

// batchMetricsRecord is the wire format for one batch metrics entry.
type batchMetricsRecord struct {
	Model         string `json:"model"`
	BatchSize     int    `json:"batch_size"`
	QueueWaitMs   int64  `json:"queue_wait_ms"`
	ProcessTimeMs int64  `json:"process_time_ms"`
	Failed        bool   `json:"failed"`
	RecordedAt    string `json:"recorded_at"`
}

// LogBatch records the metrics for one dispatched batch.
func (t *Tracker) LogBatch(ctx context.Context, m ports.BatchMetrics) error {
	record := batchMetricsRecord{
		Model:         m.Model,
		BatchSize:     m.Size,
		QueueWaitMs:   m.QueueWait.Milliseconds(),
		ProcessTimeMs: m.ProcessTime.Milliseconds(),
		Failed:        m.Failed,
		RecordedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+metricsEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.authKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tracking server returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

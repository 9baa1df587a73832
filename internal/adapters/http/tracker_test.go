package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inferlab/microbatch/internal/ports"
	"github.com/inferlab/microbatch/pkg/log"
)

func TestTracker_LogBatch(t *testing.T) {
	var got batchMetricsRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/serving-metrics" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tr := NewTracker(srv.Client(), srv.URL, "", log.NewNoopLogger())

	err := tr.LogBatch(context.Background(), ports.BatchMetrics{
		Model:       "sentiment",
		Size:        5,
		QueueWait:   80 * time.Millisecond,
		ProcessTime: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("LogBatch() error = %v", err)
	}

	if got.Model != "sentiment" || got.BatchSize != 5 {
		t.Errorf("record = %+v, want sentiment size 5", got)
	}
	if got.QueueWaitMs != 80 || got.ProcessTimeMs != 200 {
		t.Errorf("timings = %d/%d ms, want 80/200", got.QueueWaitMs, got.ProcessTimeMs)
	}
	if got.Failed {
		t.Error("record marked failed for a successful batch")
	}
	if _, err := time.Parse(time.RFC3339Nano, got.RecordedAt); err != nil {
		t.Errorf("recorded_at %q is not RFC3339: %v", got.RecordedAt, err)
	}
}

func TestTracker_LogBatch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage full", http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	tr := NewTracker(srv.Client(), srv.URL, "", log.NewNoopLogger())

	if err := tr.LogBatch(context.Background(), ports.BatchMetrics{Model: "m", Size: 1}); err == nil {
		t.Error("LogBatch() = nil error for a failing tracking server")
	}
}

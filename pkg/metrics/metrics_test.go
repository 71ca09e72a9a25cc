package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.ScenarioStepsTotal == nil {
		t.Error("ScenarioStepsTotal not initialized")
	}
	if r.ScenarioStepDuration == nil {
		t.Error("ScenarioStepDuration not initialized")
	}
	if r.TransactionsTotal == nil {
		t.Error("TransactionsTotal not initialized")
	}
	if r.WireRequestsTotal == nil {
		t.Error("WireRequestsTotal not initialized")
	}
	if r.StoreCommitsTotal == nil {
		t.Error("StoreCommitsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordScenarioStep(t *testing.T) {
	r := NewRegistry()

	r.RecordScenarioStep("roundtrip-under-default-limit", "pass", 100*time.Millisecond)
	r.RecordScenarioStep("roundtrip-under-default-limit", "pass", 50*time.Millisecond)
	r.RecordScenarioStep("database-limit-rejects", "fail", 10*time.Millisecond)

	counter, err := r.ScenarioStepsTotal.GetMetricWithLabelValues("roundtrip-under-default-limit", "pass")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordTransaction(t *testing.T) {
	r := NewRegistry()

	r.RecordTransaction("committed")
	r.RecordTransaction("committed")
	r.RecordTransaction("failed")
	r.RecordTransactionRetry()

	committed, err := r.TransactionsTotal.GetMetricWithLabelValues("committed")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := committed.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("committed count = %v, want 2", metric.Counter.GetValue())
	}

	var retries dto.Metric
	if err := r.TransactionRetriesTotal.Write(&retries); err != nil {
		t.Fatalf("Failed to write retries metric: %v", err)
	}
	if retries.Counter.GetValue() != 1 {
		t.Errorf("retries count = %v, want 1", retries.Counter.GetValue())
	}
}

func TestRecordWireRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordWireRequest("set", "ok", time.Millisecond)
	r.RecordWireRequest("set", "error", time.Millisecond)
	r.RecordWireFrame("recv", 1024)

	counter, err := r.WireRequestsTotal.GetMetricWithLabelValues("set", "ok")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Counter value = %v, want 1", metric.Counter.GetValue())
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	if r.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWorkflowMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)
	m.IncCompensationFailure("checkout")
	m.IncCompensationFailure("checkout")
	m.IncOrphanedUpload()
	m.AddOrphansCleaned(3)
	m.AddOrphansCleaned(-1)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "workflow_compensation_failures_total", "workflow", "checkout"); err != nil {
		t.Fatalf("fetch compensation: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 compensation failures, got %f", got)
	}

	orphaned := findMetricFamily(mfs, "workflow_orphaned_uploads_total")
	if orphaned == nil || orphaned.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one orphaned upload")
	}
	cleaned := findMetricFamily(mfs, "workflow_orphaned_uploads_cleaned_total")
	if cleaned == nil || cleaned.GetMetric()[0].GetCounter().GetValue() != 3 {
		t.Fatalf("expected three cleaned orphans")
	}
}

func TestWorkflowMetricsNilSafe(t *testing.T) {
	var m *WorkflowMetrics
	m.IncCompensationFailure("x")
	m.IncOrphanedUpload()
	NewWorkflowMetrics(nil).IncOrphanedUpload()
}

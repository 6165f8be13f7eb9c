package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics counts side effects that escaped a rolled back transaction.
type WorkflowMetrics struct {
	compensationFailures *prometheus.CounterVec
	orphanedUploads      prometheus.Counter
	orphansCleaned       prometheus.Counter
}

// NewWorkflowMetrics registers the workflow counters on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	compensation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_compensation_failures_total",
		Help: "Compensating writes that failed after a workflow error.",
	}, []string{"workflow"})
	orphaned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workflow_orphaned_uploads_total",
		Help: "Uploaded objects whose owning record could not be updated.",
	})
	cleaned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workflow_orphaned_uploads_cleaned_total",
		Help: "Orphaned uploads removed by the cleanup job.",
	})
	reg.MustRegister(compensation, orphaned, cleaned)
	return &WorkflowMetrics{
		compensationFailures: compensation,
		orphanedUploads:      orphaned,
		orphansCleaned:       cleaned,
	}
}

func (w *WorkflowMetrics) IncCompensationFailure(workflow string) {
	if w == nil || w.compensationFailures == nil {
		return
	}
	w.compensationFailures.WithLabelValues(normalizeLabel(workflow)).Inc()
}

func (w *WorkflowMetrics) IncOrphanedUpload() {
	if w == nil || w.orphanedUploads == nil {
		return
	}
	w.orphanedUploads.Inc()
}

func (w *WorkflowMetrics) AddOrphansCleaned(n int) {
	if w == nil || w.orphansCleaned == nil || n <= 0 {
		return
	}
	w.orphansCleaned.Add(float64(n))
}

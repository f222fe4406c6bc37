package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration intake pipeline.
type Metrics struct {
	// Intake outcomes by result: accepted, duplicate, invalid, error
	SubmissionsTotal *prometheus.CounterVec

	// Status transitions by target status
	StatusTransitions *prometheus.CounterVec

	// Photo uploads by kind and result
	PhotoUploads *prometheus.CounterVec
}

// New creates and registers all registration metrics.
func New() *Metrics {
	return &Metrics{
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "serviapp_registration_submissions_total",
			Help: "Registration intake outcomes",
		}, []string{"result"}),

		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "serviapp_registration_status_transitions_total",
			Help: "Moderation status transitions by target status",
		}, []string{"to"}),

		PhotoUploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "serviapp_registration_photo_uploads_total",
			Help: "Photo uploads by kind and result",
		}, []string{"kind", "result"}),
	}
}

// IncrementSubmission records an intake outcome.
func (m *Metrics) IncrementSubmission(result string) {
	if m != nil {
		m.SubmissionsTotal.WithLabelValues(result).Inc()
	}
}

// IncrementTransition records a moderation transition.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(to).Inc()
	}
}

// IncrementPhotoUpload records a photo upload attempt.
func (m *Metrics) IncrementPhotoUpload(kind, result string) {
	if m != nil {
		m.PhotoUploads.WithLabelValues(kind, result).Inc()
	}
}

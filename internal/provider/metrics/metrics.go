package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the provider context. Methods are nil-safe so tests can pass a
// nil receiver.
type Metrics struct {
	CreatesTotal          prometheus.Counter
	UpdatesTotal          prometheus.Counter
	SyncUnresolvedEntries *prometheus.CounterVec
	CardPhotoSelections   *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		CreatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "serviapp_provider_creates_total",
			Help: "Providers created via admin CRUD or approval.",
		}),
		UpdatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "serviapp_provider_updates_total",
			Help: "Provider profile updates.",
		}),
		SyncUnresolvedEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "serviapp_provider_sync_unresolved_total",
			Help: "Catalog entries dropped during association sync.",
		}, []string{"kind"}),
		CardPhotoSelections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "serviapp_provider_card_photo_selections_total",
			Help: "Card photo selection attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) RecordCreate() {
	if m == nil || m.CreatesTotal == nil {
		return
	}
	m.CreatesTotal.Inc()
}

func (m *Metrics) RecordUpdate() {
	if m == nil || m.UpdatesTotal == nil {
		return
	}
	m.UpdatesTotal.Inc()
}

func (m *Metrics) RecordUnresolved(kind string, n int) {
	if m == nil || m.SyncUnresolvedEntries == nil || n == 0 {
		return
	}
	m.SyncUnresolvedEntries.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) RecordCardPhotoSelection(result string) {
	if m == nil || m.CardPhotoSelections == nil {
		return
	}
	m.CardPhotoSelections.WithLabelValues(result).Inc()
}

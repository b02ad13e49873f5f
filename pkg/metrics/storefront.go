package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records session transitions and cart activity.
type StorefrontMetrics struct {
	sessionTransitions *prometheus.CounterVec
	cartMutations      *prometheus.CounterVec
	cartItems          prometheus.Histogram
	activeClients      prometheus.Gauge
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	sessionTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_session_transitions_total",
		Help: "Successful session transitions by event.",
	}, []string{"event"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Applied cart mutations by operation.",
	}, []string{"op"})
	cartItems := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_cart_item_count",
		Help:    "Cart item count observed after each mutation.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})
	activeClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_active_clients",
		Help: "Clients with state loaded in this process.",
	})
	reg.MustRegister(sessionTransitions, cartMutations, cartItems, activeClients)
	return &StorefrontMetrics{
		sessionTransitions: sessionTransitions,
		cartMutations:      cartMutations,
		cartItems:          cartItems,
		activeClients:      activeClients,
	}
}

// IncSessionTransition counts a login, logout or registration.
func (m *StorefrontMetrics) IncSessionTransition(event string) {
	if m == nil || m.sessionTransitions == nil {
		return
	}
	m.sessionTransitions.WithLabelValues(normalizeLabel(event)).Inc()
}

// ObserveCartMutation counts the operation and records the resulting item count.
func (m *StorefrontMetrics) ObserveCartMutation(op string, itemCount int) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
	m.cartItems.Observe(float64(itemCount))
}

// IncActiveClients bumps the loaded-client gauge.
func (m *StorefrontMetrics) IncActiveClients() {
	if m == nil || m.activeClients == nil {
		return
	}
	m.activeClients.Inc()
}

// DecActiveClients drops an evicted client from the gauge.
func (m *StorefrontMetrics) DecActiveClients() {
	if m == nil || m.activeClients == nil {
		return
	}
	m.activeClients.Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

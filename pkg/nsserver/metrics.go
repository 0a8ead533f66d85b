package nsserver

import "github.com/prometheus/client_golang/prometheus"

// serverMetrics tracks session and verb counts, separate from catalog's own
// cache/size metrics (pkg/catalog/metrics.go) since this package never
// reaches into the catalog's internals.
type serverMetrics struct {
	connectionsTotal *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	ssTransactions   *prometheus.CounterVec
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langos_ns_connections_total",
			Help: "NS connections accepted, by peer kind.",
		}, []string{"peer_kind"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langos_ns_commands_total",
			Help: "NS commands processed, by verb and outcome.",
		}, []string{"verb", "outcome"}),
		ssTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langos_ns_ss_transactions_total",
			Help: "NS-mediated SS transactions, by verb and outcome.",
		}, []string{"verb", "outcome"}),
	}
	_ = prometheus.Register(m.connectionsTotal)
	_ = prometheus.Register(m.commandsTotal)
	_ = prometheus.Register(m.ssTransactions)
	return m
}

func (m *serverMetrics) connection(peerKind string) { m.connectionsTotal.WithLabelValues(peerKind).Inc() }

func (m *serverMetrics) command(verb string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.commandsTotal.WithLabelValues(verb, outcome).Inc()
}

func (m *serverMetrics) ssTransaction(verb string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.ssTransactions.WithLabelValues(verb, outcome).Inc()
}

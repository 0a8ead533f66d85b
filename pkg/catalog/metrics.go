package catalog

import "github.com/prometheus/client_golang/prometheus"

// catalogMetrics is purely observational (SPEC_FULL.md §4.2) — it never
// gates behavior, only reports it. Registration uses prometheus.NewRegistry
// semantics implicitly via the default registerer so nsserver's admin HTTP
// surface can expose it through promhttp without plumbing a registry through
// every constructor.
type catalogMetrics struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	catalogSize prometheus.Gauge
}

func newCatalogMetrics() *catalogMetrics {
	m := &catalogMetrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langos_ns_cache_hits_total",
			Help: "Lookups served from the NS's bounded LRU cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langos_ns_cache_misses_total",
			Help: "Lookups that fell through to the hash index.",
		}),
		catalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "langos_ns_catalog_files",
			Help: "Number of file rows currently in the catalog.",
		}),
	}
	// Registered best-effort: a second Catalog in the same process (as in
	// tests) would otherwise panic on duplicate registration.
	_ = prometheus.Register(m.cacheHits)
	_ = prometheus.Register(m.cacheMisses)
	_ = prometheus.Register(m.catalogSize)
	return m
}

func (m *catalogMetrics) cacheHit()  { m.cacheHits.Inc() }
func (m *catalogMetrics) cacheMiss() { m.cacheMisses.Inc() }
func (m *catalogMetrics) setCatalogSize(n int) { m.catalogSize.Set(float64(n)) }

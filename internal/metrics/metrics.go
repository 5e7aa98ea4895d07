package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Searches          *prometheus.CounterVec
	APIErrors         prometheus.Counter
	RequestSeconds    *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
	AddressesReturned prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Searches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "address_search_requests_total",
			Help: "Total number of address searches by outcome.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "address_search_cache_lookups_total",
			Help: "Total number of search cache lookups by result.",
		}, []string{"result"}),
		AddressesReturned: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "address_search_results",
			Help:    "Number of addresses returned per successful search.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),
	}
}
